package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"focuswatch/internal/config"
	"focuswatch/pkg/window"
)

// ErrNotInitialized is returned by Run when Initialize has not succeeded
var ErrNotInitialized = errors.New("monitor not initialized")

// QueryFunc returns the name of the currently focused application
type QueryFunc func(ctx context.Context) (string, error)

// FromDetector adapts a window detector into a QueryFunc
func FromDetector(d window.Detector) QueryFunc {
	return func(ctx context.Context) (string, error) {
		return window.AppName(ctx, d)
	}
}

// SleepFunc pauses for d or until ctx is done, returning ctx.Err() in the latter case
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Monitor
type Option func(*Monitor)

// WithLogger sets the diagnostic logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Monitor) {
		m.log = log
	}
}

// WithClock replaces the wall clock and the pause between polls
func WithClock(now func() time.Time, sleep SleepFunc) Option {
	return func(m *Monitor) {
		m.now = now
		m.sleep = sleep
	}
}

// Monitor polls the focused application and reports every change.
// It is not safe for concurrent use.
type Monitor struct {
	config config.MonitorConfig
	query  QueryFunc
	out    io.Writer
	log    logrus.FieldLogger
	now    func() time.Time
	sleep  SleepFunc

	current     string
	start       time.Time
	initialized bool
}

// New creates a monitor that asks query for the focused application and
// writes status lines to out
func New(cfg config.MonitorConfig, query QueryFunc, out io.Writer, opts ...Option) *Monitor {
	m := &Monitor{
		config: cfg,
		query:  query,
		out:    out,
		log:    logrus.StandardLogger(),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("component", "monitor")
	return m
}

// Initialize records the focused application and prints the initial status line
func (m *Monitor) Initialize(ctx context.Context) error {
	name, err := m.query(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "failed to query initial focus")
	}
	if err != nil {
		return errors.Wrap(err, "failed to query initial focus")
	}

	m.current = name
	m.start = m.now()
	m.initialized = true
	m.log.WithField("app", name).Debug("initial focus recorded")

	return m.emit("Active focus: %s\n", name)
}

// Run polls until the configured duration elapses or ctx is cancelled.
// Cancellation is a normal stop and returns nil without further output.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.initialized {
		return ErrNotInitialized
	}

	m.log.Debugf("polling every %v", m.config.PollInterval)

	for {
		if m.durationElapsed() {
			return m.emit("Finished: duration elapsed.\n")
		}

		if err := m.sleep(ctx, m.config.PollInterval); err != nil {
			m.log.Debug("monitor stopped")
			return nil
		}

		name, err := m.query(ctx)
		if ctx.Err() != nil {
			m.log.Debug("monitor stopped")
			return nil
		}
		if err != nil {
			m.logQueryError(err)
			continue
		}

		if name != m.current {
			m.log.WithField("app", name).Debugf("focus moved from %q", m.current)
			m.current = name
			if err := m.emit("Focus changed to: %s\n", name); err != nil {
				return err
			}
		}
	}
}

// Current returns the last recorded application name
func (m *Monitor) Current() string {
	return m.current
}

func (m *Monitor) durationElapsed() bool {
	if m.config.Duration == 0 {
		return false
	}
	return m.now().Sub(m.start) >= m.config.Duration
}

func (m *Monitor) logQueryError(err error) {
	if errors.Is(err, window.ErrNoFocusedWindow) {
		m.log.Debugf("skipping poll: %v", err)
		return
	}
	m.log.WithError(err).Warn("skipping poll: focus query failed")
}

func (m *Monitor) emit(format string, args ...interface{}) error {
	if _, err := fmt.Fprintf(m.out, format, args...); err != nil {
		return errors.Wrap(err, "failed to write status line")
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
