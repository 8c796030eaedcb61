package hybrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"focuswatch/pkg/window"
)

// Member is one detector in the chain together with the name used in logs
type Member struct {
	Name     string
	Detector window.Detector
}

// Detector tries each member in order and answers with the first success
type Detector struct {
	members []Member
	log     logrus.FieldLogger

	lastSuccessfulMethod string
}

// NewDetector builds a chain over members; the order is the preference order
func NewDetector(log logrus.FieldLogger, members ...Member) (*Detector, error) {
	if len(members) == 0 {
		return nil, errors.New("hybrid detector needs at least one member")
	}
	return &Detector{
		members: members,
		log:     log.WithField("component", "hybrid"),
	}, nil
}

// GetFocusedWindow asks every available member in order
func (d *Detector) GetFocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	var (
		result    *multierror.Error
		noFocus   = true
		attempted = 0
	)

	for _, m := range d.members {
		if !m.Detector.IsAvailable() {
			continue
		}
		attempted++

		info, err := m.Detector.GetFocusedWindow(ctx)
		if err == nil && info != nil && info.AppName != "" {
			if d.lastSuccessfulMethod != m.Name {
				d.log.WithField("backend", m.Name).Debug("focus answered by backend")
			}
			d.lastSuccessfulMethod = m.Name
			return info, nil
		}
		if err == nil {
			err = window.ErrNoFocusedWindow
		}
		if !errors.Is(err, window.ErrNoFocusedWindow) {
			noFocus = false
		}
		result = multierror.Append(result, errors.Wrap(err, m.Name))
	}

	if attempted == 0 {
		return nil, errors.New("no detection backend available")
	}
	if noFocus {
		return nil, window.ErrNoFocusedWindow
	}
	return nil, result.ErrorOrNil()
}

// IsAvailable reports whether any member can run
func (d *Detector) IsAvailable() bool {
	for _, m := range d.members {
		if m.Detector.IsAvailable() {
			return true
		}
	}
	return false
}

// GetDisplayServer reports the display server of the preferred member
func (d *Detector) GetDisplayServer() string {
	return d.members[0].Detector.GetDisplayServer()
}

// LastSuccessfulMethod names the member that answered the last successful query
func (d *Detector) LastSuccessfulMethod() string {
	return d.lastSuccessfulMethod
}

// Close closes every member
func (d *Detector) Close() error {
	var result *multierror.Error
	for _, m := range d.members {
		if err := m.Detector.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "closing %s", m.Name))
		}
	}
	return result.ErrorOrNil()
}

// Status renders the chain for diagnostics
func (d *Detector) Status() string {
	var b strings.Builder
	b.WriteString("Hybrid Detector Status:\n")
	for i, m := range d.members {
		fmt.Fprintf(&b, "  %d. %s (%s, available: %v)\n",
			i+1, m.Name, m.Detector.GetDisplayServer(), m.Detector.IsAvailable())
	}
	last := d.lastSuccessfulMethod
	if last == "" {
		last = "none"
	}
	fmt.Fprintf(&b, "  Last successful method: %s\n", last)
	return b.String()
}
