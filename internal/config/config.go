package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Backend names accepted by DetectorConfig.Backend
const (
	BackendAuto     = "auto"
	BackendX11      = "x11"
	BackendGnome    = "gnome"
	BackendSway     = "sway"
	BackendHyprland = "hyprland"
)

// Backends lists every supported backend in the order they are documented
var Backends = []string{BackendAuto, BackendX11, BackendGnome, BackendSway, BackendHyprland}

// maxDuration is the largest run duration representable as time.Duration
const maxDuration = time.Duration(math.MaxInt64)

// Config holds all application configuration
type Config struct {
	// Monitor loop configuration
	Monitor MonitorConfig

	// Platform detector configuration
	Detector DetectorConfig

	// Diagnostic logging configuration
	Log LogConfig

	// Desktop session the detector binds against
	Session Session
}

// MonitorConfig holds polling loop configuration
type MonitorConfig struct {
	PollInterval time.Duration // Delay between focus checks
	Duration     time.Duration // Run time before exiting; zero runs indefinitely
}

// DetectorConfig holds platform detector configuration
type DetectorConfig struct {
	Backend string // One of Backends
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string // logrus level name
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval: time.Second,
			Duration:     0,
		},
		Detector: DetectorConfig{
			Backend: BackendAuto,
		},
		Log: LogConfig{
			Level: logrus.WarnLevel.String(),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Monitor.PollInterval)
	}

	if !isBackend(c.Detector.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %s)",
			c.Detector.Backend, strings.Join(Backends, ", "))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// SetDuration sets the run duration from a number of seconds.
// Zero means run indefinitely; a negative value is already elapsed.
func (c *Config) SetDuration(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("duration must be a finite number of seconds, got %v", seconds)
	}
	// float64(math.MaxInt64) rounds up to 2^63, so >= rejects every
	// product that would not fit in an int64.
	if math.Abs(seconds*float64(time.Second)) >= float64(maxDuration) {
		return fmt.Errorf("duration cannot exceed %v seconds", math.Floor(maxDuration.Seconds()))
	}
	c.Monitor.Duration = time.Duration(seconds * float64(time.Second))
	return nil
}

// HasDuration reports whether the monitor should stop on its own
func (c *Config) HasDuration() bool {
	return c.Monitor.Duration != 0
}

func isBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// String returns a string representation of the config
func (c *Config) String() string {
	duration := "indefinite"
	if c.HasDuration() {
		duration = c.Monitor.Duration.String()
	}

	return fmt.Sprintf(`Configuration:
  Monitor:
    Poll Interval: %v
    Duration: %s
  Detector:
    Backend: %s
  Log:
    Level: %s
  Session:
%s`,
		c.Monitor.PollInterval,
		duration,
		c.Detector.Backend,
		c.Log.Level,
		c.Session.String(),
	)
}
