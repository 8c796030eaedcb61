package config

import (
	"fmt"
	"os"
)

// Session describes the desktop session the process runs in.
// Only the variables needed to locate a focus backend are captured.
type Session struct {
	SessionType       string // XDG_SESSION_TYPE
	WaylandDisplay    string // WAYLAND_DISPLAY
	Display           string // DISPLAY
	CurrentDesktop    string // XDG_CURRENT_DESKTOP
	SwaySocket        string // SWAYSOCK
	HyprlandSignature string // HYPRLAND_INSTANCE_SIGNATURE
}

// SessionFromEnv captures the desktop session from the process environment
func SessionFromEnv() Session {
	return Session{
		SessionType:       os.Getenv("XDG_SESSION_TYPE"),
		WaylandDisplay:    os.Getenv("WAYLAND_DISPLAY"),
		Display:           os.Getenv("DISPLAY"),
		CurrentDesktop:    os.Getenv("XDG_CURRENT_DESKTOP"),
		SwaySocket:        os.Getenv("SWAYSOCK"),
		HyprlandSignature: os.Getenv("HYPRLAND_INSTANCE_SIGNATURE"),
	}
}

func (s Session) String() string {
	return fmt.Sprintf(`    Session Type: %s
    Wayland Display: %s
    X11 Display: %s
    Desktop: %s`,
		s.SessionType,
		s.WaylandDisplay,
		s.Display,
		s.CurrentDesktop,
	)
}

// New creates a new Config with default values and the current session
func New() *Config {
	cfg := Default()
	cfg.Session = SessionFromEnv()
	return cfg
}
