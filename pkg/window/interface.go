package window

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNoFocusedWindow is returned when the session has no focused window,
// or the focused window carries no usable application name
var ErrNoFocusedWindow = errors.New("no focused window")

// Display server names reported by GetDisplayServer
const (
	DisplayServerX11     = "x11"
	DisplayServerWayland = "wayland"
)

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           int32
	DisplayServer string // "x11" or "wayland"
}

// Detector is the interface that all window detection implementations must satisfy
type Detector interface {
	// GetFocusedWindow returns information about the currently focused window
	GetFocusedWindow(ctx context.Context) (*WindowInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type ("x11" or "wayland")
	GetDisplayServer() string

	// Close cleans up any resources used by the detector
	Close() error
}

// AppName returns the application name of the focused window.
// A missing window or an empty name yields ErrNoFocusedWindow.
func AppName(ctx context.Context, d Detector) (string, error) {
	info, err := d.GetFocusedWindow(ctx)
	if err != nil {
		return "", err
	}
	if info == nil || info.AppName == "" {
		return "", ErrNoFocusedWindow
	}
	return info.AppName, nil
}
