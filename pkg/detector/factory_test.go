package detector

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuswatch/internal/config"
	"focuswatch/pkg/integrations/hybrid"
	"focuswatch/pkg/window"
)

type stubX11 struct{}

func (stubX11) GetFocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	return &window.WindowInfo{AppName: "xterm", DisplayServer: window.DisplayServerX11}, nil
}
func (stubX11) IsAvailable() bool        { return true }
func (stubX11) GetDisplayServer() string { return window.DisplayServerX11 }
func (stubX11) Close() error             { return nil }

func stubNewX11(t *testing.T, fail bool) *[]string {
	t.Helper()
	var displays []string
	orig := newX11
	newX11 = func(display string) (window.Detector, error) {
		displays = append(displays, display)
		if fail {
			return nil, errors.New("connection refused")
		}
		return stubX11{}, nil
	}
	t.Cleanup(func() { newX11 = orig })
	return &displays
}

func members(t *testing.T, det window.Detector) string {
	t.Helper()
	h, ok := det.(*hybrid.Detector)
	require.True(t, ok, "factory should return a hybrid chain")
	return h.Status()
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name    string
		session config.Session
		want    string
	}{
		{"Wayland session", config.Session{SessionType: "wayland", WaylandDisplay: "wayland-0"}, "wayland"},
		{"X11 session", config.Session{SessionType: "x11", Display: ":0"}, "x11"},
		{"Unknown session", config.Session{}, "unknown"},
		{"Wayland display set", config.Session{WaylandDisplay: "wayland-1"}, "wayland"},
		{"X11 display set", config.Session{Display: ":1"}, "x11"},
		{"XWayland", config.Session{WaylandDisplay: "wayland-0", Display: ":0"}, "wayland"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDisplayServer(tt.session))
		})
	}
}

func TestNewAutoX11(t *testing.T) {
	displays := stubNewX11(t, false)
	log, _ := logtest.NewNullLogger()

	det, err := New(config.DetectorConfig{Backend: config.BackendAuto}, config.Session{SessionType: "x11", Display: ":0"}, log)
	require.NoError(t, err)
	defer det.Close()

	assert.Equal(t, []string{":0"}, *displays)
	assert.Equal(t, "x11", det.GetDisplayServer())

	name, err := window.AppName(context.Background(), det)
	require.NoError(t, err)
	assert.Equal(t, "xterm", name)
}

func TestNewAutoGnomeWithXWayland(t *testing.T) {
	displays := stubNewX11(t, false)
	log, _ := logtest.NewNullLogger()

	session := config.Session{
		SessionType:    "wayland",
		WaylandDisplay: "wayland-0",
		Display:        ":0",
		CurrentDesktop: "ubuntu:GNOME",
	}
	det, err := New(config.DetectorConfig{Backend: config.BackendAuto}, session, log)
	require.NoError(t, err)
	defer det.Close()

	status := members(t, det)
	assert.Contains(t, status, "1. gnome (wayland")
	assert.Contains(t, status, "2. x11 (x11")
	assert.Equal(t, []string{":0"}, *displays)
}

func TestNewAutoUnknownCompositorFallsBackToXWayland(t *testing.T) {
	stubNewX11(t, false)
	log, _ := logtest.NewNullLogger()

	session := config.Session{WaylandDisplay: "wayland-0", Display: ":0", CurrentDesktop: "KDE"}
	det, err := New(config.DetectorConfig{Backend: config.BackendAuto}, session, log)
	require.NoError(t, err)
	defer det.Close()

	assert.Contains(t, members(t, det), "1. x11 (x11")
}

func TestNewAutoNoSession(t *testing.T) {
	log, _ := logtest.NewNullLogger()

	_, err := New(config.DetectorConfig{Backend: config.BackendAuto}, config.Session{}, log)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBackend))
}

func TestNewX11Unreachable(t *testing.T) {
	stubNewX11(t, true)
	log, hook := logtest.NewNullLogger()

	_, err := New(config.DetectorConfig{Backend: config.BackendX11}, config.Session{Display: ":0"}, log)
	assert.Equal(t, ErrNoBackend, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "x11 backend unavailable", hook.LastEntry().Message)
}

func TestNewExplicitGnome(t *testing.T) {
	displays := stubNewX11(t, false)
	log, _ := logtest.NewNullLogger()

	det, err := New(config.DetectorConfig{Backend: config.BackendGnome}, config.Session{Display: ":0"}, log)
	require.NoError(t, err)
	defer det.Close()

	assert.Equal(t, "wayland", det.GetDisplayServer())
	assert.Empty(t, *displays, "an explicit backend must not add others")
}

func TestNewUnknownBackend(t *testing.T) {
	log, _ := logtest.NewNullLogger()

	_, err := New(config.DetectorConfig{Backend: "quartz"}, config.Session{}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "quartz"`)
}
