package hybrid

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuswatch/pkg/window"
)

type fakeDetector struct {
	info          *window.WindowInfo
	err           error
	available     bool
	displayServer string
	closeErr      error
	calls         int
	closed        bool
}

func (f *fakeDetector) GetFocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	f.calls++
	return f.info, f.err
}

func (f *fakeDetector) IsAvailable() bool        { return f.available }
func (f *fakeDetector) GetDisplayServer() string { return f.displayServer }

func (f *fakeDetector) Close() error {
	f.closed = true
	return f.closeErr
}

func newChain(t *testing.T, members ...Member) *Detector {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	d, err := NewDetector(log, members...)
	require.NoError(t, err)
	return d
}

func TestNewDetectorRequiresMembers(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, err := NewDetector(log)
	assert.Error(t, err)
}

func TestFirstSuccessWins(t *testing.T) {
	gnome := &fakeDetector{available: true, displayServer: "wayland", err: errors.New("Shell.Eval refused")}
	x11 := &fakeDetector{available: true, displayServer: "x11", info: &window.WindowInfo{AppName: "firefox"}}
	spare := &fakeDetector{available: true, info: &window.WindowInfo{AppName: "never"}}

	d := newChain(t, Member{"gnome", gnome}, Member{"x11", x11}, Member{"spare", spare})

	info, err := d.GetFocusedWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "firefox", info.AppName)
	assert.Equal(t, "x11", d.LastSuccessfulMethod())
	assert.Equal(t, 0, spare.calls)
	assert.Equal(t, "wayland", d.GetDisplayServer())
}

func TestUnavailableMembersAreSkipped(t *testing.T) {
	off := &fakeDetector{available: false, info: &window.WindowInfo{AppName: "ghost"}}
	on := &fakeDetector{available: true, info: &window.WindowInfo{AppName: "kitty"}}

	d := newChain(t, Member{"off", off}, Member{"on", on})

	info, err := d.GetFocusedWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kitty", info.AppName)
	assert.Equal(t, 0, off.calls)
	assert.True(t, d.IsAvailable())
}

func TestAllNoFocus(t *testing.T) {
	a := &fakeDetector{available: true, err: window.ErrNoFocusedWindow}
	b := &fakeDetector{available: true, info: &window.WindowInfo{}}

	d := newChain(t, Member{"a", a}, Member{"b", b})

	_, err := d.GetFocusedWindow(context.Background())
	assert.Equal(t, window.ErrNoFocusedWindow, err)
}

func TestFailuresAreCombined(t *testing.T) {
	a := &fakeDetector{available: true, err: window.ErrNoFocusedWindow}
	b := &fakeDetector{available: true, err: errors.New("broken pipe")}

	d := newChain(t, Member{"a", a}, Member{"b", b})

	_, err := d.GetFocusedWindow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: no focused window")
	assert.Contains(t, err.Error(), "b: broken pipe")
	assert.True(t, errors.Is(err, window.ErrNoFocusedWindow))
}

func TestNothingAvailable(t *testing.T) {
	d := newChain(t, Member{"off", &fakeDetector{}})

	assert.False(t, d.IsAvailable())
	_, err := d.GetFocusedWindow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no detection backend available")
}

func TestCloseClosesEveryMember(t *testing.T) {
	a := &fakeDetector{closeErr: errors.New("bus gone")}
	b := &fakeDetector{}

	d := newChain(t, Member{"a", a}, Member{"b", b})

	err := d.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing a: bus gone")
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestStatus(t *testing.T) {
	x11 := &fakeDetector{available: true, displayServer: "x11", info: &window.WindowInfo{AppName: "xterm"}}
	d := newChain(t, Member{"x11", x11})

	assert.Contains(t, d.Status(), "1. x11 (x11, available: true)")
	assert.Contains(t, d.Status(), "Last successful method: none")

	_, err := d.GetFocusedWindow(context.Background())
	require.NoError(t, err)
	assert.Contains(t, d.Status(), "Last successful method: x11")
}
