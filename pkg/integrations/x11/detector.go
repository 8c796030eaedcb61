package x11

import (
	"context"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"focuswatch/pkg/integrations/common"
	"focuswatch/pkg/window"
)

// propertyLength is the number of 32-bit units requested for string properties
const propertyLength = 256

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Detector implements window.Detector over a native X11 connection
type Detector struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewDetector connects to the given X display; an empty display uses $DISPLAY
func NewDetector(display string) (*Detector, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to X display %q", display)
	}

	d := &Detector{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		d.atoms[name] = reply.Atom
	}

	return d, nil
}

// IsAvailable checks if the X connection is open
func (d *Detector) IsAvailable() bool {
	return d.conn != nil
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return window.DisplayServerX11
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	if d.conn == nil {
		return nil, errors.New("x11 connection closed")
	}

	win, err := d.activeWindow()
	if err != nil {
		return nil, err
	}

	instance, class := parseWMClass(d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, propertyLength))
	pid := d.windowPID(win)

	processName := ""
	appName := common.FirstName(class, instance)
	if appName == "" {
		processName = common.ProcessName(ctx, pid)
		appName = processName
	}
	if appName == "" {
		return nil, window.ErrNoFocusedWindow
	}

	return &window.WindowInfo{
		AppName:       appName,
		WindowTitle:   d.windowName(win),
		ProcessName:   processName,
		PID:           pid,
		DisplayServer: window.DisplayServerX11,
	}, nil
}

// activeWindow prefers the EWMH hint and falls back to the input focus
func (d *Detector) activeWindow() (xproto.Window, error) {
	data := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if win := decodeWindow(data); win != 0 && d.hasName(win) {
		return win, nil
	}

	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get input focus")
	}

	// PointerRoot and None are reported as 1 and 0.
	if reply.Focus <= xproto.InputFocusPointerRoot || reply.Focus == d.root {
		return 0, window.ErrNoFocusedWindow
	}

	win := d.topLevel(reply.Focus)
	if !d.hasName(win) {
		return 0, window.ErrNoFocusedWindow
	}
	return win, nil
}

func (d *Detector) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

func (d *Detector) hasName(win xproto.Window) bool {
	if len(d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 1)) > 0 {
		return true
	}
	if len(d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 1)) > 0 {
		return true
	}
	return len(d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 1)) > 0
}

func (d *Detector) windowName(win xproto.Window) string {
	if name := trimProperty(d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], propertyLength)); name != "" {
		return name
	}
	return trimProperty(d.property(win, d.atoms["WM_NAME"], xproto.AtomString, propertyLength))
}

func (d *Detector) windowPID(win xproto.Window) int32 {
	data := d.property(win, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if len(data) < 4 {
		return 0
	}
	return int32(xgb.Get32(data))
}

// Close cleans up resources
func (d *Detector) Close() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	return nil
}

func decodeWindow(data []byte) xproto.Window {
	if len(data) < 4 {
		return 0
	}
	return xproto.Window(xgb.Get32(data))
}

// parseWMClass splits a WM_CLASS value ("instance\x00class\x00")
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(trimProperty(data), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func trimProperty(data []byte) string {
	return strings.TrimRight(string(data), "\x00")
}
