package wayland

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"focuswatch/internal/config"
	"focuswatch/pkg/integrations/common"
	"focuswatch/pkg/window"
)

// Compositor names returned by DetectCompositor
const (
	CompositorGnome    = "gnome"
	CompositorSway     = "sway"
	CompositorHyprland = "hyprland"
	CompositorUnknown  = "unknown"
)

const (
	gnomeShellDest = "org.gnome.Shell"
	gnomeShellPath = "/org/gnome/Shell"
	gnomeShellEval = "org.gnome.Shell.Eval"
)

const gnomeFocusScript = `
	(function () {
		let fw = global.display.get_focus_window();
		if (!fw) {
			return JSON.stringify(null);
		}
		return JSON.stringify({
			wm_class: fw.get_wm_class() || '',
			title: fw.get_title() || '',
			pid: fw.get_pid() || 0
		});
	})()
`

// CommandRunner runs an external command and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Detector implements window.Detector for Wayland compositors
type Detector struct {
	compositor string
	run        CommandRunner
	bus        *dbus.Conn
}

// DetectCompositor picks the compositor from the session environment
func DetectCompositor(s config.Session) string {
	switch {
	case s.SwaySocket != "":
		return CompositorSway
	case s.HyprlandSignature != "":
		return CompositorHyprland
	}

	desktop := strings.ToLower(s.CurrentDesktop)
	if strings.Contains(desktop, "gnome") || strings.Contains(desktop, "ubuntu") {
		return CompositorGnome
	}
	return CompositorUnknown
}

// NewDetector creates a Wayland detector for the given compositor
func NewDetector(compositor string) *Detector {
	return &Detector{
		compositor: compositor,
		run:        execRunner,
	}
}

// Compositor returns the compositor this detector talks to
func (d *Detector) Compositor() string {
	return d.compositor
}

// IsAvailable checks if the compositor's query interface can be reached
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case CompositorSway:
		return common.CommandExists("swaymsg")
	case CompositorHyprland:
		return common.CommandExists("hyprctl")
	case CompositorGnome:
		return true
	default:
		return false
	}
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return window.DisplayServerWayland
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	var (
		info *window.WindowInfo
		err  error
	)

	switch d.compositor {
	case CompositorSway:
		info, err = d.getFocusedWindowSway(ctx)
	case CompositorHyprland:
		info, err = d.getFocusedWindowHyprland(ctx)
	case CompositorGnome:
		info, err = d.getFocusedWindowGnome(ctx)
	default:
		return nil, errors.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	if info.AppName == "" {
		info.ProcessName = common.ProcessName(ctx, info.PID)
		info.AppName = info.ProcessName
	}
	if info.AppName == "" {
		return nil, window.ErrNoFocusedWindow
	}

	info.DisplayServer = window.DisplayServerWayland
	return info, nil
}

func (d *Detector) getFocusedWindowSway(ctx context.Context) (*window.WindowInfo, error) {
	output, err := d.run(ctx, "swaymsg", "-t", "get_tree", "-r")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

func (d *Detector) getFocusedWindowHyprland(ctx context.Context) (*window.WindowInfo, error) {
	output, err := d.run(ctx, "hyprctl", "activewindow", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandWindow(output)
}

func (d *Detector) getFocusedWindowGnome(ctx context.Context) (*window.WindowInfo, error) {
	if d.bus == nil {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to session bus")
		}
		d.bus = bus
	}

	var (
		ok     bool
		result string
	)
	obj := d.bus.Object(gnomeShellDest, dbus.ObjectPath(gnomeShellPath))
	if err := obj.CallWithContext(ctx, gnomeShellEval, 0, gnomeFocusScript).Store(&ok, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call Shell.Eval")
	}
	if !ok {
		return nil, errors.New("Shell.Eval refused the query (unsafe mode disabled)")
	}

	return parseShellEvalResult(result)
}

// Close cleans up resources
func (d *Detector) Close() error {
	if d.bus == nil {
		return nil
	}
	err := d.bus.Close()
	d.bus = nil
	return errors.Wrap(err, "failed to close session bus")
}

type gnomeWindow struct {
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int32  `json:"pid"`
}

// parseShellEvalResult decodes the Eval result, which is the script's
// return value encoded as JSON (a JSON string holding our JSON object)
func parseShellEvalResult(result string) (*window.WindowInfo, error) {
	payload := strings.TrimSpace(result)
	if strings.HasPrefix(payload, `"`) {
		if err := json.Unmarshal([]byte(payload), &payload); err != nil {
			return nil, errors.Wrap(err, "failed to decode Shell.Eval result")
		}
	}

	var gw *gnomeWindow
	if err := json.Unmarshal([]byte(payload), &gw); err != nil {
		return nil, errors.Wrap(err, "failed to decode focused window")
	}
	if gw == nil {
		return nil, window.ErrNoFocusedWindow
	}

	return &window.WindowInfo{
		AppName:     common.FirstName(gw.WMClass),
		WindowTitle: gw.Title,
		PID:         gw.PID,
	}, nil
}

type swayNode struct {
	Type             string `json:"type"`
	Name             string `json:"name"`
	Focused          bool   `json:"focused"`
	AppID            string `json:"app_id"`
	PID              int32  `json:"pid"`
	WindowProperties *struct {
		Class    string `json:"class"`
		Instance string `json:"instance"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

func (n *swayNode) findFocused() *swayNode {
	if n.Focused {
		return n
	}
	for i := range n.Nodes {
		if f := n.Nodes[i].findFocused(); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := n.FloatingNodes[i].findFocused(); f != nil {
			return f
		}
	}
	return nil
}

// parseSwayTree finds the focused view in swaymsg get_tree output
func parseSwayTree(output []byte) (*window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(output, &root); err != nil {
		return nil, errors.Wrap(err, "failed to decode sway tree")
	}

	node := root.findFocused()
	// An empty workspace or an output can hold focus.
	if node == nil || (node.Type != "con" && node.Type != "floating_con") {
		return nil, window.ErrNoFocusedWindow
	}

	var class, instance string
	if node.WindowProperties != nil {
		class = node.WindowProperties.Class
		instance = node.WindowProperties.Instance
	}

	return &window.WindowInfo{
		AppName:     common.FirstName(node.AppID, class, instance),
		WindowTitle: node.Name,
		PID:         node.PID,
	}, nil
}

type hyprlandWindow struct {
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
	PID          int32  `json:"pid"`
}

// parseHyprlandWindow decodes hyprctl activewindow -j output
func parseHyprlandWindow(output []byte) (*window.WindowInfo, error) {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" || trimmed == "{}" || trimmed == "Invalid" {
		return nil, window.ErrNoFocusedWindow
	}

	var hw hyprlandWindow
	if err := json.Unmarshal([]byte(trimmed), &hw); err != nil {
		return nil, errors.Wrap(err, "failed to decode hyprland window")
	}

	return &window.WindowInfo{
		AppName:     common.FirstName(hw.Class, hw.InitialClass),
		WindowTitle: hw.Title,
		PID:         hw.PID,
	}, nil
}
