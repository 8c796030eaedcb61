package detector

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"focuswatch/internal/config"
	"focuswatch/pkg/integrations/hybrid"
	"focuswatch/pkg/integrations/wayland"
	"focuswatch/pkg/integrations/x11"
	"focuswatch/pkg/window"
)

// ErrNoBackend is returned when no backend could be set up for the session
var ErrNoBackend = errors.New("no focus detection backend available")

// newX11 is replaced in tests
var newX11 = func(display string) (window.Detector, error) {
	det, err := x11.NewDetector(display)
	if err != nil {
		return nil, err
	}
	return det, nil
}

// New builds the detector chain for the configured backend and session
func New(cfg config.DetectorConfig, session config.Session, log logrus.FieldLogger) (window.Detector, error) {
	log = log.WithField("component", "detector")

	var members []hybrid.Member

	switch cfg.Backend {
	case config.BackendAuto:
		switch DetectDisplayServer(session) {
		case window.DisplayServerWayland:
			compositor := wayland.DetectCompositor(session)
			if compositor != wayland.CompositorUnknown {
				members = appendWayland(members, compositor, log)
			} else {
				log.Debug("unrecognized wayland compositor")
			}
			// XWayland covers X clients when the compositor cannot be asked.
			if session.Display != "" {
				members = appendX11(members, session.Display, log)
			}
		case window.DisplayServerX11:
			members = appendX11(members, session.Display, log)
		default:
			return nil, errors.Wrap(ErrNoBackend, "no X11 or Wayland session detected")
		}
	case config.BackendX11:
		members = appendX11(members, session.Display, log)
	case config.BackendGnome:
		members = appendWayland(members, wayland.CompositorGnome, log)
	case config.BackendSway:
		members = appendWayland(members, wayland.CompositorSway, log)
	case config.BackendHyprland:
		members = appendWayland(members, wayland.CompositorHyprland, log)
	default:
		return nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}

	if len(members) == 0 {
		return nil, ErrNoBackend
	}

	det, err := hybrid.NewDetector(log, members...)
	if err != nil {
		return nil, err
	}
	log.Debug(det.Status())
	return det, nil
}

func appendX11(members []hybrid.Member, display string, log logrus.FieldLogger) []hybrid.Member {
	det, err := newX11(display)
	if err != nil {
		log.WithError(err).Warn("x11 backend unavailable")
		return members
	}
	return append(members, hybrid.Member{Name: config.BackendX11, Detector: det})
}

func appendWayland(members []hybrid.Member, compositor string, log logrus.FieldLogger) []hybrid.Member {
	det := wayland.NewDetector(compositor)
	if !det.IsAvailable() {
		log.WithField("backend", compositor).Warn("wayland backend unavailable")
		return members
	}
	return append(members, hybrid.Member{Name: compositor, Detector: det})
}

// DetectDisplayServer reports which display server the session runs
func DetectDisplayServer(s config.Session) string {
	if s.SessionType == "wayland" || s.WaylandDisplay != "" {
		return window.DisplayServerWayland
	}

	if s.SessionType == "x11" || s.Display != "" {
		return window.DisplayServerX11
	}

	return "unknown"
}
