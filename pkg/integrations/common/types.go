package common

import (
	"context"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Unknown is the placeholder some compositors report for an unnamed window
const Unknown = "Unknown"

// CommandExists checks if a command is available in PATH
func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// ProcessName resolves a PID to its process name.
// It returns an empty string when the PID is unset or the process is gone.
func ProcessName(ctx context.Context, pid int32) string {
	if pid <= 0 {
		return ""
	}

	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ""
	}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// FirstName returns the first candidate that is a usable application name
func FirstName(candidates ...string) string {
	for _, c := range candidates {
		if c != "" && c != Unknown {
			return c
		}
	}
	return ""
}
