package config_test

import (
	"fmt"
	"math"

	"focuswatch/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Poll Interval:", cfg.Monitor.PollInterval)
	fmt.Println("Backend:", cfg.Detector.Backend)
	fmt.Println("Runs indefinitely:", !cfg.HasDuration())
	// Output:
	// Poll Interval: 1s
	// Backend: auto
	// Runs indefinitely: true
}

// Example of setting the run duration from seconds
func ExampleConfig_SetDuration() {
	cfg := config.Default()

	if err := cfg.SetDuration(2.5); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Duration set to:", cfg.Monitor.Duration)
	}

	if err := cfg.SetDuration(math.NaN()); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Duration set to: 2.5s
	// Error: duration must be a finite number of seconds, got NaN
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	cfg.Detector.Backend = "quartz"
	fmt.Println("Invalid config:", cfg.Validate())

	// Output:
	// Configuration is valid
	// Invalid config: unknown backend "quartz" (want one of auto, x11, gnome, sway, hyprland)
}
