package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"focuswatch/internal/config"
	"focuswatch/internal/monitor"
	"focuswatch/pkg/detector"
	"focuswatch/pkg/window"
	"focuswatch/version"
)

const appName = "focuswatch"

type detectorFactory func(config.DetectorConfig, config.Session, logrus.FieldLogger) (window.Detector, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand(config.New(), detector.New).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config, newDetector detectorFactory) *cobra.Command {
	var durationSeconds float64

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Print the focused application and log focus changes",
		Long: `focuswatch prints the application that currently has input focus,
then checks once per poll interval and prints a line whenever focus moves
to a different application. Interrupt (Ctrl-C) stops it quietly.`,
		Args:    cobra.NoArgs,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("duration") {
				if err := cfg.SetDuration(durationSeconds); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			log := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
			return run(cmd.Context(), cfg, newDetector, cmd.OutOrStdout(), log)
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf("version: %s\ncommit : %s\nbuilt  : %s\n",
		version.Version, version.Commit, version.Date))

	flags := cmd.Flags()
	flags.Float64VarP(&durationSeconds, "duration", "d", 0,
		"Seconds to run before exiting. Omit to run indefinitely.")
	flags.StringVar(&cfg.Detector.Backend, "backend", cfg.Detector.Backend,
		"Focus backend: "+strings.Join(config.Backends, ", "))
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level,
		"Diagnostic log level written to stderr (trace, debug, info, warning, error)")

	return cmd
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// run exits quietly whenever ctx is cancelled, whatever stage it reached
func run(ctx context.Context, cfg *config.Config, newDetector detectorFactory, out io.Writer, log *logrus.Logger) error {
	log.Debugf("Starting %s %s", appName, version.Version)
	log.Debugf("%s", cfg.String())

	det, err := newDetector(cfg.Detector, cfg.Session, log)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "failed to initialize focus detector")
	}
	defer func() {
		if err := det.Close(); err != nil {
			log.WithError(err).Warn("failed to close focus detector")
		}
	}()

	log.Debugf("Focus detector initialized: %s", det.GetDisplayServer())

	mon := monitor.New(cfg.Monitor, monitor.FromDetector(det), out, monitor.WithLogger(log))
	if err := mon.Initialize(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return mon.Run(ctx)
}
