package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/audio"
	"github.com/audiolibrelab/loopcapture/internal/logging"
	"github.com/audiolibrelab/loopcapture/internal/server"
	"github.com/audiolibrelab/loopcapture/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Start the loopcapture control server. Recording, transfer and
configuration are then driven remotely through the JSON API.

The crash tracker is armed for the lifetime of the server: an unclean
shutdown is detected and recorded on the next start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Port = port
		}

		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		if err := logging.Setup(cfg.Log, cfg.Debug); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		tracker := logging.NewTracker(cfg.Log.Directory)
		if tracker.Startup() {
			slog.Warn("Recovered from an unclean shutdown")
		}

		engine := audio.NewFFmpegEngine(cfg.DeviceKeyword, cfg.InputDevice, cfg.OutputDevice)
		svc := service.New(cfgFile, cfg, engine, tracker)
		srv := server.New(svc, cfg.Host, cfg.Port)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			tracker.CleanShutdown()
			return fmt.Errorf("server failed: %w", err)
		case sig := <-sigCh:
			slog.Info("Shutting down", "signal", sig.String())
			if _, err := svc.StopRecording(); err == nil {
				slog.Info("Active recording stopped for shutdown")
			}
			tracker.CleanShutdown()
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
}
