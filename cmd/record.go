package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/audio"
	"github.com/audiolibrelab/loopcapture/internal/service"
	"github.com/audiolibrelab/loopcapture/internal/session"
)

var recordCmd = &cobra.Command{
	Use:   "record [playback-file]",
	Short: "Record while looping a playback file",
	Long: `Loop the given playback file over the configured output device while
capturing the input device to stereo and per-channel wav files. With no
argument the selected playback file from the library is used.

The command blocks until the requested duration elapses or Ctrl+C stops
the recording early.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetInt("duration")

		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		engine := audio.NewFFmpegEngine(cfg.DeviceKeyword, cfg.InputDevice, cfg.OutputDevice)
		svc := service.New(cfgFile, cfg, engine, nil)

		req := session.Request{Duration: duration}
		if len(args) == 1 {
			req.PlaybackSource = args[0]
		}

		snap, err := svc.StartRecording(req)
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		slog.Info("Recording", "session", snap.ID, "human_id", snap.HumanID,
			"duration", snap.Duration, "playback", snap.PlaybackFile)
		fmt.Println("Press Ctrl+C to stop early")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := svc.WaitForRecording(ctx); err != nil {
			// Interrupted: deliver the stop and wait for finalization. The
			// session may already have finalized on its own.
			slog.Info("Stopping recording")
			if _, err := svc.StopRecording(); err != nil && !errors.Is(err, session.ErrNoActiveSession) {
				return fmt.Errorf("failed to stop recording: %w", err)
			}
			if err := svc.WaitForRecording(context.Background()); err != nil {
				return err
			}
		}

		groups, err := svc.History()
		if err == nil && len(groups) > 0 {
			fmt.Printf("Recorded %s (%d files)\n", groups[0].ID, len(groups[0].Files))
			for _, f := range groups[0].Files {
				fmt.Printf("  %s (%d bytes)\n", f.Name, f.Size)
			}
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().IntP("duration", "d", 0, "recording duration in seconds (overrides config)")
}
