// Package service wires the capture, artifact, transfer and tracking
// components behind one façade the HTTP server and CLI share.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/audiolibrelab/loopcapture/internal/artifact"
	"github.com/audiolibrelab/loopcapture/internal/audio"
	"github.com/audiolibrelab/loopcapture/internal/config"
	"github.com/audiolibrelab/loopcapture/internal/logging"
	"github.com/audiolibrelab/loopcapture/internal/session"
	"github.com/audiolibrelab/loopcapture/internal/transfer"
)

// Service is the application core. One instance per process.
type Service struct {
	configPath string

	mu  sync.RWMutex // guards cfg
	cfg *config.Config

	manager   *session.Manager
	transfers *transfer.Manager
	tracker   *logging.Tracker
	library   *PlaybackLibrary
}

// New assembles the service. The tracker may be nil for one-shot CLI use.
func New(configPath string, cfg *config.Config, engine audio.Engine, tracker *logging.Tracker) *Service {
	s := &Service{
		configPath: configPath,
		cfg:        cfg,
		transfers:  transfer.NewManager(),
		tracker:    tracker,
		library:    NewPlaybackLibrary(cfg.PlaybackDirectory),
	}

	s.manager = session.NewManager(session.Config{
		DefaultDuration:     cfg.DefaultDuration,
		SampleRate:          cfg.SampleRate,
		OutputPrefix:        cfg.OutputPrefix,
		PlaybackDirectory:   cfg.PlaybackDirectory,
		RecordingsDirectory: cfg.RecordingsDirectory,
	}, engine)
	s.manager.OnComplete(s.onSessionComplete)

	return s
}

// Config returns a copy of the active configuration.
func (s *Service) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// UpdateConfig validates, persists and applies a new configuration document.
// A persistence failure is logged and the in-memory document still becomes
// authoritative for the rest of the process lifetime. Directory changes take
// effect on the next process start.
func (s *Service) UpdateConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(s.configPath, &cfg); err != nil {
		slog.Error("Could not persist configuration", "path", s.configPath, "error", err)
	}

	s.mu.Lock()
	s.cfg = &cfg
	s.mu.Unlock()

	slog.Info("Configuration updated")
	return nil
}

// UpdateStorageConfig replaces only the remote-storage descriptor.
func (s *Service) UpdateStorageConfig(sc config.StorageConfig) error {
	cfg := s.Config()
	cfg.Storage = sc
	return s.UpdateConfig(cfg)
}

// StartRecording admits a new session. An empty playback source falls back
// to the library's selected file.
func (s *Service) StartRecording(req session.Request) (session.Snapshot, error) {
	cfg := s.Config()

	if req.PlaybackSource == "" {
		selected, err := s.library.Selected()
		if err != nil {
			slog.Warn("Could not read playback selection", "error", err)
		}
		req.PlaybackSource = selected
	}
	if req.Duration <= 0 {
		req.Duration = cfg.DefaultDuration
	}
	if req.SampleRate <= 0 {
		req.SampleRate = cfg.SampleRate
	}
	if req.OutputPrefix == "" {
		req.OutputPrefix = cfg.OutputPrefix
	}

	return s.manager.Admit(req)
}

// StopRecording delivers the stop signal to the active session.
func (s *Service) StopRecording() (session.Snapshot, error) {
	return s.manager.RequestStop()
}

// RecordingStatus returns the current session snapshot, if any.
func (s *Service) RecordingStatus() (session.Snapshot, bool) {
	return s.manager.Current()
}

// WaitForRecording blocks until the slot is clear. One-shot CLI path.
func (s *Service) WaitForRecording(ctx context.Context) error {
	return s.manager.Wait(ctx)
}

// History lists past recording groups found in the recordings directory.
func (s *Service) History() ([]artifact.Group, error) {
	cfg := s.Config()
	return artifact.ScanHistory(cfg.RecordingsDirectory, cfg.SampleRate)
}

// TransferSession ships one recording group's files to the configured
// remote store.
func (s *Service) TransferSession(ctx context.Context, sessionID string, deleteAfter bool) (*transfer.Result, error) {
	cfg := s.Config()
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("%w: remote storage is disabled", transfer.ErrConfigIncomplete)
	}

	files, err := transfer.FilesForSession(cfg.RecordingsDirectory, sessionID)
	if err != nil {
		return nil, err
	}

	return s.transfers.Transfer(ctx, files, transfer.Destination{
		Host:       cfg.Storage.Host,
		Port:       cfg.Storage.Port,
		Protocol:   cfg.Storage.Protocol,
		Username:   cfg.Storage.Username,
		RemotePath: cfg.Storage.RemotePath,
	}, transfer.Options{DeleteAfterTransfer: deleteAfter})
}

// onSessionComplete runs in the worker goroutine after the slot clears.
// Transfers are independent of the recording slot, so a new session may be
// admitted while this one uploads.
func (s *Service) onSessionComplete(snap session.Snapshot) {
	cfg := s.Config()
	if snap.Status != session.StatusCompleted || !cfg.Storage.Enabled || !cfg.Storage.AutoTransfer {
		return
	}
	if snap.StartTime == nil {
		return
	}

	key := sessionKey(snap.OutputPrefix, *snap.StartTime)

	slog.Info("Auto-transferring completed recording", "session", snap.ID, "key", key)

	result, err := s.TransferSession(context.Background(), key, false)
	if err != nil {
		slog.Error("Auto-transfer failed", "session", snap.ID, "error", err)
		return
	}
	slog.Info("Auto-transfer finished",
		"session", snap.ID,
		"transferred", len(result.Transferred),
		"failed", len(result.Failed))
}

// DeviceList enumerates the capture and playback endpoints.
func (s *Service) DeviceList() (inputs, outputs []audio.Device, err error) {
	inputs, err = audio.ListInputDevices()
	if err != nil {
		return nil, nil, err
	}
	outputs, err = audio.ListOutputDevices()
	if err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

// InterfaceStatus reports whether the configured audio interface is
// connected, and which endpoint matched.
type InterfaceStatus struct {
	Connected bool          `json:"connected"`
	Keyword   string        `json:"keyword"`
	Input     *audio.Device `json:"input,omitempty"`
	Output    *audio.Device `json:"output,omitempty"`
}

// Interface looks the configured keyword up among the connected endpoints.
func (s *Service) Interface() InterfaceStatus {
	cfg := s.Config()
	status := InterfaceStatus{Keyword: cfg.DeviceKeyword}

	if inputs, err := audio.ListInputDevices(); err == nil {
		if dev, err := audio.FindDevice(inputs, cfg.DeviceKeyword); err == nil {
			status.Input = &dev
		}
	}
	if outputs, err := audio.ListOutputDevices(); err == nil {
		if dev, err := audio.FindDevice(outputs, cfg.DeviceKeyword); err == nil {
			status.Output = &dev
		}
	}
	status.Connected = status.Input != nil && status.Output != nil
	return status
}

// RecordingPath resolves a recording file name to its on-disk path, guarding
// against traversal outside the recordings directory.
func (s *Service) RecordingPath(name string) (string, error) {
	cfg := s.Config()
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".wav") {
		return "", fmt.Errorf("invalid recording name: %q", name)
	}
	path := filepath.Join(cfg.RecordingsDirectory, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// DeleteRecording removes a single recording file.
func (s *Service) DeleteRecording(name string) error {
	path, err := s.RecordingPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	slog.Info("Recording deleted", "file", name)
	return nil
}

// PlaybackFiles lists the reference files available for looping.
func (s *Service) PlaybackFiles() ([]PlaybackFile, error) {
	return s.library.List()
}

// SelectedPlayback returns the sidecar's selected file name.
func (s *Service) SelectedPlayback() (string, error) {
	return s.library.Selected()
}

// SelectPlayback records the selected playback file.
func (s *Service) SelectPlayback(name string) error {
	return s.library.Select(name)
}

// LogFiles lists the files in the log directory.
func (s *Service) LogFiles() ([]logging.LogFileInfo, error) {
	return logging.ListLogFiles(s.Config().Log.Directory)
}

// ReadLog tails one log file.
func (s *Service) ReadLog(name string, lines, offset int) ([]string, error) {
	return logging.ReadLog(s.Config().Log.Directory, name, lines, offset)
}

// PurgeLogs removes log files older than the cutoff.
func (s *Service) PurgeLogs(days int) (*logging.PurgeResult, error) {
	return logging.PurgeOlderThan(s.Config().Log.Directory, days)
}

// Uptime summarizes process uptime and recent crash records.
func (s *Service) Uptime() logging.UptimeSummary {
	if s.tracker == nil {
		return logging.UptimeSummary{}
	}
	return s.tracker.History()
}

// sessionKey builds the on-disk group key recordings are stored and
// transferred under.
func sessionKey(prefix string, start time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, start.Format("2006-01-02_15-04-05"))
}
