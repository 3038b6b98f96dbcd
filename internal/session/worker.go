package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/audiolibrelab/loopcapture/internal/artifact"
	"github.com/audiolibrelab/loopcapture/internal/audio"
)

// runWorker drives one session from recording to a terminal state. It is the
// only goroutine that mutates the session after admission, always under the
// manager mutex and never while blocked on capture I/O.
func (m *Manager) runWorker(ctx context.Context, s *Session) {
	m.mu.Lock()
	now := time.Now()
	s.Status = StatusRecording
	s.StartTime = &now
	m.mu.Unlock()

	outputBase := filepath.Join(m.cfg.RecordingsDirectory,
		fmt.Sprintf("%s_%s", s.OutputPrefix, now.Format("2006-01-02_15-04-05")))

	slog.Info("Recording started",
		"session", s.ID,
		"human_id", s.HumanID,
		"playback", s.PlaybackFile,
		"duration", s.Duration,
		"sample_rate", s.SampleRate)

	failure := m.capture(ctx, s, outputBase)

	m.finalize(s, outputBase, failure)
}

// capture resolves devices, starts playback+capture and supervises the run.
// A non-nil return means the session ends in the error state.
func (m *Manager) capture(ctx context.Context, s *Session, outputBase string) error {
	input, output, err := m.engine.ResolveDevices()
	if err != nil {
		return err
	}

	if info, err := m.engine.Probe(s.PlaybackSource); err != nil {
		slog.Warn("Could not probe playback file", "file", s.PlaybackSource, "error", err)
	} else {
		if info.SampleRate != 0 && info.SampleRate != s.SampleRate {
			// No resampling is performed; the capture proceeds anyway.
			slog.Warn("Playback sample rate differs from recording rate",
				"playback_rate", info.SampleRate, "recording_rate", s.SampleRate)
		}
		if info.Channels == 1 {
			slog.Info("Mono playback file will be duplicated to two channels")
		}
		if info.DurationSeconds > 0 && info.DurationSeconds < float64(s.Duration) {
			slog.Info("Playback file shorter than recording, looping",
				"playback_seconds", info.DurationSeconds, "duration", s.Duration)
		}
	}

	capture, err := m.engine.Start(audio.CaptureRequest{
		PlaybackPath: s.PlaybackSource,
		OutputBase:   outputBase,
		Duration:     s.Duration,
		SampleRate:   s.SampleRate,
		InputDevice:  input,
		OutputDevice: output,
	})
	if err != nil {
		return err
	}

	m.supervise(ctx, s, capture)

	return capture.Err()
}

// supervise waits for natural completion, the requested-duration deadline,
// or the cooperative stop signal, whichever comes first. On stop or deadline
// the capture device is halted explicitly rather than left to run out.
func (m *Manager) supervise(ctx context.Context, s *Session, capture audio.Capture) {
	deadline := time.NewTimer(time.Duration(s.Duration) * time.Second)
	defer deadline.Stop()

	select {
	case <-capture.Done():
	case <-ctx.Done():
		slog.Info("Stop signal observed, halting capture", "session", s.ID)
		if err := capture.Stop(); err != nil {
			slog.Warn("Capture stop reported an error", "session", s.ID, "error", err)
		}
	case <-deadline.C:
		slog.Debug("Requested duration elapsed, halting capture", "session", s.ID)
		if err := capture.Stop(); err != nil {
			slog.Warn("Capture stop reported an error", "session", s.ID, "error", err)
		}
	}
}

// finalize writes all terminal fields in one lock acquisition, then clears
// the slot in a separate, final acquisition so a concurrent Current sees
// either the pre-finalization state or the fully finalized one.
func (m *Manager) finalize(s *Session, outputBase string, failure error) {
	expected := artifact.ExpectedFiles(outputBase)
	verified := artifact.Verify(expected)

	m.mu.Lock()
	now := time.Now()

	switch {
	case failure != nil:
		s.Status = StatusError
		s.Error = failure.Error()
	case s.Status == StatusStopped:
		// Explicit stop already recorded by RequestStop.
	default:
		s.Status = StatusCompleted
	}

	if s.EndTime == nil {
		s.EndTime = &now
	}
	if s.StartTime != nil {
		s.ActualDuration = s.EndTime.Sub(*s.StartTime).Seconds()
	} else {
		s.ActualDuration = float64(s.Duration)
	}

	if s.Status != StatusError {
		if len(verified) < len(expected) {
			for _, path := range expected {
				found := false
				for _, f := range verified {
					if f.Path == path {
						found = true
						break
					}
				}
				if !found {
					slog.Warn("Expected recording file missing", "session", s.ID, "file", path)
				}
			}
		}
		s.Files = verified
	}

	snap := s.snapshot()
	m.mu.Unlock()

	if failure != nil {
		slog.Error("Recording failed", "session", s.ID, "error", failure)
	} else {
		slog.Info("Recording finished",
			"session", s.ID,
			"status", snap.Status,
			"actual_duration", snap.ActualDuration,
			"files", len(snap.Files))
	}

	// Clearing the slot is the very last state change: the next Admit
	// cannot race a worker still writing terminal fields.
	m.mu.Lock()
	if m.current == s {
		m.current = nil
		m.cancel = nil
	}
	m.mu.Unlock()

	if m.onComplete != nil {
		m.onComplete(snap)
	}
}
