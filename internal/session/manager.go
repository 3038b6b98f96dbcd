package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/audiolibrelab/loopcapture/internal/audio"
)

var (
	// ErrAdmissionConflict is returned when the recording slot is occupied.
	ErrAdmissionConflict = errors.New("recording already in progress")

	// ErrNoActiveSession is returned when a stop is requested with nothing
	// recording.
	ErrNoActiveSession = errors.New("no active recording session")

	// ErrPlaybackNotFound is returned when the playback source cannot be
	// resolved to an existing file.
	ErrPlaybackNotFound = errors.New("playback file not found")
)

// Request are the caller-supplied parameters of a start operation. Zero
// values default from the manager configuration.
type Request struct {
	PlaybackSource string
	Duration       int
	SampleRate     int
	OutputPrefix   string
}

// Config carries the defaults and directories the manager works with.
type Config struct {
	DefaultDuration     int
	SampleRate          int
	OutputPrefix        string
	PlaybackDirectory   string
	RecordingsDirectory string

	// PollInterval bounds how often Wait re-checks the slot. Zero means
	// 100ms.
	PollInterval time.Duration
}

// Manager owns the single current-session slot. One mutex guards the slot
// and every Session field write; it is held only for short bookkeeping
// transitions, never across capture I/O.
type Manager struct {
	cfg    Config
	engine audio.Engine

	mu      sync.Mutex
	current *Session
	cancel  context.CancelFunc

	onComplete func(Snapshot)
}

// NewManager creates a session manager over the given capture engine.
func NewManager(cfg Config, engine audio.Engine) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Manager{cfg: cfg, engine: engine}
}

// OnComplete registers a hook invoked with the final snapshot after the slot
// has been cleared. Must be set before the first Admit.
func (m *Manager) OnComplete(fn func(Snapshot)) {
	m.onComplete = fn
}

// Admit atomically claims the recording slot for a new session and launches
// its worker. The returned snapshot may still show status "initialized":
// admission returns before the worker necessarily starts.
func (m *Manager) Admit(req Request) (Snapshot, error) {
	resolved, err := m.resolvePlayback(req.PlaybackSource)
	if err != nil {
		return Snapshot{}, err
	}

	s := &Session{
		ID:             time.Now().Format("20060102_150405"),
		HumanID:        generateHumanID(),
		PlaybackSource: resolved,
		PlaybackFile:   filepath.Base(resolved),
		Status:         StatusInitialized,
		Duration:       req.Duration,
		SampleRate:     req.SampleRate,
		Channels:       2,
		OutputPrefix:   req.OutputPrefix,
	}
	if s.Duration <= 0 {
		s.Duration = m.cfg.DefaultDuration
	}
	if s.SampleRate <= 0 {
		s.SampleRate = m.cfg.SampleRate
	}
	if s.OutputPrefix == "" {
		s.OutputPrefix = m.cfg.OutputPrefix
	}

	m.mu.Lock()
	// The slot stays occupied until the worker's final clear, even after the
	// session turns terminal, so a finalizing worker can never clobber a
	// freshly admitted session.
	if m.current != nil {
		m.mu.Unlock()
		return Snapshot{}, ErrAdmissionConflict
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.current = s
	m.cancel = cancel
	snap := s.snapshot()
	m.mu.Unlock()

	go m.runWorker(ctx, s)

	return snap, nil
}

// Current returns an immutable copy of the slot contents. It never blocks on
// the worker.
func (m *Manager) Current() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Snapshot{}, false
	}
	return m.current.snapshot(), true
}

// RequestStop delivers the cooperative stop signal to the active worker and
// returns without waiting for it to finish. The session is marked stopped
// immediately so the caller's snapshot reflects the decision; the worker
// keeps that status when it finalizes.
func (m *Manager) RequestStop() (Snapshot, error) {
	m.mu.Lock()

	if m.current == nil || m.current.Status != StatusRecording {
		m.mu.Unlock()
		return Snapshot{}, ErrNoActiveSession
	}

	s := m.current
	now := time.Now()
	s.Status = StatusStopped
	s.EndTime = &now
	if s.StartTime != nil {
		s.ActualDuration = now.Sub(*s.StartTime).Seconds()
	}
	cancel := m.cancel
	snap := s.snapshot()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	return snap, nil
}

// Wait blocks until the slot is clear or the context ends. Used by the
// one-shot CLI recording path.
func (m *Manager) Wait(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, ok := m.Current(); !ok {
				return nil
			}
		}
	}
}

// resolvePlayback resolves a playback source to an existing file, falling
// back to the configured playback directory for relative names.
func (m *Manager) resolvePlayback(source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: no playback source given", ErrPlaybackNotFound)
	}

	if _, err := os.Stat(source); err == nil {
		return source, nil
	}

	candidate := filepath.Join(m.cfg.PlaybackDirectory, source)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %s", ErrPlaybackNotFound, source)
}
