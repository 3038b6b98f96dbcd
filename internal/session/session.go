// Package session owns the single recording slot: admission control, the
// Session record, and the background worker that drives one capture to a
// terminal state.
package session

import (
	"time"

	"github.com/audiolibrelab/loopcapture/internal/artifact"
)

// Status is the lifecycle state of a recording session.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRecording   Status = "recording"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusStopped     Status = "stopped"
)

// Terminal reports whether a session in this status will never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusStopped:
		return true
	}
	return false
}

// Session is one attempted or completed recording. All fields are guarded by
// the owning Manager's mutex; callers only ever see Snapshot copies.
type Session struct {
	ID             string
	HumanID        string
	PlaybackSource string // resolved path played during capture
	PlaybackFile   string // base name, for display
	Status         Status
	StartTime      *time.Time
	EndTime        *time.Time
	Duration       int // requested seconds
	ActualDuration float64
	SampleRate     int
	Channels       int
	OutputPrefix   string
	Files          []artifact.FileInfo
	Error          string
}

// Snapshot is an immutable copy of a Session handed to callers.
type Snapshot struct {
	ID             string              `json:"id"`
	HumanID        string              `json:"human_id"`
	PlaybackFile   string              `json:"playback_file"`
	Status         Status              `json:"status"`
	StartTime      *time.Time          `json:"start_time"`
	EndTime        *time.Time          `json:"end_time"`
	Duration       int                 `json:"duration"`
	ActualDuration float64             `json:"actual_duration"`
	SampleRate     int                 `json:"sample_rate"`
	Channels       int                 `json:"channels"`
	OutputPrefix   string              `json:"output_prefix"`
	Files          []artifact.FileInfo `json:"files"`
	Error          string              `json:"error,omitempty"`

	// Progress fields, populated only while recording.
	ElapsedSeconds   float64 `json:"elapsed_seconds,omitempty"`
	ExpectedDuration int     `json:"expected_duration,omitempty"`
	ProgressPercent  float64 `json:"progress_percent,omitempty"`
}

// snapshot deep-copies the session. The caller must hold the manager mutex.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:             s.ID,
		HumanID:        s.HumanID,
		PlaybackFile:   s.PlaybackFile,
		Status:         s.Status,
		Duration:       s.Duration,
		ActualDuration: s.ActualDuration,
		SampleRate:     s.SampleRate,
		Channels:       s.Channels,
		OutputPrefix:   s.OutputPrefix,
		Error:          s.Error,
	}

	if s.StartTime != nil {
		t := *s.StartTime
		snap.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		snap.EndTime = &t
	}

	snap.Files = make([]artifact.FileInfo, len(s.Files))
	copy(snap.Files, s.Files)

	if s.Status == StatusRecording && s.StartTime != nil {
		snap.ElapsedSeconds = time.Since(*s.StartTime).Seconds()
		snap.ExpectedDuration = s.Duration
		if s.Duration > 0 {
			snap.ProgressPercent = snap.ElapsedSeconds / float64(s.Duration) * 100
		}
	}

	return snap
}
