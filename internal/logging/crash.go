package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const trackerFile = ".crash_tracker.json"

// CrashRecord captures one detected unclean shutdown.
type CrashRecord struct {
	DetectedAt string `json:"detected_at"`
	LastStart  string `json:"last_start"`
	Type       string `json:"type"`
}

// trackerState is the persisted crash tracker document.
type trackerState struct {
	Running        bool          `json:"running"`
	LastStart      string        `json:"last_start,omitempty"`
	LastShutdown   string        `json:"last_shutdown,omitempty"`
	CleanShutdowns int           `json:"clean_shutdowns"`
	Crashes        []CrashRecord `json:"crashes"`
}

// Tracker records whether the process shut down cleanly last time. The state
// survives restarts on disk; a load that finds running=true means the prior
// instance died without clearing the flag.
type Tracker struct {
	path      string
	mu        sync.Mutex
	state     trackerState
	startTime time.Time
}

// NewTracker creates a crash tracker persisting under logDir.
func NewTracker(logDir string) *Tracker {
	return &Tracker{path: filepath.Join(logDir, trackerFile)}
}

// Startup loads the persisted state, records a crash if the previous
// instance never shut down cleanly, marks this instance as running, and
// persists. Returns whether a crash was detected.
func (t *Tracker) Startup() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = time.Now()
	t.load()

	wasCrashed := t.state.Running
	if wasCrashed {
		t.state.Crashes = append(t.state.Crashes, CrashRecord{
			DetectedAt: t.startTime.Format(time.RFC3339),
			LastStart:  t.state.LastStart,
			Type:       "unexpected_shutdown",
		})
		slog.Warn("Previous instance did not shut down cleanly",
			"last_start", t.state.LastStart,
			"total_crashes", len(t.state.Crashes))
	}

	t.state.Running = true
	t.state.LastStart = t.startTime.Format(time.RFC3339)
	t.persist()

	return wasCrashed
}

// CleanShutdown marks this instance as cleanly stopped and persists.
func (t *Tracker) CleanShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Running = false
	t.state.CleanShutdowns++
	t.state.LastShutdown = time.Now().Format(time.RFC3339)
	t.persist()
}

// UptimeSummary reports crash and uptime statistics for monitoring callers.
type UptimeSummary struct {
	UptimeSeconds  float64       `json:"current_uptime_seconds"`
	UptimeHuman    string        `json:"current_uptime_human"`
	StartTime      string        `json:"start_time"`
	TotalCrashes   int           `json:"total_crashes"`
	CleanShutdowns int           `json:"clean_shutdowns"`
	RecentCrashes  []CrashRecord `json:"recent_crashes"`
	Running        bool          `json:"running"`
}

// History returns the current uptime and crash statistics.
func (t *Tracker) History() UptimeSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	uptime := time.Since(t.startTime).Seconds()

	recent := t.state.Crashes
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	recentCopy := make([]CrashRecord, len(recent))
	copy(recentCopy, recent)

	return UptimeSummary{
		UptimeSeconds:  uptime,
		UptimeHuman:    formatDuration(uptime),
		StartTime:      t.startTime.Format(time.RFC3339),
		TotalCrashes:   len(t.state.Crashes),
		CleanShutdowns: t.state.CleanShutdowns,
		RecentCrashes:  recentCopy,
		Running:        t.state.Running,
	}
}

func (t *Tracker) load() {
	data, err := os.ReadFile(t.path)
	if err != nil {
		t.state = trackerState{}
		return
	}
	if err := json.Unmarshal(data, &t.state); err != nil {
		slog.Warn("Crash tracker state unreadable, starting fresh", "path", t.path, "error", err)
		t.state = trackerState{}
	}
}

// persist writes the state to disk. Failures are logged and otherwise
// absorbed: the in-memory state stays authoritative for this process.
func (t *Tracker) persist() {
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		slog.Error("Failed to encode crash tracker state", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		slog.Error("Failed to create crash tracker directory", "error", err)
		return
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		slog.Error("Failed to save crash tracker state", "path", t.path, "error", err)
	}
}

// formatDuration renders seconds as "1d 2h 3m 4s", dropping zero parts.
func formatDuration(seconds float64) string {
	total := int(seconds)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	out := ""
	if days > 0 {
		out += fmt.Sprintf("%dd ", days)
	}
	if hours > 0 {
		out += fmt.Sprintf("%dh ", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dm ", minutes)
	}
	if secs > 0 || out == "" {
		out += fmt.Sprintf("%ds", secs)
	}
	return strings.TrimRight(out, " ")
}
