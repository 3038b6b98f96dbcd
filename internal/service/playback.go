package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/audiolibrelab/loopcapture/internal/audio"
)

// selectionFile is the sidecar document kept next to the playback files.
const selectionFile = "conf.yaml"

// PlaybackFile is one reference file available for looping during capture.
type PlaybackFile struct {
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	Modified        time.Time `json:"modified"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	SampleRate      int       `json:"sample_rate,omitempty"`
	Channels        int       `json:"channels,omitempty"`
	Selected        bool      `json:"selected"`
}

// playbackSelection is the on-disk sidecar format.
type playbackSelection struct {
	SelectedPlayback string    `yaml:"selected_playback"`
	LastUpdated      time.Time `yaml:"last_updated"`
}

// PlaybackLibrary manages the playback directory and the selected-file
// sidecar. The probe function is swappable for tests.
type PlaybackLibrary struct {
	dir   string
	probe func(string) (*audio.ProbeInfo, error)

	mu sync.RWMutex
}

func NewPlaybackLibrary(dir string) *PlaybackLibrary {
	return &PlaybackLibrary{dir: dir, probe: audio.Probe}
}

// List returns the wav files in the playback directory, newest first, with
// probe metadata where probing succeeds.
func (l *PlaybackLibrary) List() ([]PlaybackFile, error) {
	selected, _ := l.Selected()

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PlaybackFile{}, nil
		}
		return nil, fmt.Errorf("failed to read playback directory: %w", err)
	}

	files := []PlaybackFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".wav") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		f := PlaybackFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Selected: entry.Name() == selected,
		}
		if probe, err := l.probe(filepath.Join(l.dir, entry.Name())); err == nil {
			f.DurationSeconds = probe.DurationSeconds
			f.SampleRate = probe.SampleRate
			f.Channels = probe.Channels
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	return files, nil
}

// Selected returns the currently selected playback file name, or empty when
// no selection has been made.
func (l *PlaybackLibrary) Selected() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(l.dir, selectionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read playback selection: %w", err)
	}

	var sel playbackSelection
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return "", fmt.Errorf("failed to parse playback selection: %w", err)
	}
	return sel.SelectedPlayback, nil
}

// Select records name as the selected playback file. The file must exist in
// the playback directory.
func (l *PlaybackLibrary) Select(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid playback file name: %q", name)
	}
	if _, err := os.Stat(filepath.Join(l.dir, name)); err != nil {
		return fmt.Errorf("playback file not found: %s", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := yaml.Marshal(playbackSelection{
		SelectedPlayback: name,
		LastUpdated:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode playback selection: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, selectionFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write playback selection: %w", err)
	}
	return nil
}
