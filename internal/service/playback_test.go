package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/audiolibrelab/loopcapture/internal/audio"
)

func testLibrary(t *testing.T) (*PlaybackLibrary, string) {
	t.Helper()
	dir := t.TempDir()
	lib := NewPlaybackLibrary(dir)
	lib.probe = func(path string) (*audio.ProbeInfo, error) {
		return &audio.ProbeInfo{DurationSeconds: 12.5, SampleRate: 44100, Channels: 2}, nil
	}
	return lib, dir
}

func TestPlaybackLibraryList(t *testing.T) {
	lib, dir := testLibrary(t)

	for _, name := range []string{"groove.wav", "ballad.WAV"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("wav"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	files, err := lib.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 wav files, got %d", len(files))
	}
	for _, f := range files {
		if f.SampleRate != 44100 || f.DurationSeconds != 12.5 {
			t.Errorf("probe metadata missing for %s: %+v", f.Name, f)
		}
	}
}

func TestPlaybackLibraryEmptyDirectory(t *testing.T) {
	lib := NewPlaybackLibrary(filepath.Join(t.TempDir(), "nope"))
	files, err := lib.List()
	if err != nil {
		t.Fatalf("missing dir must not error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty listing, got %d", len(files))
	}
}

func TestPlaybackSelectionRoundTrip(t *testing.T) {
	lib, dir := testLibrary(t)

	if err := os.WriteFile(filepath.Join(dir, "groove.wav"), []byte("wav"), 0644); err != nil {
		t.Fatalf("write playback: %v", err)
	}

	selected, err := lib.Selected()
	if err != nil {
		t.Fatalf("selected failed: %v", err)
	}
	if selected != "" {
		t.Errorf("expected no selection initially, got %q", selected)
	}

	if err := lib.Select("groove.wav"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	selected, err = lib.Selected()
	if err != nil {
		t.Fatalf("selected failed: %v", err)
	}
	if selected != "groove.wav" {
		t.Errorf("expected groove.wav, got %q", selected)
	}

	files, err := lib.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !files[0].Selected {
		t.Error("listing must mark the selected file")
	}
}

func TestPlaybackSelectRejectsInvalid(t *testing.T) {
	lib, _ := testLibrary(t)

	if err := lib.Select("missing.wav"); err == nil {
		t.Error("expected error for unknown file")
	}
	if err := lib.Select("../escape.wav"); err == nil {
		t.Error("expected error for traversal name")
	}
	if err := lib.Select(""); err == nil {
		t.Error("expected error for empty name")
	}
}
