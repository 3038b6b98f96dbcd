package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRecording(t *testing.T, dir, base string, suffixes ...string) {
	t.Helper()
	for _, suffix := range suffixes {
		path := filepath.Join(dir, base+suffix)
		if err := os.WriteFile(path, make([]byte, 176400), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func TestScanHistoryGroupsChannelFiles(t *testing.T) {
	dir := t.TempDir()

	writeRecording(t, dir, "recording_2026-08-26_09-00-00", "_stereo.wav", "_ch1.wav", "_ch2.wav")
	writeRecording(t, dir, "recording_2026-08-27_10-30-00", "_stereo.wav", "_ch1.wav")
	// Files that must not form groups.
	writeRecording(t, dir, "orphan", "_ch1.wav")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	groups, err := ScanHistory(dir, 44100)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// Newest first.
	if groups[0].ID != "recording_2026-08-27_10-30-00" {
		t.Errorf("expected newest group first, got %s", groups[0].ID)
	}
	if groups[0].Prefix != "recording" {
		t.Errorf("unexpected prefix: %s", groups[0].Prefix)
	}
	if groups[0].Timestamp != "2026-08-27_10-30-00" {
		t.Errorf("unexpected timestamp: %s", groups[0].Timestamp)
	}
	if len(groups[0].Files) != 2 {
		t.Errorf("expected 2 files in partial group, got %d", len(groups[0].Files))
	}
	if len(groups[1].Files) != 3 {
		t.Errorf("expected 3 files in full group, got %d", len(groups[1].Files))
	}

	// 176400 bytes at 44100 Hz, 16-bit stereo, is exactly one second.
	if groups[0].DurationSeconds != 1 {
		t.Errorf("expected estimated duration 1s, got %f", groups[0].DurationSeconds)
	}
}

func TestScanHistoryUnderscoredPrefix(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "band_practice_2026-08-27_11-00-00", "_stereo.wav")

	groups, err := ScanHistory(dir, 44100)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Prefix != "band_practice" {
		t.Errorf("expected prefix band_practice, got %s", groups[0].Prefix)
	}
}

func TestScanHistorySkipsMalformedTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "recording_yesterday_sometime", "_stereo.wav")
	writeRecording(t, dir, "short_1_2", "_stereo.wav")

	groups, err := ScanHistory(dir, 44100)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups for malformed names, got %d", len(groups))
	}
}

func TestScanHistoryMissingDirectory(t *testing.T) {
	groups, err := ScanHistory(filepath.Join(t.TempDir(), "nope"), 44100)
	if err != nil {
		t.Fatalf("expected no error for missing dir, got %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected empty result, got %d", len(groups))
	}
}

func TestEstimateDuration(t *testing.T) {
	cases := []struct {
		size int64
		rate int
		want float64
	}{
		{176400, 44100, 1},
		{352800, 44100, 2},
		{0, 44100, 0},
		{176400, 0, 0},
	}
	for _, c := range cases {
		if got := EstimateDuration(c.size, c.rate); got != c.want {
			t.Errorf("EstimateDuration(%d, %d) = %f, want %f", c.size, c.rate, got, c.want)
		}
	}
}
