package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpectedFiles(t *testing.T) {
	paths := ExpectedFiles("/recordings/take_2026-08-27_10-00-00")
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d", len(paths))
	}
	want := []string{
		"/recordings/take_2026-08-27_10-00-00_stereo.wav",
		"/recordings/take_2026-08-27_10-00-00_ch1.wav",
		"/recordings/take_2026-08-27_10-00-00_ch2.wav",
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("path %d: got %s, want %s", i, p, want[i])
		}
	}
}

func TestVerifyOmitsMissingFiles(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "take_stereo.wav")
	if err := os.WriteFile(existing, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	paths := []string{
		filepath.Join(dir, "missing_ch1.wav"),
		existing,
		filepath.Join(dir, "missing_ch2.wav"),
	}

	verified := Verify(paths)
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified file, got %d", len(verified))
	}
	if verified[0].Name != "take_stereo.wav" {
		t.Errorf("unexpected name: %s", verified[0].Name)
	}
	if verified[0].Size != 10 {
		t.Errorf("expected size 10, got %d", verified[0].Size)
	}
}

func TestVerifyPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"c.wav", "a.wav", "b.wav"}
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		paths = append(paths, p)
	}

	verified := Verify(paths)
	if len(verified) != 3 {
		t.Fatalf("expected 3 files, got %d", len(verified))
	}
	for i, n := range names {
		if verified[i].Name != n {
			t.Errorf("position %d: got %s, want %s", i, verified[i].Name, n)
		}
	}
}

func TestVerifyEmptyInput(t *testing.T) {
	if got := Verify(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d entries", len(got))
	}
}
