package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Group is one past recording reconstructed from files on disk: the stereo
// file names the group, same-base channel files are associated with it.
type Group struct {
	ID              string     `json:"id"`
	Prefix          string     `json:"prefix"`
	Timestamp       string     `json:"timestamp"`
	DurationSeconds float64    `json:"duration_seconds"`
	SampleRate      int        `json:"sample_rate"`
	Files           []FileInfo `json:"files"`
}

// ScanHistory walks the recordings directory looking for the combined-file
// naming pattern ({prefix}_{YYYY-MM-DD_HH-MM-SS}_stereo.wav) and groups the
// matching channel files with it, newest first. The duration is estimated
// from the stereo file size assuming 16-bit stereo samples; it is a display
// heuristic, not an authoritative measurement.
func ScanHistory(dir string, sampleRate int) ([]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Group{}, nil
		}
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	groups := make([]Group, 0)
	for _, name := range names {
		if !strings.HasSuffix(name, "_stereo.wav") {
			continue
		}

		base := strings.TrimSuffix(name, "_stereo.wav")
		prefix, timestamp, ok := splitBaseName(base)
		if !ok {
			continue
		}

		files := Verify(ExpectedFiles(filepath.Join(dir, base)))

		group := Group{
			ID:         base,
			Prefix:     prefix,
			Timestamp:  timestamp,
			SampleRate: sampleRate,
			Files:      files,
		}
		for _, f := range files {
			if strings.HasSuffix(f.Name, "_stereo.wav") {
				group.DurationSeconds = EstimateDuration(f.Size, sampleRate)
				break
			}
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// EstimateDuration approximates a stereo recording's length from its file
// size assuming 16-bit samples (4 bytes per frame).
func EstimateDuration(sizeBytes int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	d := float64(sizeBytes) / float64(2*2*sampleRate)
	if d < 0 {
		return 0
	}
	return d
}

// splitBaseName separates "{prefix}_{YYYY-MM-DD_HH-MM-SS}" into its prefix
// and timestamp parts. The timestamp occupies the last two underscore-joined
// segments.
func splitBaseName(base string) (prefix, timestamp string, ok bool) {
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return "", "", false
	}
	prefix = strings.Join(parts[:len(parts)-2], "_")
	timestamp = parts[len(parts)-2] + "_" + parts[len(parts)-1]
	if len(timestamp) != len("2006-01-02_15-04-05") {
		return "", "", false
	}
	return prefix, timestamp, true
}
