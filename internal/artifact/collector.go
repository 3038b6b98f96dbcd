// Package artifact verifies recording output files and reconstructs the
// history of past recordings from the on-disk naming convention.
package artifact

import (
	"os"
	"path/filepath"
	"time"
)

// FileInfo describes one verified recording artifact.
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Suffixes are the expected artifact suffixes for one recording: the
// combined two-channel file plus one file per channel.
var Suffixes = []string{"_stereo.wav", "_ch1.wav", "_ch2.wav"}

// ExpectedFiles derives the three artifact paths from a recording base path
// ({recordingsDirectory}/{prefix}_{timestamp}).
func ExpectedFiles(basePath string) []string {
	paths := make([]string, 0, len(Suffixes))
	for _, suffix := range Suffixes {
		paths = append(paths, basePath+suffix)
	}
	return paths
}

// Verify returns metadata for each candidate path that exists on disk at
// call time, in the candidates' order. Missing files are silently omitted;
// the caller decides whether absence is worth a warning.
func Verify(paths []string) []FileInfo {
	verified := make([]FileInfo, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		verified = append(verified, FileInfo{
			Name:     filepath.Base(path),
			Path:     path,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return verified
}
