package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogFileInfo describes one file in the log directory.
type LogFileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// PurgeResult summarizes a purge run.
type PurgeResult struct {
	DeletedCount int      `json:"deleted_count"`
	TotalBytes   int64    `json:"total_bytes"`
	Files        []string `json:"files"`
}

// ListLogFiles returns metadata for every log file in dir, newest first.
// Hidden files (the crash tracker among them) are skipped.
func ListLogFiles(dir string) ([]LogFileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogFileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var files []LogFileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !strings.Contains(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFileInfo{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	return files, nil
}

// ReadLog returns up to lineCount lines from the end of the named log file,
// skipping offset lines from the end. The name must be a bare filename.
func ReadLog(dir, name string, lineCount, offset int) ([]string, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid log file name: %s", name)
	}
	if lineCount <= 0 {
		lineCount = 100
	}
	if offset < 0 {
		offset = 0
	}

	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("log file not found: %s", name)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file %s: %w", name, err)
	}

	end := len(lines) - offset
	if end < 0 {
		end = 0
	}
	start := end - lineCount
	if start < 0 {
		start = 0
	}

	return lines[start:end], nil
}

// PurgeOlderThan deletes log files whose modification time precedes the
// cutoff. An empty or missing directory yields an empty result, not an error.
func PurgeOlderThan(dir string, days int) (*PurgeResult, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result := &PurgeResult{Files: []string{}}

	files, err := ListLogFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if !f.Modified.Before(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			continue
		}
		result.DeletedCount++
		result.TotalBytes += f.Size
		result.Files = append(result.Files, f.Name)
	}

	return result, nil
}
