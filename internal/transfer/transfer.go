// Package transfer moves recording artifacts to a remote destination through
// interchangeable protocol strategies.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/audiolibrelab/loopcapture/internal/artifact"
)

var (
	// ErrConfigIncomplete is returned when the destination lacks a field the
	// selected protocol requires. Nothing is attempted in that case.
	ErrConfigIncomplete = errors.New("transfer destination configuration incomplete")

	// ErrUnsupportedProtocol is returned for protocol tags no strategy
	// implements.
	ErrUnsupportedProtocol = errors.New("unsupported transfer protocol")

	// ErrNoFiles is returned when a session id matches no local recordings.
	ErrNoFiles = errors.New("no files found for session")
)

// DefaultTimeout bounds a single file transfer.
const DefaultTimeout = 300 * time.Second

// Destination describes where artifacts go.
type Destination struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Protocol   string `json:"protocol"` // scp, sftp, rsync, http
	Username   string `json:"username"`
	RemotePath string `json:"remote_path"`
}

// Options tune one Transfer call.
type Options struct {
	DeleteAfterTransfer bool
	Timeout             time.Duration // per file; zero means DefaultTimeout
}

// Failure records one file that could not be moved.
type Failure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Result aggregates the outcome of one Transfer call. Every input file ends
// up in exactly one of Transferred or Failed.
type Result struct {
	Transferred []string  `json:"transferred"`
	Failed      []Failure `json:"failed"`
	Deleted     []string  `json:"deleted_locally"`
}

// Strategy moves a single local file to the destination.
type Strategy interface {
	Name() string
	Validate(dest Destination) error
	Send(ctx context.Context, localPath string, dest Destination) error
}

// Manager selects a strategy from the destination's protocol tag and runs
// transfers file by file.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) strategyFor(protocol string) (Strategy, error) {
	switch protocol {
	case "scp":
		return &scpStrategy{}, nil
	case "rsync":
		return &rsyncStrategy{}, nil
	case "sftp":
		return &sftpStrategy{}, nil
	case "http":
		return &httpStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, protocol)
}

// Transfer moves files sequentially. The destination is validated before the
// first attempt; after that, a failure on one file is recorded and the loop
// continues. There are no automatic retries.
func (m *Manager) Transfer(ctx context.Context, files []string, dest Destination, opts Options) (*Result, error) {
	strategy, err := m.strategyFor(dest.Protocol)
	if err != nil {
		return nil, err
	}
	if err := strategy.Validate(dest); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	result := &Result{
		Transferred: []string{},
		Failed:      []Failure{},
		Deleted:     []string{},
	}

	for _, file := range files {
		fileCtx, cancel := context.WithTimeout(ctx, timeout)
		err := strategy.Send(fileCtx, file, dest)
		cancel()

		if err != nil {
			slog.Warn("File transfer failed",
				"file", file, "protocol", strategy.Name(), "error", err)
			result.Failed = append(result.Failed, Failure{
				File:   file,
				Reason: err.Error(),
			})
			continue
		}

		slog.Info("File transferred",
			"file", file, "protocol", strategy.Name(), "host", dest.Host)
		result.Transferred = append(result.Transferred, file)
	}

	if opts.DeleteAfterTransfer {
		for _, file := range result.Transferred {
			if err := os.Remove(file); err != nil {
				slog.Warn("Could not delete transferred file", "file", file, "error", err)
				continue
			}
			result.Deleted = append(result.Deleted, file)
		}
	}

	return result, nil
}

// FilesForSession resolves a history-style session key like
// "recording_2026-08-27_14-03-22" to its local channel files.
func FilesForSession(recordingsDir, sessionID string) ([]string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrNoFiles, sessionID)
	}

	expected := artifact.ExpectedFiles(filepath.Join(recordingsDir, sessionID))

	var files []string
	for _, info := range artifact.Verify(expected) {
		files = append(files, info.Path)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, sessionID)
	}
	return files, nil
}

// remoteTarget formats the user@host:path argument shared by the ssh-based
// strategies.
func remoteTarget(dest Destination, localPath string) string {
	remote := filepath.Join(dest.RemotePath, filepath.Base(localPath))
	return fmt.Sprintf("%s@%s:%s", dest.Username, dest.Host, remote)
}

// validateSSH checks the fields every ssh-based strategy needs.
func validateSSH(dest Destination) error {
	switch {
	case dest.Host == "":
		return fmt.Errorf("%w: host is required", ErrConfigIncomplete)
	case dest.Username == "":
		return fmt.Errorf("%w: username is required", ErrConfigIncomplete)
	case dest.RemotePath == "":
		return fmt.Errorf("%w: remote path is required", ErrConfigIncomplete)
	}
	return nil
}
