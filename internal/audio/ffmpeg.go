package audio

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// FFmpegEngine drives capture and playback through ffmpeg subprocesses
// against ALSA endpoints.
type FFmpegEngine struct {
	DeviceKeyword string
	InputDevice   string // optional explicit ALSA id
	OutputDevice  string
}

// NewFFmpegEngine creates the production engine. Explicit device ids take
// priority over keyword lookup.
func NewFFmpegEngine(keyword, inputDevice, outputDevice string) *FFmpegEngine {
	return &FFmpegEngine{
		DeviceKeyword: keyword,
		InputDevice:   inputDevice,
		OutputDevice:  outputDevice,
	}
}

// ResolveDevices finds the capture and playback endpoints, preferring
// explicitly configured ids.
func (e *FFmpegEngine) ResolveDevices() (string, string, error) {
	input := e.InputDevice
	if input == "" {
		devices, err := ListInputDevices()
		if err != nil {
			return "", "", err
		}
		dev, err := FindDevice(devices, e.DeviceKeyword)
		if err != nil {
			return "", "", err
		}
		input = dev.ALSAID()
	}

	output := e.OutputDevice
	if output == "" {
		devices, err := ListOutputDevices()
		if err != nil {
			return "", "", err
		}
		dev, err := FindDevice(devices, e.DeviceKeyword)
		if err != nil {
			return "", "", err
		}
		output = dev.ALSAID()
	}

	return input, output, nil
}

// Probe reads playback file metadata via ffprobe.
func (e *FFmpegEngine) Probe(path string) (*ProbeInfo, error) {
	return Probe(path)
}

// Start launches the playback process and the capture process. Playback
// loops the reference file and is truncated to the requested duration; mono
// sources are upmixed to two channels. Capture writes the combined stereo
// file plus one file per channel in a single ffmpeg invocation.
func (e *FFmpegEngine) Start(req CaptureRequest) (Capture, error) {
	playbackArgs := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-stream_loop", "-1",
		"-i", req.PlaybackPath,
		"-t", fmt.Sprintf("%d", req.Duration),
		"-ac", "2",
		"-f", "alsa", req.OutputDevice,
	}

	captureArgs := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "alsa",
		"-ac", "2",
		"-ar", fmt.Sprintf("%d", req.SampleRate),
		"-i", req.InputDevice,
		"-t", fmt.Sprintf("%d", req.Duration),
		"-filter_complex", "[0:a]asplit=2[full][split];[split]channelsplit=channel_layout=stereo[left][right]",
		"-map", "[full]", "-y", req.OutputBase + "_stereo.wav",
		"-map", "[left]", "-y", req.OutputBase + "_ch1.wav",
		"-map", "[right]", "-y", req.OutputBase + "_ch2.wav",
	}

	slog.Debug("Starting capture transport",
		"playback", strings.Join(playbackArgs, " "),
		"capture", strings.Join(captureArgs, " "))

	c := &ffmpegCapture{done: make(chan struct{})}

	c.playbackCmd = exec.Command("ffmpeg", playbackArgs...)
	c.playbackCmd.Stderr = &c.playbackErr
	if err := c.playbackCmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}

	c.captureCmd = exec.Command("ffmpeg", captureArgs...)
	c.captureCmd.Stderr = &c.captureErr
	if err := c.captureCmd.Start(); err != nil {
		c.stopProcess(c.playbackCmd)
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	go c.wait()

	return c, nil
}

// ffmpegCapture owns the pair of subprocesses for one recording.
type ffmpegCapture struct {
	playbackCmd *exec.Cmd
	captureCmd  *exec.Cmd
	playbackErr strings.Builder
	captureErr  strings.Builder

	mu   sync.Mutex
	err  error
	done chan struct{}
}

func (c *ffmpegCapture) wait() {
	err := c.captureCmd.Wait()

	c.mu.Lock()
	if err != nil && !interruptedExit(err) && c.err == nil {
		c.err = fmt.Errorf("capture process failed: %w (%s)", err, strings.TrimSpace(c.captureErr.String()))
	}
	c.mu.Unlock()

	// The playback process is tied to the capture lifetime.
	c.stopProcess(c.playbackCmd)
	close(c.done)
}

// Done is closed once the capture process has exited.
func (c *ffmpegCapture) Done() <-chan struct{} {
	return c.done
}

// Err reports a capture transport failure, if any.
func (c *ffmpegCapture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stop halts the capture explicitly: SIGINT so ffmpeg finalizes the wav
// headers, escalating to SIGKILL after a bounded wait.
func (c *ffmpegCapture) Stop() error {
	if c.captureCmd.Process != nil {
		if err := c.captureCmd.Process.Signal(os.Interrupt); err != nil {
			slog.Debug("Failed to interrupt capture process, killing", "error", err)
			c.captureCmd.Process.Kill()
		}
	}

	select {
	case <-c.done:
		return nil
	case <-time.After(5 * time.Second):
		slog.Warn("Capture process did not exit after interrupt, force killing")
		if c.captureCmd.Process != nil {
			c.captureCmd.Process.Kill()
		}
		<-c.done
		return nil
	}
}

// stopProcess interrupts then kills a subprocess, absorbing errors.
func (c *ffmpegCapture) stopProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		cmd.Process.Kill()
	}
	go cmd.Wait()
}

// interruptedExit reports whether an exit error is the normal outcome of an
// interrupt signal rather than a transport failure.
func interruptedExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	if exitErr.ExitCode() == 255 {
		return true
	}
	if exitErr.ProcessState != nil {
		state := exitErr.ProcessState.String()
		return state == "signal: interrupt" || state == "signal: killed"
	}
	return false
}
