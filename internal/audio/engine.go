// Package audio resolves hardware endpoints and drives the capture and
// playback transports. The production engine shells out to ffmpeg; the
// session layer only sees the Engine and Capture interfaces.
package audio

// CaptureRequest describes one combined playback-while-recording run.
type CaptureRequest struct {
	PlaybackPath string // resolved reference file
	OutputBase   string // {recordings}/{prefix}_{timestamp}, suffixes appended
	Duration     int    // requested seconds
	SampleRate   int
	InputDevice  string // ALSA id, e.g. hw:1,0
	OutputDevice string
}

// Capture is one in-flight recording. Done is closed when the capture
// transport exits on its own; Stop halts it explicitly.
type Capture interface {
	Done() <-chan struct{}
	Stop() error
	Err() error
}

// Engine starts captures and resolves the hardware endpoints they use.
type Engine interface {
	// ResolveDevices returns the ALSA ids for the configured input and
	// output endpoints, or ErrDeviceNotFound.
	ResolveDevices() (input, output string, err error)

	// Probe reads metadata from a playback file.
	Probe(path string) (*ProbeInfo, error)

	// Start launches playback and capture. The returned Capture owns both
	// underlying transports.
	Start(req CaptureRequest) (Capture, error)
}
