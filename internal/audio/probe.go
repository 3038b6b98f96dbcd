package audio

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeInfo is the audio metadata of a playback file.
type ProbeInfo struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
}

// Probe extracts stream metadata from an audio file using ffprobe.
func Probe(path string) (*ProbeInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probeResult struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	info := &ProbeInfo{}
	info.DurationSeconds, _ = strconv.ParseFloat(probeResult.Format.Duration, 64)

	for _, stream := range probeResult.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		info.Channels = stream.Channels
		info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
		break
	}

	if info.Channels == 0 {
		return nil, fmt.Errorf("no audio stream found in %s", path)
	}

	return info, nil
}
