package audio

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrDeviceNotFound is returned when no hardware endpoint matches the
// configured device keyword.
var ErrDeviceNotFound = errors.New("audio device not found")

// Device is one ALSA hardware endpoint.
type Device struct {
	Card        int    `json:"card"`
	Device      int    `json:"device"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"` // "input" or "output"
}

// ALSAID returns the hw:card,device identifier ffmpeg consumes.
func (d Device) ALSAID() string {
	return fmt.Sprintf("hw:%d,%d", d.Card, d.Device)
}

// card 1: Rubix44 [Rubix44], device 0: USB Audio [USB Audio]
var alsaDeviceRe = regexp.MustCompile(`^card (\d+): (\S+) \[([^\]]+)\], device (\d+): ([^\[]+)\[`)

// parseALSADevices extracts device entries from `arecord -l` / `aplay -l`
// output.
func parseALSADevices(output, kind string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		m := alsaDeviceRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		card, _ := strconv.Atoi(m[1])
		dev, _ := strconv.Atoi(m[4])
		devices = append(devices, Device{
			Card:        card,
			Device:      dev,
			Name:        m[2],
			Description: strings.TrimSpace(m[3]),
			Kind:        kind,
		})
	}
	return devices
}

// FindDevice returns the first device whose name or description contains the
// keyword, case-insensitively.
func FindDevice(devices []Device, keyword string) (Device, error) {
	needle := strings.ToLower(keyword)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Description), needle) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: no device matching %q", ErrDeviceNotFound, keyword)
}

// ListInputDevices enumerates capture endpoints via arecord.
func ListInputDevices() ([]Device, error) {
	out, err := exec.Command("arecord", "-l").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	return parseALSADevices(string(out), "input"), nil
}

// ListOutputDevices enumerates playback endpoints via aplay.
func ListOutputDevices() ([]Device, error) {
	out, err := exec.Command("aplay", "-l").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}
	return parseALSADevices(string(out), "output"), nil
}
