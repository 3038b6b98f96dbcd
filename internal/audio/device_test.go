package audio

import (
	"errors"
	"testing"
)

const arecordOutput = `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC892 Analog [ALC892 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 1: Rubix44 [Rubix44], device 0: USB Audio [USB Audio]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
`

func TestParseALSADevices(t *testing.T) {
	devices := parseALSADevices(arecordOutput, "input")
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}

	rubix := devices[1]
	if rubix.Card != 1 || rubix.Device != 0 {
		t.Errorf("unexpected card/device: %d/%d", rubix.Card, rubix.Device)
	}
	if rubix.Name != "Rubix44" {
		t.Errorf("unexpected name: %s", rubix.Name)
	}
	if rubix.ALSAID() != "hw:1,0" {
		t.Errorf("unexpected ALSA id: %s", rubix.ALSAID())
	}
	if rubix.Kind != "input" {
		t.Errorf("unexpected kind: %s", rubix.Kind)
	}
}

func TestParseALSADevicesEmptyOutput(t *testing.T) {
	if got := parseALSADevices("**** List of CAPTURE Hardware Devices ****\n", "input"); len(got) != 0 {
		t.Errorf("expected no devices, got %d", len(got))
	}
}

func TestFindDeviceByKeyword(t *testing.T) {
	devices := parseALSADevices(arecordOutput, "input")

	dev, err := FindDevice(devices, "rubix")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if dev.Name != "Rubix44" {
		t.Errorf("expected Rubix44, got %s", dev.Name)
	}

	// Case-insensitive match on the description too.
	dev, err = FindDevice(devices, "hda intel")
	if err != nil {
		t.Fatalf("description lookup failed: %v", err)
	}
	if dev.Card != 0 {
		t.Errorf("expected card 0, got %d", dev.Card)
	}

	if _, err := FindDevice(devices, "focusrite"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestInterruptedExitNilError(t *testing.T) {
	if interruptedExit(nil) {
		t.Error("nil error is not an interrupted exit")
	}
	if interruptedExit(errors.New("plain")) {
		t.Error("non-exec errors are not interrupted exits")
	}
}
