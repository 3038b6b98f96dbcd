package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List ALSA capture and playback devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, _ := cmd.Flags().GetString("find")
		if keyword == "" {
			keyword = cfg.DeviceKeyword
		}

		inputs, err := audio.ListInputDevices()
		if err != nil {
			return err
		}
		outputs, err := audio.ListOutputDevices()
		if err != nil {
			return err
		}

		fmt.Println("Capture devices:")
		printDevices(inputs, keyword)
		fmt.Println("Playback devices:")
		printDevices(outputs, keyword)
		return nil
	},
}

func printDevices(devices []audio.Device, keyword string) {
	if len(devices) == 0 {
		fmt.Println("  (none)")
		return
	}
	matched, _ := audio.FindDevice(devices, keyword)
	for _, d := range devices {
		marker := " "
		if d == matched {
			marker = "*"
		}
		fmt.Printf("  %s %-10s %s (%s)\n", marker, d.ALSAID(), d.Name, d.Description)
	}
}

func init() {
	devicesCmd.Flags().String("find", "", "highlight devices matching this keyword (default: configured keyword)")
}
