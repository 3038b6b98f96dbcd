package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/artifact"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past recordings found in the recordings directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := artifact.ScanHistory(cfg.RecordingsDirectory, cfg.SampleRate)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("No recordings found")
			return nil
		}

		for _, g := range groups {
			fmt.Printf("%s  %s  ~%.0fs  %d file(s)\n",
				g.ID, g.Timestamp, g.DurationSeconds, len(g.Files))
			for _, f := range g.Files {
				fmt.Printf("    %s (%d bytes)\n", f.Name, f.Size)
			}
		}
		return nil
	},
}
