package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := logging.ListLogFiles(cfg.Log.Directory)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No log files found")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%-24s %10d bytes  %s\n", f.Name, f.Size, f.Modified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var logsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete log files older than the cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		result, err := logging.PurgeOlderThan(cfg.Log.Directory, days)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d file(s), %d bytes\n", result.DeletedCount, result.TotalBytes)
		return nil
	},
}

func init() {
	logsPurgeCmd.Flags().Int("days", 7, "delete files older than this many days")
	logsCmd.AddCommand(logsPurgeCmd)
}
