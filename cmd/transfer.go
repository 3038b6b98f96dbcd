package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/transfer"
)

var transferCmd = &cobra.Command{
	Use:   "transfer [session-id]",
	Short: "Ship a recording group to the configured remote store",
	Long: `Transfer the files of one recording group to the remote storage
server from the configuration. The session id is the on-disk group key,
e.g. recording_2026-08-27_14-03-22 (see 'loopcapture history').`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleteAfter, _ := cmd.Flags().GetBool("delete")

		files, err := transfer.FilesForSession(cfg.RecordingsDirectory, args[0])
		if err != nil {
			return err
		}

		result, err := transfer.NewManager().Transfer(cmd.Context(), files, transfer.Destination{
			Host:       cfg.Storage.Host,
			Port:       cfg.Storage.Port,
			Protocol:   cfg.Storage.Protocol,
			Username:   cfg.Storage.Username,
			RemotePath: cfg.Storage.RemotePath,
		}, transfer.Options{DeleteAfterTransfer: deleteAfter})
		if err != nil {
			return err
		}

		fmt.Printf("Transferred %d file(s), %d failed\n", len(result.Transferred), len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  FAILED %s: %s\n", f.File, f.Reason)
		}
		for _, f := range result.Deleted {
			fmt.Printf("  deleted %s\n", f)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d transfer(s) failed", len(result.Failed))
		}
		return nil
	},
}

func init() {
	transferCmd.Flags().Bool("delete", false, "delete local files after successful transfer")
}
