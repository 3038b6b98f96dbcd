package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/loopcapture/internal/config"
	"github.com/audiolibrelab/loopcapture/internal/logging"
)

var (
	cfg     *config.Config
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "loopcapture",
	Short: "Remote-controlled reference-playback recorder",
	Long: `Loopcapture loops a reference playback file over the audio interface
while capturing the interface inputs to stereo and per-channel wav files.

Recording can be driven from the command line or remotely through the
HTTP control API started with 'loopcapture serve'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetupConsole(verbose)

		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Debug = true
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/loopcapture.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
}
