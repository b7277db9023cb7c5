// Package cmd wires the gorendir CLI.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gorendir",
	Short: "Batch YouTube downloader with subtitle reconciliation",
	Long: `gorendir downloads YouTube videos and playlists into numbered folders
and reconciles subtitle tracks against a target language list, translating
through YouTube's served translations where no native track exists.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("quiet", false, "only log warnings and errors to the console")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
