package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	flagURL    string
	flagUserID string
	flagJSON   bool
	flagDebug  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stepctl",
		Short: "CLI for the StepWright backend",
		Long:  "A command-line interface for managing browser recordings, replays, and generated test code in the StepWright system.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "API server URL (env: STEPWRIGHT_URL)")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user-id", "", "Caller user ID (env: STEPWRIGHT_USER_ID)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stepctl %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRecordingsCmd())
	rootCmd.AddCommand(newStepsCmd())
	rootCmd.AddCommand(newPlaybacksCmd())
	rootCmd.AddCommand(newGenerateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
