package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parlor-cli",
	Short: "Parlor CLI tool",
	Long: `Parlor CLI inspects the message bus topics used by the Parlor chat relay.

Use "parlor-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
