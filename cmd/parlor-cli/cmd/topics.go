package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd groups the topic inspection subcommands.
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the bus topics used by the chat relay",
	Long: `The topics command lists, describes and validates the topics the WebSocket
bridge and chat relay exchange messages on.

Examples:
  parlor-cli topics list
  parlor-cli topics list --scope=framework --format=json
  parlor-cli topics get ws.client.inbound
  parlor-cli topics validate ws.broadcast`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
