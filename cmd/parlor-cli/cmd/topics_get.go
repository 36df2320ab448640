package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/parlor/cmd/parlor-cli/internal/topics"
)

var getOutputFormat string

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Show the scope, module, description, pattern, example and metadata of a
registered topic.

Examples:
  parlor-cli topics get ws.broadcast
  parlor-cli topics get ws.client.ready --format json`,
	Args: cobra.ExactArgs(1),
	RunE: topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) error {
	manager, err := topics.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize topics: %w", err)
	}

	topic, found := manager.Get(args[0])
	if !found {
		return fmt.Errorf("topic '%s' not found, use 'parlor-cli topics list' to see all topics", args[0])
	}
	return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
