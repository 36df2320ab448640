package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/parlor/cmd/parlor-cli/internal/topics"
	"github.com/nfrund/parlor/internal/topicmgr"
)

var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic definition",
	Long: `Check that a topic name is well formed (lowercase, dot separated) and that
the registered definition is complete.

Examples:
  parlor-cli topics validate ws.client.inbound
  parlor-cli topics validate Invalid.Topic`,
	Args: cobra.ExactArgs(1),
	RunE: topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) error {
	manager, err := topics.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize topics: %w", err)
	}

	name := args[0]
	nameErr := manager.ValidateTopicName(name)

	topic, found := manager.Get(name)
	var defErr error
	switch {
	case nameErr != nil:
	case !found:
		defErr = fmt.Errorf("topic '%s' not found", name)
	default:
		defErr = topicmgr.NewValidator().ValidateDefinition(topic)
	}

	topics.DisplayValidationResult(cmd.OutOrStdout(), topic, nameErr, defErr)
	if nameErr != nil {
		return nameErr
	}
	return defErr
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
