package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/parlor/cmd/parlor-cli/internal/topics"
	"github.com/nfrund/parlor/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List every registered topic in table or JSON form.

Examples:
  parlor-cli topics list
  parlor-cli topics list --format json
  parlor-cli topics list --scope framework
  parlor-cli topics list --module chat`,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	manager, err := topics.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize topics: %w", err)
	}

	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		if scope = parseScope(listScopeFilter); scope == "" {
			return fmt.Errorf("invalid scope %q, valid scopes: framework, module", listScopeFilter)
		}
	}

	var topicList []topicmgr.Topic
	for _, topic := range manager.List() {
		if listModuleFilter != "" && topic.Module() != listModuleFilter {
			continue
		}
		if scope != "" && topic.Scope() != scope {
			continue
		}
		topicList = append(topicList, topic)
	}

	out := cmd.OutOrStdout()
	if len(topicList) == 0 {
		var filters []string
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		message := "No topics found"
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Fprintln(out, message)
		return nil
	}

	switch listOutputFormat {
	case "json":
		return topics.DisplayTopicsJSON(out, topicList)
	case "table":
		topics.DisplayTopicsTable(out, topicList)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", listOutputFormat)
	}
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
