package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/nfrund/parlor/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Scope       string                 `json:"scope"`
	Module      string                 `json:"module"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func newTopicDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		Pattern:     topic.Pattern(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// DisplayTopicsTable writes topics as an aligned table.
func DisplayTopicsTable(out io.Writer, topics []topicmgr.Topic) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tSCOPE\tMODULE\tDESCRIPTION\tEXAMPLE")
	fmt.Fprintln(w, "----\t-----\t------\t-----------\t-------")

	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Scope(),
			module,
			truncateString(topic.Description(), 40),
			truncateString(topic.Example(), 30))
	}
}

// DisplayTopicsJSON writes topics with a count as indented JSON.
func DisplayTopicsJSON(out io.Writer, topics []topicmgr.Topic) error {
	displays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		displays[i] = newTopicDisplay(topic)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{Topics: displays, Count: len(displays)})
}

// DisplayTopicDetails writes a single topic in "table" or "json" format.
func DisplayTopicDetails(out io.Writer, topic topicmgr.Topic, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(newTopicDisplay(topic))
	case "table", "":
	default:
		return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", format)
	}

	fmt.Fprintf(out, "Name:        %s\n", topic.Name())
	fmt.Fprintf(out, "Scope:       %s\n", topic.Scope())
	fmt.Fprintf(out, "Module:      %s\n", topic.Module())
	fmt.Fprintf(out, "Description: %s\n", topic.Description())
	fmt.Fprintf(out, "Pattern:     %s\n", topic.Pattern())
	fmt.Fprintf(out, "Example:     %s\n", topic.Example())

	metadata := topic.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(out, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %v\n", k, metadata[k])
		}
	}
	return nil
}

// DisplayValidationResult writes the outcome of validating topic.
func DisplayValidationResult(out io.Writer, topic topicmgr.Topic, nameErr, defErr error) {
	if nameErr != nil {
		fmt.Fprintf(out, "❌ Topic name validation failed: %v\n", nameErr)
		fmt.Fprintln(out, "Topic names are lowercase dot-separated words, e.g. ws.client.inbound")
		return
	}
	if defErr != nil {
		fmt.Fprintf(out, "❌ Topic validation failed: %v\n", defErr)
		return
	}

	fmt.Fprintf(out, "✅ Topic '%s' is valid\n", topic.Name())
	fmt.Fprintf(out, "   Scope: %s\n", topic.Scope())
	if topic.Module() != "" {
		fmt.Fprintf(out, "   Module: %s\n", topic.Module())
	} else {
		fmt.Fprintln(out, "   Module: (framework)")
	}
	fmt.Fprintf(out, "   Description: %s\n", topic.Description())
	fmt.Fprintf(out, "   Pattern: %s\n", topic.Pattern())
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
