package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks topic definitions before they enter the catalogue.
type Validator struct {
	namePattern *regexp.Regexp
}

// NewValidator creates a validator for dot separated, lowercase topic names
// such as ws.client.ready.
func NewValidator() *Validator {
	return &Validator{
		namePattern: regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`),
	}
}

// ValidateName reports whether name is a well-formed topic name.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("topic name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("topic name too long (max 100 characters): %d", len(name))
	}
	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("topic name %q must be lowercase segments separated by dots", name)
	}
	return nil
}

// ValidateDefinition validates every field of a topic definition.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	if strings.TrimSpace(topic.Pattern()) == "" {
		return fmt.Errorf("topic pattern cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topic cannot belong to module %q", topic.Module())
		}
	case ScopeModule:
		if topic.Module() == "" {
			return fmt.Errorf("module topic must name its module")
		}
		if !v.namePattern.MatchString(topic.Module()) {
			return fmt.Errorf("invalid module name %q", topic.Module())
		}
	default:
		return fmt.Errorf("invalid topic scope: %q", topic.Scope())
	}
	return nil
}
