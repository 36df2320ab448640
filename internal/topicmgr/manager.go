package topicmgr

import (
	"sort"
	"sync"
	"time"
)

// Manager is a concurrency-safe catalogue of topics.
type Manager struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	validator *Validator
}

// NewManager creates an empty manager. Tests use their own manager so
// registrations never leak between them.
func NewManager() *Manager {
	return &Manager{
		entries:   make(map[string]*Entry),
		validator: NewValidator(),
	}
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager used by the binaries.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// DefineFramework creates a topic owned by framework code.
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return &TypedTopic{cfg: config}
}

// DefineModule creates a topic owned by a feature module.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return &TypedTopic{cfg: config}
}

// Register validates topic and adds it to the catalogue.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		te := &TopicError{
			Type:    ErrorValidationFailed,
			Message: "topic validation failed",
			Cause:   err,
		}
		if topic != nil {
			te.Topic = topic.Name()
			te.Module = topic.Module()
		}
		return te
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: "topic already registered",
		}
	}
	m.entries[topic.Name()] = &Entry{Topic: topic, RegisteredAt: time.Now()}
	return nil
}

// RegisterAll registers each topic, skipping ones already present.
func (m *Manager) RegisterAll(topics ...Topic) error {
	for _, t := range topics {
		if err := m.Register(t); err != nil {
			if te, ok := err.(*TopicError); ok && te.Type == ErrorDuplicateRegistration {
				continue
			}
			return err
		}
	}
	return nil
}

// MustRegister panics when Register fails.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(err)
	}
}

// Get looks a topic up by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Topic, true
}

// List returns every topic sorted by name.
func (m *Manager) List() []Topic {
	return m.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics with the given scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.filter(func(t Topic) bool { return t.Scope() == scope })
}

// ValidateTopicName checks a name without registering anything.
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Reset empties the catalogue.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
}

func (m *Manager) filter(keep func(Topic) bool) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Topic, 0, len(m.entries))
	for _, entry := range m.entries {
		if keep(entry.Topic) {
			out = append(out, entry.Topic)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
