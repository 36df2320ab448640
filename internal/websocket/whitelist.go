package websocket

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrTypeAlreadyAllowed is returned when adding a duplicate frame type.
	ErrTypeAlreadyAllowed = errors.New("frame type already in whitelist")
	// ErrInvalidType is returned for an empty frame type.
	ErrInvalidType = errors.New("frame type cannot be empty")
)

// Whitelist holds the frame types clients are allowed to send.
type Whitelist struct {
	mu      sync.RWMutex
	allowed []string
}

// NewWhitelist creates a whitelist; empty types are ignored.
func NewWhitelist(types ...string) *Whitelist {
	valid := make([]string, 0, len(types))
	for _, t := range types {
		if t != "" && !slices.Contains(valid, t) {
			valid = append(valid, t)
		}
	}
	return &Whitelist{allowed: valid}
}

// IsAllowed reports whether clients may send frames of type t.
func (w *Whitelist) IsAllowed(t string) bool {
	if t == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.allowed, t)
}

// Add allows another frame type.
func (w *Whitelist) Add(t string) error {
	if t == "" {
		return ErrInvalidType
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Contains(w.allowed, t) {
		return ErrTypeAlreadyAllowed
	}
	w.allowed = append(w.allowed, t)
	return nil
}

// Types returns a copy of the allowed types.
func (w *Whitelist) Types() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.allowed)
}
