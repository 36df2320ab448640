package registry

import (
	"fmt"
	"sync"

	"github.com/nfrund/parlor/internal/config"
)

// Key is a typed key for registering and retrieving services. The string
// should be unique, e.g. "chat.relay".
type Key[T any] string

// Registry lets modules share services at runtime.
type Registry struct {
	services sync.Map
	cfg      config.Provider
}

// New creates a registry holding the application configuration.
func New(cfg config.Provider) *Registry {
	return &Registry{cfg: cfg}
}

// Config returns the configuration provider.
func (r *Registry) Config() config.Provider {
	return r.cfg
}

// Set registers value under key.
func Set[T any](r *Registry, key Key[T], value T) {
	r.services.Store(string(key), value)
}

// Get retrieves the service registered under key.
func Get[T any](r *Registry, key Key[T]) (T, bool) {
	val, ok := r.services.Load(string(key))
	if !ok {
		var zero T
		return zero, false
	}

	result, ok := val.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return result, true
}

// MustGet retrieves a service or panics. Use it for wiring essential
// dependencies at startup.
func MustGet[T any](r *Registry, key Key[T]) T {
	val, ok := Get(r, key)
	if !ok {
		panic(fmt.Sprintf("service not found for key: %v", key))
	}
	return val
}
