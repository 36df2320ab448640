package relay

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Profile is the public roster entry of a connection.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Registry maps connection ids to profiles and remembers the order in which
// connections first registered. It is not safe for concurrent use; the relay
// loop is its only writer.
type Registry struct {
	profiles map[string]Profile
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Profile)}
}

// Register inserts or overwrites the profile of id. An overwrite keeps the
// connection's place in the roster.
func (r *Registry) Register(id, username, avatar string) Profile {
	p := Profile{ID: id, Username: username, Avatar: avatar}
	if _, exists := r.profiles[id]; !exists {
		r.order = append(r.order, id)
	}
	r.profiles[id] = p
	return p
}

// Rename replaces username and avatar of a registered connection and returns
// the previous profile. It fails when id is unknown or the trimmed username
// is empty.
func (r *Registry) Rename(id, username, avatar string) (Profile, bool) {
	old, ok := r.profiles[id]
	if !ok {
		return Profile{}, false
	}
	username = NormalizeName(username)
	if username == "" {
		return Profile{}, false
	}
	r.profiles[id] = Profile{ID: id, Username: username, Avatar: avatar}
	return old, true
}

// NormalizeName trims surrounding space and puts the name in Unicode NFC
// form, so visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Remove deletes id and returns the removed profile.
func (r *Registry) Remove(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, false
	}
	delete(r.profiles, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Lookup returns the profile of id.
func (r *Registry) Lookup(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Roster returns every profile in registration order. The slice is a copy.
func (r *Registry) Roster() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}
