package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterIDs(r *Registry) []string {
	var ids []string
	for _, p := range r.Roster() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "Alice", "")
	r.Register("c2", "Bob", "avatar")

	p, ok := r.Lookup("c2")
	require.True(t, ok)
	assert.Equal(t, Profile{ID: "c2", Username: "Bob", Avatar: "avatar"}, p)

	_, ok = r.Lookup("c3")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_OverwriteKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "Alice", "")
	r.Register("c2", "Bob", "")
	r.Register("c1", "Alicia", "new")

	assert.Equal(t, []string{"c1", "c2"}, rosterIDs(r))
	p, _ := r.Lookup("c1")
	assert.Equal(t, "Alicia", p.Username)
}

func TestRegistry_Rename(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "Alice", "a")

	t.Run("unknown connection", func(t *testing.T) {
		_, ok := r.Rename("ghost", "Casper", "")
		assert.False(t, ok)
	})

	t.Run("blank username", func(t *testing.T) {
		_, ok := r.Rename("c1", "   ", "")
		assert.False(t, ok)
		p, _ := r.Lookup("c1")
		assert.Equal(t, "Alice", p.Username, "failed rename leaves the profile alone")
	})

	t.Run("success trims and clears avatar", func(t *testing.T) {
		old, ok := r.Rename("c1", "  Ally ", "")
		require.True(t, ok)
		assert.Equal(t, "Alice", old.Username)

		p, _ := r.Lookup("c1")
		assert.Equal(t, Profile{ID: "c1", Username: "Ally"}, p)
	})
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "Alice", "")
	r.Register("c2", "Bob", "")
	r.Register("c3", "Carol", "")

	p, ok := r.Remove("c2")
	require.True(t, ok)
	assert.Equal(t, "Bob", p.Username)
	assert.Equal(t, []string{"c1", "c3"}, rosterIDs(r))

	_, ok = r.Remove("c2")
	assert.False(t, ok, "second remove is a no-op")
	assert.Equal(t, []string{"c1", "c3"}, rosterIDs(r))
}

func TestRegistry_RosterIsExact(t *testing.T) {
	r := NewRegistry()
	live := map[string]bool{}

	ops := []struct {
		op string
		id string
	}{
		{"register", "a"}, {"register", "b"}, {"register", "a"}, {"remove", "a"},
		{"register", "c"}, {"rename", "b"}, {"remove", "x"}, {"register", "a"},
		{"remove", "b"}, {"remove", "b"}, {"rename", "b"}, {"register", "d"},
	}
	for _, o := range ops {
		switch o.op {
		case "register":
			r.Register(o.id, "user-"+o.id, "")
			live[o.id] = true
		case "rename":
			r.Rename(o.id, "renamed-"+o.id, "")
		case "remove":
			r.Remove(o.id)
			delete(live, o.id)
		}

		ids := rosterIDs(r)
		seen := map[string]int{}
		for _, id := range ids {
			seen[id]++
		}
		assert.Len(t, seen, len(live), "after %s %s", o.op, o.id)
		for id := range live {
			assert.Equal(t, 1, seen[id], "after %s %s: %s once", o.op, o.id, id)
		}
	}

	assert.Equal(t, []string{"c", "a", "d"}, rosterIDs(r))
}

func TestRegistry_RosterIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "Alice", "")

	roster := r.Roster()
	roster[0].Username = "Mallory"

	p, _ := r.Lookup("c1")
	assert.Equal(t, "Alice", p.Username)
	assert.NotNil(t, NewRegistry().Roster())
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "alice", NormalizeName("  alice\t"))
	assert.Equal(t, "", NormalizeName("   "))
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "Ren\u00e9", NormalizeName("Rene\u0301"))
}
