package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/parlor/internal/config"
	"github.com/nfrund/parlor/internal/relay"
)

func TestRegistry(t *testing.T) {
	cfg := &config.Config{ServerAddr: ":9999"}
	reg := New(cfg)
	assert.Equal(t, ":9999", reg.Config().GetServerAddr())

	t.Run("missing", func(t *testing.T) {
		_, ok := Get(reg, ChatRelayKey)
		assert.False(t, ok)
		assert.Panics(t, func() { MustGet(reg, ChatRelayKey) })
	})

	t.Run("set and get", func(t *testing.T) {
		r := relay.New(relay.SinkFunc(nil))
		Set(reg, ChatRelayKey, r)

		got, ok := Get(reg, ChatRelayKey)
		assert.True(t, ok)
		assert.Same(t, r, got)
		assert.Same(t, r, MustGet(reg, ChatRelayKey))
	})

	t.Run("type mismatch", func(t *testing.T) {
		Set(reg, Key[string]("chat.name"), "parlor")
		_, ok := Get(reg, Key[int]("chat.name"))
		assert.False(t, ok)
	})
}
