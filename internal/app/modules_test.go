package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parlor/internal/pubsub"
)

func TestNewModules(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	modules := NewModules(Dependencies{Publisher: bus, Subscriber: bus})
	require.Len(t, modules, 1)
	assert.Equal(t, "chat", modules[0].Name())
}
