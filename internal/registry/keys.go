package registry

import (
	"github.com/nfrund/parlor/internal/presence"
	"github.com/nfrund/parlor/internal/relay"
)

// Service keys shared between modules.
var (
	ChatRelayKey    = Key[*relay.Relay]("chat.relay")
	ChatPresenceKey = Key[*presence.Service]("chat.presence")
)
