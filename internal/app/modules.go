package app

import (
	"github.com/nfrund/parlor/internal/module"
	"github.com/nfrund/parlor/internal/modules/chat"
	"github.com/nfrund/parlor/internal/pubsub"
)

// Dependencies holds the core services that are required by the application's modules.
// This struct is passed from the main application entrypoint to wire up the modules.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
}

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		chat.New(chatDeps(deps)),
	}
}

// chatDeps creates the dependency struct for the chat module.
func chatDeps(deps Dependencies) chat.Dependencies {
	return chat.Dependencies{
		Publisher:  deps.Publisher,
		Subscriber: deps.Subscriber,
	}
}
