package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parlor/internal/handlers"
	"github.com/nfrund/parlor/internal/module"
	"github.com/nfrund/parlor/internal/presence"
	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/registry"
	"github.com/nfrund/parlor/internal/relay"
)

// ChatModule runs the chat relay and its presence view.
type ChatModule struct {
	module.BaseModule
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber

	relay    *relay.Relay
	presence *presence.Service
	cancel   context.CancelFunc
}

// Dependencies holds all the services that the ChatModule requires to operate.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
}

// New creates a new instance of the ChatModule, injecting its dependencies.
func New(deps Dependencies) *ChatModule {
	return &ChatModule{
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register builds the relay and presence service and shares them through
// the registry.
func (m *ChatModule) Register(reg *registry.Registry) error {
	opts := []relay.Option{relay.WithLogger(slog.Default().With("module", "chat"))}
	if cfg := reg.Config(); cfg != nil {
		opts = append(opts, relay.WithQueueSize(cfg.GetRelayQueueSize()))
	}

	m.relay = relay.New(relay.NewPubSubSink(m.publisher), opts...)
	m.presence = presence.NewService(m.subscriber)

	registry.Set(reg, registry.ChatRelayKey, m.relay)
	registry.Set(reg, registry.ChatPresenceKey, m.presence)
	return nil
}

// Boot starts the relay loop and the bus subscribers, and mounts the
// presence endpoint.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	r := registry.MustGet(reg, registry.ChatRelayKey)
	svc := registry.MustGet(reg, registry.ChatPresenceKey)

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if err := svc.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start presence: %w", err)
	}
	if err := NewInboundSubscriber(m.subscriber, r).Start(runCtx); err != nil {
		cancel()
		return err
	}

	go func() {
		if err := r.Run(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("Chat relay stopped unexpectedly", "error", err)
		}
	}()

	g.GET("/presence", handlers.NewPresenceHandler(svc).GetPresence)

	slog.Info("Booted ChatModule")
	return nil
}

// Shutdown stops the relay loop and waits for it to drain the event in
// flight.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down ChatModule...")
	if m.cancel == nil {
		return nil
	}
	m.cancel()

	select {
	case <-m.relay.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
