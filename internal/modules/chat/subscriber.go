package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/relay"
	"github.com/nfrund/parlor/internal/websocket"
)

// enqueuer is the part of the relay the subscriber feeds.
type enqueuer interface {
	Enqueue(ctx context.Context, in relay.Inbound) error
}

// InboundSubscriber turns client frames and disconnect notifications from
// the bus into relay events.
type InboundSubscriber struct {
	subscriber pubsub.Subscriber
	relay      enqueuer
	logger     *slog.Logger
}

// NewInboundSubscriber creates a subscriber feeding r.
func NewInboundSubscriber(sub pubsub.Subscriber, r enqueuer) *InboundSubscriber {
	return &InboundSubscriber{
		subscriber: sub,
		relay:      r,
		logger:     slog.Default().With("component", "chat_inbound_subscriber"),
	}
}

// Start subscribes to the inbound and disconnect topics. Handlers run until
// ctx is canceled.
func (s *InboundSubscriber) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, websocket.TopicClientInbound.Name(), s.handleInbound); err != nil {
		return fmt.Errorf("subscribe to client frames: %w", err)
	}
	if err := s.subscriber.Subscribe(ctx, websocket.EventClientDisconnected.Name(), s.handleDisconnected); err != nil {
		return fmt.Errorf("subscribe to disconnects: %w", err)
	}
	s.logger.Info("chat inbound subscriber started")
	return nil
}

func (s *InboundSubscriber) handleInbound(ctx context.Context, msg pubsub.Message) error {
	in, err := relay.DecodeInbound(msg.UserID, msg.Payload)
	if err != nil {
		s.logger.Debug("dropping malformed frame", "conn_id", msg.UserID, "error", err)
		return nil
	}
	return s.enqueue(ctx, in)
}

func (s *InboundSubscriber) handleDisconnected(ctx context.Context, msg pubsub.Message) error {
	ev, err := pubsub.Decode(websocket.EventClientDisconnected, msg)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, relay.Inbound{Kind: relay.EventDisconnect, ConnID: ev.ConnectionID})
}

func (s *InboundSubscriber) enqueue(ctx context.Context, in relay.Inbound) error {
	err := s.relay.Enqueue(ctx, in)
	if errors.Is(err, relay.ErrStopped) {
		s.logger.Debug("relay stopped, dropping event", "event", in.Kind, "conn_id", in.ConnID)
		return nil
	}
	return err
}
