// Package presence keeps a read model of who is in the chat room.
//
// The relay owns the connection registry; this package only mirrors the
// roster broadcasts it emits, plus the transport's connect and disconnect
// events, so HTTP handlers can answer presence queries without touching the
// relay loop.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/relay"
	"github.com/nfrund/parlor/internal/websocket"
)

// Snapshot is the presence state at one point in time.
type Snapshot struct {
	Users []relay.Profile `json:"users"`
	Count int             `json:"count"`
	// Connections counts open sockets, joined or not.
	Connections int       `json:"connections"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service mirrors the latest roster and the set of open connections.
type Service struct {
	subscriber pubsub.Subscriber
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	users       []relay.Profile
	connections map[string]time.Time
	updatedAt   time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an empty presence service. Call Start to begin
// following the bus.
func NewService(subscriber pubsub.Subscriber, opts ...Option) *Service {
	s := &Service{
		subscriber:  subscriber,
		logger:      slog.Default().With("service", "presence"),
		now:         func() time.Time { return time.Now().UTC() },
		users:       []relay.Profile{},
		connections: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to roster broadcasts and connection lifecycle events.
func (s *Service) Start(ctx context.Context) error {
	subs := []struct {
		topic   string
		handler pubsub.Handler
	}{
		{websocket.TopicBroadcast.Name(), s.handleBroadcast},
		{websocket.EventClientReady.Name(), s.handleClientReady},
		{websocket.EventClientDisconnected.Name(), s.handleClientDisconnected},
	}
	for _, sub := range subs {
		if err := s.subscriber.Subscribe(ctx, sub.topic, sub.handler); err != nil {
			return fmt.Errorf("presence: subscribe to %s: %w", sub.topic, err)
		}
	}
	s.logger.Info("presence service started")
	return nil
}

func (s *Service) handleBroadcast(_ context.Context, msg pubsub.Message) error {
	if event, ok := msg.Metadata[websocket.MetaEvent]; ok && event != string(relay.KindRoster) {
		return nil
	}

	var frame relay.Frame
	if err := json.Unmarshal(msg.Payload, &frame); err != nil {
		return fmt.Errorf("decode broadcast frame: %w", err)
	}
	if frame.Type != string(relay.KindRoster) {
		return nil
	}

	var users []relay.Profile
	if err := json.Unmarshal(frame.Payload, &users); err != nil {
		return fmt.Errorf("decode roster: %w", err)
	}
	if users == nil {
		users = []relay.Profile{}
	}

	s.mu.Lock()
	s.users = users
	s.updatedAt = s.now()
	s.mu.Unlock()

	s.logger.Debug("roster updated", "count", len(users))
	return nil
}

func (s *Service) handleClientReady(_ context.Context, msg pubsub.Message) error {
	event, err := pubsub.Decode(websocket.EventClientReady, msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.connections[event.ConnectionID] = event.At
	s.updatedAt = s.now()
	s.mu.Unlock()
	return nil
}

func (s *Service) handleClientDisconnected(_ context.Context, msg pubsub.Message) error {
	event, err := pubsub.Decode(websocket.EventClientDisconnected, msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.connections, event.ConnectionID)
	s.updatedAt = s.now()
	s.mu.Unlock()
	return nil
}

// Roster returns a copy of the last roster broadcast.
func (s *Service) Roster() []relay.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]relay.Profile, len(s.users))
	copy(out, s.users)
	return out
}

// Count returns the number of joined users.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Snapshot returns the full presence state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]relay.Profile, len(s.users))
	copy(users, s.users)
	return Snapshot{
		Users:       users,
		Count:       len(users),
		Connections: len(s.connections),
		UpdatedAt:   s.updatedAt,
	}
}
