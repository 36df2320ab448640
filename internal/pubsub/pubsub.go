package pubsub

import (
	"context"
)

// Message is what travels on the bus between the websocket bridge, the relay
// and the presence read model.
type Message struct {
	// Topic is the channel name, e.g. "ws.client.inbound".
	Topic string
	// UserID is the connection the message came from or concerns.
	UserID string
	// Payload is the raw frame, usually JSON.
	Payload []byte
	// Metadata carries routing hints such as "event" or "audience".
	Metadata map[string]string
}

// Handler processes a received message. A returned error is logged and the
// message is dropped.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe registers handler for topic and returns once the subscription
	// is live. Delivery stops when ctx is canceled or the subscriber closes.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// PubSub is both ends of the bus.
type PubSub interface {
	Publisher
	Subscriber
}
