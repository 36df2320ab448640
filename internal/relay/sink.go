package relay

import (
	"context"
	"fmt"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/websocket"
)

// Sink receives the broadcasts produced by the relay, in order. Delivery is
// fire-and-forget: errors are logged by the relay and never retried.
type Sink interface {
	Deliver(ctx context.Context, out Outbound) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, out Outbound) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, out Outbound) error {
	return f(ctx, out)
}

// PubSubSink publishes broadcasts as wire frames on a bus topic. The
// websocket bridge reads the audience and sender metadata to pick recipients.
type PubSubSink struct {
	publisher pubsub.Publisher
	topic     string
}

// NewPubSubSink publishes to websocket.TopicBroadcast.
func NewPubSubSink(publisher pubsub.Publisher) *PubSubSink {
	return &PubSubSink{publisher: publisher, topic: websocket.TopicBroadcast.Name()}
}

// Deliver implements Sink.
func (s *PubSubSink) Deliver(ctx context.Context, out Outbound) error {
	data, err := out.Encode()
	if err != nil {
		return err
	}

	err = s.publisher.Publish(ctx, pubsub.Message{
		Topic:   s.topic,
		UserID:  out.Sender,
		Payload: data,
		Metadata: map[string]string{
			websocket.MetaEvent:    string(out.Kind),
			websocket.MetaAudience: string(out.Audience),
			websocket.MetaSender:   out.Sender,
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", out.Kind, err)
	}
	return nil
}
