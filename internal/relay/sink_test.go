package relay

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/websocket"
)

type mockPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (m *mockPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestPubSubSink_Deliver(t *testing.T) {
	pub := &mockPublisher{}
	sink := NewPubSubSink(pub)

	err := sink.Deliver(context.Background(), Outbound{
		Kind:     KindTyping,
		Audience: AudienceOthers,
		Sender:   "c1",
		Payload:  TypingPayload{Username: "Alice"},
	})
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, websocket.TopicBroadcast.Name(), msg.Topic)
	assert.Equal(t, "c1", msg.UserID)
	assert.JSONEq(t, `{"type":"typing","payload":{"username":"Alice"}}`, string(msg.Payload))
	assert.Equal(t, map[string]string{
		websocket.MetaEvent:    "typing",
		websocket.MetaAudience: websocket.AudienceOthers,
		websocket.MetaSender:   "c1",
	}, msg.Metadata)
}

func TestPubSubSink_EncodeFailure(t *testing.T) {
	pub := &mockPublisher{}
	sink := NewPubSubSink(pub)

	err := sink.Deliver(context.Background(), Outbound{Kind: KindSystem, Payload: func() {}})
	assert.Error(t, err)
	assert.Empty(t, pub.messages)
}

// The relay and the real bus together: every broadcast reaches the topic in
// the order the relay produced it.
func TestPubSubSink_WithWatermill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	var (
		mu     sync.Mutex
		frames []string
	)
	require.NoError(t, bus.Subscribe(ctx, websocket.TopicBroadcast.Name(), func(_ context.Context, msg pubsub.Message) error {
		mu.Lock()
		frames = append(frames, msg.Metadata[websocket.MetaEvent])
		mu.Unlock()
		return nil
	}))

	r, _ := startRelay(t, NewPubSubSink(bus))
	require.NoError(t, r.Enqueue(ctx, inbound(t, EventJoin, "c1", ProfilePayload{Username: "Alice"})))
	require.NoError(t, r.Enqueue(ctx, inbound(t, EventMessage, "c1", MessagePayload{Text: "hi"})))
	require.NoError(t, r.Enqueue(ctx, inbound(t, EventDisconnect, "c1", nil)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) == 5
	}, testWait, testTick)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"system", "roster", "message", "system", "roster"}, frames)
}
