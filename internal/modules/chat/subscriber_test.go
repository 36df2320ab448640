package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/relay"
	"github.com/nfrund/parlor/internal/websocket"
)

type fakeRelay struct {
	mu  sync.Mutex
	got []relay.Inbound
	err error
}

func (f *fakeRelay) Enqueue(_ context.Context, in relay.Inbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, in)
	return nil
}

type captureSubscriber struct {
	handlers map[string]pubsub.Handler
}

func (c *captureSubscriber) Subscribe(_ context.Context, topic string, h pubsub.Handler) error {
	if c.handlers == nil {
		c.handlers = make(map[string]pubsub.Handler)
	}
	c.handlers[topic] = h
	return nil
}

func (c *captureSubscriber) Close() error { return nil }

func startSubscriber(t *testing.T, r enqueuer) *captureSubscriber {
	t.Helper()
	sub := &captureSubscriber{}
	require.NoError(t, NewInboundSubscriber(sub, r).Start(context.Background()))
	require.Contains(t, sub.handlers, websocket.TopicClientInbound.Name())
	require.Contains(t, sub.handlers, websocket.EventClientDisconnected.Name())
	return sub
}

func TestInboundSubscriber_ForwardsFrames(t *testing.T) {
	r := &fakeRelay{}
	sub := startSubscriber(t, r)
	handle := sub.handlers[websocket.TopicClientInbound.Name()]

	err := handle(context.Background(), pubsub.Message{
		Topic:   websocket.TopicClientInbound.Name(),
		UserID:  "c1",
		Payload: []byte(`{"type":"join","payload":{"username":"alice"}}`),
	})
	require.NoError(t, err)

	require.Len(t, r.got, 1)
	assert.Equal(t, relay.EventJoin, r.got[0].Kind)
	assert.Equal(t, "c1", r.got[0].ConnID)
	assert.JSONEq(t, `{"username":"alice"}`, string(r.got[0].Payload))
}

func TestInboundSubscriber_DropsBadFrames(t *testing.T) {
	r := &fakeRelay{}
	sub := startSubscriber(t, r)
	handle := sub.handlers[websocket.TopicClientInbound.Name()]

	for _, raw := range []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"disconnect"}`,
	} {
		err := handle(context.Background(), pubsub.Message{UserID: "c1", Payload: []byte(raw)})
		assert.NoError(t, err, raw)
	}
	assert.Empty(t, r.got)
}

func TestInboundSubscriber_Disconnected(t *testing.T) {
	r := &fakeRelay{}
	sub := startSubscriber(t, r)
	handle := sub.handlers[websocket.EventClientDisconnected.Name()]

	payload, err := json.Marshal(websocket.ClientLifecycle{ConnectionID: "c9", Reason: websocket.ReasonClientClosed})
	require.NoError(t, err)

	require.NoError(t, handle(context.Background(), pubsub.Message{
		Topic:   websocket.EventClientDisconnected.Name(),
		UserID:  "c9",
		Payload: payload,
	}))

	require.Len(t, r.got, 1)
	assert.Equal(t, relay.Inbound{Kind: relay.EventDisconnect, ConnID: "c9"}, r.got[0])
}

func TestInboundSubscriber_RelayStopped(t *testing.T) {
	r := &fakeRelay{err: relay.ErrStopped}
	sub := startSubscriber(t, r)
	handle := sub.handlers[websocket.TopicClientInbound.Name()]

	err := handle(context.Background(), pubsub.Message{
		UserID:  "c1",
		Payload: []byte(`{"type":"typing"}`),
	})
	assert.NoError(t, err)
}
