package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parlor/internal/app"
	"github.com/nfrund/parlor/internal/config"
	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/registry"
	"github.com/nfrund/parlor/internal/relay"
	"github.com/nfrund/parlor/internal/server"
	"github.com/nfrund/parlor/internal/topicmgr"
	wsTopics "github.com/nfrund/parlor/internal/websocket"
)

// setupIntegrationTest wires the full stack the way main does and serves
// it from an httptest server.
func setupIntegrationTest(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	cfg := config.FromEnv()
	cfg.StaticDir = ""
	reg := registry.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	ps := pubsub.NewWatermillBridge()

	topicManager := topicmgr.NewManager()
	require.NoError(t, wsTopics.RegisterTopicsWithManager(topicManager))

	bridge := wsTopics.NewBridge(wsTopics.BridgeDependencies{
		Publisher:    ps,
		Subscriber:   ps,
		AllowedTypes: relay.ClientEventKinds(),
	}, wsTopics.DefaultConfig())
	require.NoError(t, bridge.Start(ctx))

	s, err := server.New(server.Dependencies{Config: cfg, Bridge: bridge})
	require.NoError(t, err)
	s.RegisterRoutes()
	require.NoError(t, s.InitModules(ctx, app.NewModules(app.Dependencies{Publisher: ps, Subscriber: ps}), reg))

	ts := httptest.NewServer(s.E)

	return ts, func() {
		cancel()
		ts.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		assert.NoError(t, s.Shutdown(shutdownCtx))
		assert.NoError(t, ps.Close())
	}
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
}

// readUntil returns the first frame of type want, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", want)

		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == want {
			return f
		}
	}
}

func TestIntegration_Health(t *testing.T) {
	ts, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestIntegration_ChatClient(t *testing.T) {
	ts, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_ChatRoom(t *testing.T) {
	ts, cleanup := setupIntegrationTest(t)
	defer cleanup()

	alice := dial(t, ts)
	send(t, alice, `{"type":"join","payload":{"username":"alice"}}`)
	var users []relay.Profile
	roster := readUntil(t, alice, "roster")
	require.NoError(t, json.Unmarshal(roster.Payload, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.NotEmpty(t, users[0].ID)

	bob := dial(t, ts)
	send(t, bob, `{"type":"join","payload":{"username":"bob"}}`)
	notice := readUntil(t, alice, "system")
	assert.JSONEq(t, `"bob joined"`, string(notice.Payload))

	roster = readUntil(t, bob, "roster")
	require.NoError(t, json.Unmarshal(roster.Payload, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	send(t, bob, `{"type":"typing"}`)
	typing := readUntil(t, alice, "typing")
	assert.JSONEq(t, `{"username":"bob"}`, string(typing.Payload))

	send(t, alice, `{"type":"message","payload":{"text":"hello"}}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readUntil(t, conn, "message")
		var chat relay.ChatMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &chat))
		assert.Equal(t, "alice", chat.Username)
		assert.Equal(t, "hello", chat.Text)
		assert.NotEmpty(t, chat.ID)
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/chat/presence")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var snap struct {
			Count int `json:"count"`
		}
		return json.NewDecoder(resp.Body).Decode(&snap) == nil && snap.Count == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.Close(websocket.StatusNormalClosure, ""))
	left := readUntil(t, alice, "system")
	assert.JSONEq(t, `"bob left"`, string(left.Payload))
}
