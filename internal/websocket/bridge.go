package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/parlor/internal/middleware"
	"github.com/nfrund/parlor/internal/pubsub"
)

// Config tunes the bridge.
type Config struct {
	// ReadLimit is the largest frame accepted from a client, in bytes.
	// Avatars travel inline, so it is well above the library default.
	ReadLimit int64
	// SendBuffer is the number of frames queued per client before frames
	// for that client are dropped.
	SendBuffer int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// AllowedOrigins are host patterns accepted for cross-origin upgrades.
	// "*" accepts any origin.
	AllowedOrigins []string
}

// DefaultConfig returns the bridge defaults.
func DefaultConfig() Config {
	return Config{
		ReadLimit:    1 << 20,
		SendBuffer:   256,
		WriteTimeout: 10 * time.Second,
	}
}

// BridgeDependencies contains the collaborators of a Bridge.
type BridgeDependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	// AllowedTypes are the frame types clients may send.
	AllowedTypes []string
	Logger       *slog.Logger
}

// Bridge connects WebSocket clients to the message bus. Frames read from a
// client are published on TopicClientInbound; frames published on
// TopicBroadcast are written to the clients selected by their audience.
type Bridge struct {
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber
	whitelist  *Whitelist
	cfg        Config
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewBridge creates a bridge. Zero config fields take their defaults.
func NewBridge(deps BridgeDependencies, cfg Config) *Bridge {
	def := DefaultConfig()
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
		whitelist:  NewWhitelist(deps.AllowedTypes...),
		cfg:        cfg,
		logger:     logger.With("component", "websocket_bridge"),
		clients:    make(map[string]*Client),
		baseCtx:    context.Background(),
	}
}

// Start subscribes to the broadcast topic. Connections accepted afterwards
// are closed when ctx is canceled.
func (b *Bridge) Start(ctx context.Context) error {
	b.baseCtx = ctx
	if err := b.subscriber.Subscribe(ctx, TopicBroadcast.Name(), b.onBroadcast); err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicBroadcast.Name(), err)
	}
	b.logger.Info("websocket bridge started",
		"read_limit", b.cfg.ReadLimit,
		"send_buffer", b.cfg.SendBuffer,
		"allowed_types", b.whitelist.Types())
	return nil
}

// AllowType adds a frame type clients may send.
func (b *Bridge) AllowType(t string) error {
	return b.whitelist.Add(t)
}

// ClientCount returns the number of open connections.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Handler upgrades the request and serves the connection until it closes.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		opts := &websocket.AcceptOptions{OriginPatterns: b.cfg.AllowedOrigins}
		if slices.Contains(b.cfg.AllowedOrigins, "*") {
			opts.InsecureSkipVerify = true
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), opts)
		if err != nil {
			b.logger.Warn("failed to upgrade connection", "remote_addr", c.RealIP(), "error", err)
			// Accept has already written the response.
			return nil
		}
		conn.SetReadLimit(b.cfg.ReadLimit)

		// Tag the request logger so the HTTP log line of this upgrade names
		// the connection.
		connID := uuid.NewString()
		ctx := middleware.With(c.Request().Context(), "conn_id", connID)
		c.SetRequest(c.Request().WithContext(ctx))

		b.serve(ctx, conn, connID, c.RealIP())
		return nil
	}
}

func (b *Bridge) serve(reqCtx context.Context, conn *websocket.Conn, connID, remoteAddr string) {
	b.wg.Add(1)
	defer b.wg.Done()

	ctx, cancel := context.WithCancel(reqCtx)
	defer cancel()
	stop := context.AfterFunc(b.baseCtx, cancel)
	defer stop()

	client := newClient(connID, remoteAddr, conn, b.cfg.SendBuffer)
	logger := b.logger.With("conn_id", client.ID)

	b.mu.Lock()
	b.clients[client.ID] = client
	b.mu.Unlock()
	logger.Info("client connected", "remote_addr", remoteAddr)

	lifecycleCtx := context.WithoutCancel(ctx)
	if err := pubsub.Publish(lifecycleCtx, b.publisher, EventClientReady, client.ID, ClientLifecycle{
		ConnectionID: client.ID,
		RemoteAddr:   remoteAddr,
		At:           time.Now().UTC(),
	}); err != nil {
		logger.Error("failed to publish ready event", "error", err)
	}

	// Taken before the pump starts: Close may run before the goroutine does.
	outbox := client.outbox()
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- b.writePump(ctx, client, outbox)
		cancel()
	}()

	reason := b.readPump(ctx, client, logger)

	b.mu.Lock()
	delete(b.clients, client.ID)
	b.mu.Unlock()
	client.Close()

	if err := <-writeErr; err != nil && reason != ReasonServerShutdown {
		reason = ReasonWriteError
	}
	if reason == ReasonServerShutdown {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	} else {
		conn.Close(websocket.StatusNormalClosure, "")
	}

	if err := pubsub.Publish(lifecycleCtx, b.publisher, EventClientDisconnected, client.ID, ClientLifecycle{
		ConnectionID: client.ID,
		RemoteAddr:   remoteAddr,
		Reason:       reason,
		At:           time.Now().UTC(),
	}); err != nil {
		logger.Error("failed to publish disconnected event", "error", err)
	}
	logger.Info("client disconnected", "reason", reason)
}

// readPump forwards whitelisted frames to the bus until the connection ends
// and returns the disconnect reason.
func (b *Bridge) readPump(ctx context.Context, client *Client, logger *slog.Logger) string {
	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			switch {
			case b.baseCtx.Err() != nil:
				return ReasonServerShutdown
			case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
				websocket.CloseStatus(err) == websocket.StatusGoingAway:
				return ReasonClientClosed
			case errors.Is(err, context.Canceled):
				// The write pump gave up on the connection.
				return ReasonWriteError
			default:
				logger.Debug("websocket read failed", "error", err)
				return ReasonReadError
			}
		}

		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Debug("dropping malformed frame", "error", err)
			continue
		}
		if !b.whitelist.IsAllowed(frame.Type) {
			logger.Debug("dropping frame type not in whitelist", "type", frame.Type)
			continue
		}

		err = b.publisher.Publish(ctx, pubsub.Message{
			Topic:    TopicClientInbound.Name(),
			UserID:   client.ID,
			Payload:  data,
			Metadata: map[string]string{MetaEvent: frame.Type},
		})
		if err != nil {
			logger.Error("failed to publish inbound frame", "type", frame.Type, "error", err)
		}
	}
}

// writePump writes queued frames until outbox is closed or ctx ends. A nil
// outbox means the client was already closed.
func (b *Bridge) writePump(ctx context.Context, client *Client, outbox <-chan []byte) error {
	if outbox == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-outbox:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, b.cfg.WriteTimeout)
			err := client.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.logger.Warn("websocket write failed", "conn_id", client.ID, "error", err)
				return err
			}
		}
	}
}

// onBroadcast fans a frame out to the recipients selected by its audience.
// It never blocks on a slow client.
func (b *Bridge) onBroadcast(_ context.Context, msg pubsub.Message) error {
	audience := msg.Metadata[MetaAudience]
	sender := msg.Metadata[MetaSender]

	b.mu.RLock()
	recipients := make([]*Client, 0, len(b.clients))
	for id, c := range b.clients {
		if audience == AudienceOthers && id == sender {
			continue
		}
		recipients = append(recipients, c)
	}
	b.mu.RUnlock()

	for _, c := range recipients {
		if !c.SendMessage(msg.Payload) {
			b.logger.Warn("client send buffer full, dropping frame",
				"conn_id", c.ID, "event", msg.Metadata[MetaEvent])
		}
	}
	return nil
}

// Shutdown waits for open connections to finish closing. Cancel the context
// given to Start first.
func (b *Bridge) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket bridge shutdown: %w", ctx.Err())
	}
}
