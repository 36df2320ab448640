package websocket

import (
	"time"

	"github.com/nfrund/parlor/internal/pubsub"
	"github.com/nfrund/parlor/internal/topicmgr"
)

// Metadata keys understood by the bridge on broadcast messages.
const (
	// MetaEvent names the frame type, for logs and tracing.
	MetaEvent = "event"
	// MetaAudience selects recipients: AudienceAll or AudienceOthers.
	MetaAudience = "audience"
	// MetaSender is the connection excluded by AudienceOthers.
	MetaSender = "sender"
)

// Audience values.
const (
	AudienceAll    = "all"
	AudienceOthers = "others"
)

// ClientLifecycle is the payload of the ready and disconnected events.
type ClientLifecycle struct {
	ConnectionID string    `json:"connectionID"`
	RemoteAddr   string    `json:"remoteAddr,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

// Disconnect reasons.
const (
	ReasonClientClosed   = "client_closed"
	ReasonReadError      = "read_error"
	ReasonWriteError     = "write_error"
	ReasonServerShutdown = "server_shutdown"
)

var (
	// TopicClientInbound carries whitelisted frames sent by clients. UserID is
	// the connection id and the payload is the raw frame.
	TopicClientInbound = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.inbound",
		Description: "Whitelisted frames received from a WebSocket client",
		Pattern:     "ws.client.inbound",
		Example:     `{"type":"message","payload":{"text":"hi"}}`,
		Metadata: map[string]interface{}{
			"routing_type": "inbound",
			"requires":     []string{MetaEvent},
		},
	})

	// TopicBroadcast carries frames to fan out to connected clients.
	TopicBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.broadcast",
		Description: "Frames delivered to every connected client, or every client but the sender",
		Pattern:     "ws.broadcast",
		Example:     `{"type":"system","payload":"Alice joined"}`,
		Metadata: map[string]interface{}{
			"routing_type": "broadcast",
			"requires":     []string{MetaAudience, MetaSender},
		},
	})

	// EventClientReady is published once a client connection is accepted.
	EventClientReady = pubsub.NewEvent[ClientLifecycle](
		"ws.client.ready",
		"Published when a WebSocket client connects",
	)

	// EventClientDisconnected is published exactly once when a client
	// connection ends.
	EventClientDisconnected = pubsub.NewEvent[ClientLifecycle](
		"ws.client.disconnected",
		"Published when a WebSocket client disconnects",
	)

	TopicClientReady        = EventClientReady.Topic()
	TopicClientDisconnected = EventClientDisconnected.Topic()
)

// Topics lists the framework topics owned by the bridge.
func Topics() []topicmgr.Topic {
	return []topicmgr.Topic{
		TopicClientInbound,
		TopicBroadcast,
		TopicClientReady,
		TopicClientDisconnected,
	}
}

// RegisterTopicsWithManager registers the bridge topics. Topics that are
// already registered are skipped.
func RegisterTopicsWithManager(manager *topicmgr.Manager) error {
	return manager.RegisterAll(Topics()...)
}
