package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nfrund/parlor/internal/websocket"
)

var (
	// ErrRejected marks an inbound event that was dropped on purpose: bad
	// payload, unregistered sender, empty text and the like. Clients are never
	// told about rejections.
	ErrRejected = errors.New("relay: event rejected")
	// ErrUnknownEvent is returned for event types the relay does not handle.
	ErrUnknownEvent = errors.New("relay: unknown event")
)

// EventKind enumerates inbound events.
type EventKind string

const (
	EventJoin       EventKind = "join"
	EventRename     EventKind = "rename"
	EventMessage    EventKind = "message"
	EventReaction   EventKind = "reaction"
	EventTyping     EventKind = "typing"
	EventStopTyping EventKind = "stop_typing"
	// EventDisconnect is raised by the transport when a connection closes.
	// Clients cannot send it.
	EventDisconnect EventKind = "disconnect"
)

var clientKinds = []EventKind{
	EventJoin,
	EventRename,
	EventMessage,
	EventReaction,
	EventTyping,
	EventStopTyping,
}

// ClientEventKinds lists the event types a client may send.
func ClientEventKinds() []string {
	out := make([]string, len(clientKinds))
	for i, k := range clientKinds {
		out[i] = string(k)
	}
	return out
}

// IsClient reports whether clients are allowed to send k.
func (k EventKind) IsClient() bool {
	for _, c := range clientKinds {
		if c == k {
			return true
		}
	}
	return false
}

// OutboundKind enumerates broadcast events.
type OutboundKind string

const (
	KindRoster     OutboundKind = "roster"
	KindSystem     OutboundKind = "system"
	KindMessage    OutboundKind = "message"
	KindReaction   OutboundKind = "reaction"
	KindTyping     OutboundKind = "typing"
	KindStopTyping OutboundKind = "stop_typing"
)

// Audience selects the recipients of an Outbound.
type Audience string

const (
	// AudienceAll delivers to every connection, the sender included.
	AudienceAll Audience = websocket.AudienceAll
	// AudienceOthers delivers to every connection except the sender.
	AudienceOthers Audience = websocket.AudienceOthers
)

// Recipient reports whether connID should receive an outbound with this
// audience sent by sender.
func (a Audience) Recipient(connID, sender string) bool {
	if a == AudienceOthers {
		return connID != sender
	}
	return true
}

// Inbound is one event received from a connection.
type Inbound struct {
	Kind    EventKind
	ConnID  string
	Payload json.RawMessage
}

// Outbound is one broadcast produced by a handler.
type Outbound struct {
	Kind     OutboundKind
	Audience Audience
	Sender   string
	Payload  any
}

// Frame is the JSON envelope used on the wire in both directions.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode renders o as a wire frame.
func (o Outbound) Encode() ([]byte, error) {
	frame := Frame{Type: string(o.Kind)}
	if o.Payload != nil {
		data, err := json.Marshal(o.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", o.Kind, err)
		}
		frame.Payload = data
	}
	return json.Marshal(frame)
}

// DecodeInbound parses a client frame received on connection connID.
func DecodeInbound(connID string, raw []byte) (Inbound, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Inbound{}, fmt.Errorf("%w: malformed frame: %v", ErrRejected, err)
	}

	kind := EventKind(frame.Type)
	if !kind.IsClient() {
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Type)
	}

	return Inbound{Kind: kind, ConnID: connID, Payload: frame.Payload}, nil
}

// ProfilePayload is sent with join and rename.
type ProfilePayload struct {
	Username string `json:"username" validate:"required"`
	Avatar   string `json:"avatar"`
}

// ReplyRef points at an earlier message and carries enough of it to render
// the quote without a lookup.
type ReplyRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// MessagePayload is sent with message.
type MessagePayload struct {
	Text    string    `json:"text" validate:"required"`
	ReplyTo *ReplyRef `json:"replyTo,omitempty"`
}

// ReactionPayload is sent with reaction.
type ReactionPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Reaction  string `json:"reaction" validate:"required"`
	Remove    bool   `json:"remove"`
}

// ChatMessage is the broadcast form of a sent message. Username and Avatar
// are copied from the sender at send time.
type ChatMessage struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
	ReplyTo  *ReplyRef `json:"replyTo,omitempty"`
}

// ReactionUpdate is the full reaction state of one message.
type ReactionUpdate struct {
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
}

// TypingPayload names who is typing.
type TypingPayload struct {
	Username string `json:"username"`
}
