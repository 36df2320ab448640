package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// State is the mutable state of one chat room.
type State struct {
	Registry *Registry
	Ledger   *Ledger

	now   func() time.Time
	newID func() (string, error)
}

// NewState returns empty state using the wall clock and UUIDv7 message ids.
func NewState() *State {
	return &State{
		Registry: NewRegistry(),
		Ledger:   NewLedger(),
		now:      time.Now,
		newID:    newMessageID,
	}
}

func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// handlerFunc applies one inbound event to st and returns the broadcasts it
// causes, in order. Errors wrap ErrRejected.
type handlerFunc func(st *State, sender string, payload json.RawMessage) ([]Outbound, error)

type dispatchTable map[EventKind]handlerFunc

func newDispatchTable() dispatchTable {
	return dispatchTable{
		EventJoin:       handleJoin,
		EventRename:     handleRename,
		EventMessage:    handleMessage,
		EventReaction:   handleReaction,
		EventTyping:     handleTyping,
		EventStopTyping: handleStopTyping,
		EventDisconnect: handleDisconnect,
	}
}

func (t dispatchTable) dispatch(st *State, in Inbound) ([]Outbound, error) {
	h, ok := t[in.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrRejected, ErrUnknownEvent, in.Kind)
	}
	return h(st, in.ConnID, in.Payload)
}

var validate = validator.New()

func decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrRejected)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", ErrRejected, err)
	}
	return nil
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return nil
}

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRejected}, args...)...)
}

// membership returns the notice followed by the fresh roster.
func membership(st *State, sender, notice string) []Outbound {
	return []Outbound{
		{Kind: KindSystem, Audience: AudienceAll, Sender: sender, Payload: notice},
		{Kind: KindRoster, Audience: AudienceAll, Sender: sender, Payload: st.Registry.Roster()},
	}
}

func handleJoin(st *State, sender string, payload json.RawMessage) ([]Outbound, error) {
	var p ProfilePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	p.Username = NormalizeName(p.Username)
	if err := check(p); err != nil {
		return nil, err
	}

	st.Registry.Register(sender, p.Username, p.Avatar)
	return membership(st, sender, p.Username+" joined"), nil
}

func handleRename(st *State, sender string, payload json.RawMessage) ([]Outbound, error) {
	var p ProfilePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	old, ok := st.Registry.Rename(sender, p.Username, p.Avatar)
	if !ok {
		return nil, rejectf("rename of %q refused", sender)
	}
	current, _ := st.Registry.Lookup(sender)
	return membership(st, sender, old.Username+" is now "+current.Username), nil
}

func handleMessage(st *State, sender string, payload json.RawMessage) ([]Outbound, error) {
	user, ok := st.Registry.Lookup(sender)
	if !ok {
		return nil, rejectf("message from unregistered connection %q", sender)
	}

	var p MessagePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	p.Text = strings.TrimSpace(p.Text)
	if err := check(p); err != nil {
		return nil, err
	}
	if p.ReplyTo != nil && strings.TrimSpace(p.ReplyTo.ID) == "" {
		p.ReplyTo = nil
	}

	id, err := st.newID()
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	msg := ChatMessage{
		ID:       id,
		Username: user.Username,
		Avatar:   user.Avatar,
		Text:     p.Text,
		Time:     st.now().UTC(),
		ReplyTo:  p.ReplyTo,
	}
	return []Outbound{{Kind: KindMessage, Audience: AudienceAll, Sender: sender, Payload: msg}}, nil
}

func handleReaction(st *State, sender string, payload json.RawMessage) ([]Outbound, error) {
	var p ReactionPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if err := check(p); err != nil {
		return nil, err
	}
	if err := st.Ledger.Apply(sender, p.MessageID, p.Reaction, p.Remove); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	update := ReactionUpdate{MessageID: p.MessageID, Reactions: st.Ledger.Snapshot(p.MessageID)}
	return []Outbound{{Kind: KindReaction, Audience: AudienceAll, Sender: sender, Payload: update}}, nil
}

func handleTyping(st *State, sender string, _ json.RawMessage) ([]Outbound, error) {
	user, ok := st.Registry.Lookup(sender)
	if !ok {
		return nil, rejectf("typing from unregistered connection %q", sender)
	}
	return []Outbound{{
		Kind:     KindTyping,
		Audience: AudienceOthers,
		Sender:   sender,
		Payload:  TypingPayload{Username: user.Username},
	}}, nil
}

func handleStopTyping(_ *State, sender string, _ json.RawMessage) ([]Outbound, error) {
	return []Outbound{{Kind: KindStopTyping, Audience: AudienceOthers, Sender: sender}}, nil
}

func handleDisconnect(st *State, sender string, _ json.RawMessage) ([]Outbound, error) {
	gone, ok := st.Registry.Remove(sender)
	if !ok {
		return nil, nil
	}
	return membership(st, sender, gone.Username+" left"), nil
}
