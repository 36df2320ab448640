package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/parlor/internal/topicmgr"
)

// Event binds a topic to the Go type carried in its payload.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent defines a typed framework event. The JSON field names of T are
// recorded in the topic metadata so the CLI can document them.
func NewEvent[T any](name, description string) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var fields []string
	typeName := ""
	if t != nil {
		typeName = t.Name()
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				tag := t.Field(i).Tag.Get("json")
				if tag == "" || tag == "-" {
					continue
				}
				fields = append(fields, strings.Split(tag, ",")[0])
			}
		}
	}

	return Event[T]{
		topic: topicmgr.DefineFramework(topicmgr.TopicConfig{
			Name:        name,
			Description: description,
			Pattern:     name,
			Metadata: map[string]interface{}{
				"payload_fields": fields,
				"type_name":      typeName,
				"is_typed":       true,
			},
		}),
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the catalogue entry for this event.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Publish sends payload as JSON on the event's topic.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		UserID:  userID,
		Payload: data,
	})
}

// Decode unmarshals msg's payload into T.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var out T
	if msg.Topic != "" && msg.Topic != event.Name() {
		return out, fmt.Errorf("message topic %q is not %q", msg.Topic, event.Name())
	}
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", event.Name(), err)
	}
	return out, nil
}
