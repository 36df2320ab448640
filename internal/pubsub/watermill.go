package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// Metadata keys carrying Message fields through a watermill message.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// WatermillBridge implements PubSub on top of watermill's in-memory GoChannel.
//
// Publish blocks until every subscriber has acked the message, so messages
// from one publisher reach each subscriber in the order they were published.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	prop   propagation.TextMapPropagator
	logger *slog.Logger

	wg sync.WaitGroup
}

var _ PubSub = (*WatermillBridge)(nil)

// Option configures a WatermillBridge.
type Option func(*WatermillBridge)

// WithTracer records a span for every publish and handled message.
func WithTracer(tracer trace.Tracer) Option {
	return func(wb *WatermillBridge) {
		if tracer != nil {
			wb.tracer = tracer
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(wb *WatermillBridge) {
		if logger != nil {
			wb.logger = logger
		}
	}
}

// NewWatermillBridge creates an in-memory bus.
func NewWatermillBridge(opts ...Option) *WatermillBridge {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)

	wb := &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		tracer: noop.NewTracerProvider().Tracer(tracerName),
		prop:   propagation.TraceContext{},
		logger: slog.Default().With("component", "pubsub"),
	}
	for _, opt := range opts {
		opt(wb)
	}
	return wb
}

func (wb *WatermillBridge) toWatermill(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	wb.prop.Inject(ctx, propagation.MapCarrier(wmMsg.Metadata))

	return wmMsg
}

func (wb *WatermillBridge) fromWatermill(wmMsg *message.Message) Message {
	reserved := map[string]struct{}{metaKeyUserID: {}, metaKeyTopic: {}}
	for _, f := range wb.prop.Fields() {
		reserved[f] = struct{}{}
	}

	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if _, skip := reserved[k]; !skip {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher. It returns once all current subscribers of
// msg.Topic have handled the message.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return fmt.Errorf("pubsub: publish without topic")
	}

	ctx, span := wb.tracer.Start(ctx, "pubsub.publish."+msg.Topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("user.id", msg.UserID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	defer span.End()

	wmMsg := wb.toWatermill(ctx, msg)
	span.SetAttributes(attribute.String("messaging.message_id", wmMsg.UUID))

	if err := wb.pub.Publish(msg.Topic, wmMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("pubsub: publish %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe implements Subscriber. Messages are handled one at a time on a
// dedicated goroutine.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("pubsub: subscribe %s: %w", topic, err)
	}

	wb.wg.Add(1)
	go func() {
		defer wb.wg.Done()
		for wmMsg := range messages {
			wb.handle(ctx, topic, wmMsg, handler)
		}
		wb.logger.Debug("subscription loop ended", "topic", topic)
	}()

	return nil
}

func (wb *WatermillBridge) handle(ctx context.Context, topic string, wmMsg *message.Message, handler Handler) {
	// Acked even on failure: the in-memory channel would otherwise redeliver
	// the same message forever.
	defer wmMsg.Ack()

	parent := wb.prop.Extract(ctx, propagation.MapCarrier(wmMsg.Metadata))
	spanCtx, span := wb.tracer.Start(parent, "pubsub.process."+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "process"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", wmMsg.UUID),
			attribute.String("user.id", wmMsg.Metadata.Get(metaKeyUserID)),
		),
	)
	defer span.End()

	msg := wb.fromWatermill(wmMsg)

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "panic")
			wb.logger.Error("handler panicked", "topic", topic, "msg_id", wmMsg.UUID, "panic", r)
		}
	}()

	if err := handler(spanCtx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		wb.logger.Error("failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
	}
}

// Close stops every subscription and waits for in-flight handlers.
func (wb *WatermillBridge) Close() error {
	err := wb.sub.Close()
	wb.wg.Wait()
	return err
}
