package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	// ErrStopped is returned by Enqueue once Run has returned.
	ErrStopped = errors.New("relay: stopped")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("relay: already running")
)

const defaultQueueSize = 256

// Relay serializes every inbound event of one chat room through a single
// goroutine.
type Relay struct {
	state    *State
	handlers dispatchTable
	queue    chan Inbound
	sink     Sink
	logger   *slog.Logger

	running atomic.Bool
	done    chan struct{}
}

// Option configures a Relay.
type Option func(*Relay)

// WithQueueSize sets how many inbound events may wait for the loop.
func WithQueueSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.queue = make(chan Inbound, n)
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp chat messages.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.state.now = now
		}
	}
}

// WithIDGenerator sets the chat message id generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Relay) {
		if gen != nil {
			r.state.newID = gen
		}
	}
}

// New creates a relay with empty state that hands its broadcasts to sink.
func New(sink Sink, opts ...Option) *Relay {
	r := &Relay{
		state:    NewState(),
		handlers: newDispatchTable(),
		queue:    make(chan Inbound, defaultQueueSize),
		sink:     sink,
		logger:   slog.Default().With("component", "relay"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue queues in for the loop. It blocks while the queue is full.
func (r *Relay) Enqueue(ctx context.Context, in Inbound) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}

	select {
	case r.queue <- in:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles queued events one at a time in arrival order until ctx is
// canceled. A failing or panicking handler only loses its own event.
func (r *Relay) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(r.done)

	r.logger.Info("relay loop started", "queue_size", cap(r.queue))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case in := <-r.queue:
			r.process(ctx, in)
		}
	}
}

// Done is closed when Run returns.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

func (r *Relay) process(ctx context.Context, in Inbound) {
	outs, err := r.apply(in)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			r.logger.Debug("event rejected", "event", in.Kind, "conn_id", in.ConnID, "error", err)
		} else {
			r.logger.Warn("event failed", "event", in.Kind, "conn_id", in.ConnID, "error", err)
		}
		return
	}

	for _, out := range outs {
		if err := r.sink.Deliver(ctx, out); err != nil {
			r.logger.Warn("broadcast failed", "kind", out.Kind, "audience", out.Audience, "error", err)
		}
	}
}

func (r *Relay) apply(in Inbound) (outs []Outbound, err error) {
	defer func() {
		if p := recover(); p != nil {
			outs, err = nil, fmt.Errorf("handler for %q panicked: %v", in.Kind, p)
		}
	}()
	return r.handlers.dispatch(r.state, in)
}
