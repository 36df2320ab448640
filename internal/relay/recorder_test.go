package relay

import (
	"context"
	"sync"
	"time"
)

// recorder keeps every outbound in memory.
type recorder struct {
	mu   sync.Mutex
	outs []Outbound
}

// Deliver implements Sink.
func (r *recorder) Deliver(_ context.Context, out Outbound) error {
	r.mu.Lock()
	r.outs = append(r.outs, out)
	r.mu.Unlock()
	return nil
}

// Outbounds returns a copy of everything delivered so far.
func (r *recorder) Outbounds() []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outbound, len(r.outs))
	copy(out, r.outs)
	return out
}

const (
	testWait = time.Second
	testTick = 2 * time.Millisecond
)
