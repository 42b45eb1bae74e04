// Package ledger records the in-fiction consequences a contest hands to
// collaborators: reputation, disposition, and stress deltas.
//
// The rules engine only returns these as values. The contest service turns
// them into Delta entries and appends them through an Emitter so faction,
// relationship, and character bookkeeping can replay them later.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Kind names the track a delta applies to.
type Kind string

// Delta kinds.
const (
	KindReputation  Kind = "reputation"
	KindDisposition Kind = "disposition"
	KindStress      Kind = "stress"
)

// Delta is one signed change emitted by a contest.
type Delta struct {
	ContestID string
	Subsystem string
	Kind      Kind
	Amount    int
	// Source names the rule that produced the delta, such as a tactic or
	// method, so consumers can explain it.
	Source  string
	Round   int
	TraceID string
	SpanID  string
	At      time.Time
}

// Store persists deltas.
type Store interface {
	AppendDelta(ctx context.Context, delta Delta) error
}

// Emitter stamps and appends deltas.
type Emitter struct {
	store Store
	clock func() time.Time
}

// NewEmitter creates an emitter over store.
func NewEmitter(store Store) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit appends delta. Zero amounts are dropped, and Emit is a no-op when the
// emitter has no store.
func (e *Emitter) Emit(ctx context.Context, delta Delta) error {
	if e == nil || e.store == nil || delta.Amount == 0 {
		return nil
	}
	if delta.At.IsZero() {
		if e.clock == nil {
			delta.At = time.Now().UTC()
		} else {
			delta.At = e.clock().UTC()
		}
	}
	if delta.TraceID == "" {
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			delta.TraceID = sc.TraceID().String()
			delta.SpanID = sc.SpanID().String()
		}
	}
	return e.store.AppendDelta(ctx, delta)
}

// Memory keeps deltas in a slice. It backs tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	Deltas []Delta
}

// AppendDelta implements Store.
func (m *Memory) AppendDelta(_ context.Context, delta Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deltas = append(m.Deltas, delta)
	return nil
}

// List returns a copy of the recorded deltas.
func (m *Memory) List() []Delta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delta(nil), m.Deltas...)
}

// Totals sums deltas by kind.
func Totals(deltas []Delta) map[Kind]int {
	totals := map[Kind]int{}
	for _, delta := range deltas {
		totals[delta.Kind] += delta.Amount
	}
	return totals
}
