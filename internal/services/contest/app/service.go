// Package app orchestrates contests for one table session.
//
// The rules engine under internal/core and internal/systems is pure: it
// takes a random source and plain state and returns values. Service adds
// the session-owned concerns around it: loading and saving snapshots,
// serializing access per contest, rendering narrative keys through the
// message catalog, emitting ledger deltas, metrics, logs, and spans.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/dice"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	"github.com/louisbranch/parley/internal/platform/i18n/catalog"
	"github.com/louisbranch/parley/internal/platform/id"
	"github.com/louisbranch/parley/internal/platform/telemetry/metrics"
	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/services/contest/storage"
)

const tracerName = "github.com/louisbranch/parley/internal/services/contest/app"

// Options wires a Service.
type Options struct {
	Store   storage.ContestStore
	Ledger  ledger.Store
	Catalog *catalog.Bundle
	Metrics *metrics.Recorder
	Source  dice.Source
	// Locale selects narrative and error text. Empty means the catalog base.
	Locale string
	Clock  func() time.Time
	NewID  func() (string, error)
}

// Service runs contests against a store.
type Service struct {
	store   storage.ContestStore
	ledger  *ledger.Emitter
	catalog *catalog.Bundle
	metrics *metrics.Recorder
	source  *lockedSource
	locale  string
	clock   func() time.Time
	newID   func() (string, error)
	locks   *keyedMutex
	tracer  trace.Tracer
}

// Outcome pairs a rules result with its rendered narrative.
type Outcome[T any] struct {
	ContestID string
	Result    T
	Narrative string
}

// New validates options and builds a Service.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("contest store is required")
	}
	if opts.Source == nil {
		return nil, dice.ErrMissingSource
	}
	bundle := opts.Catalog
	if bundle == nil {
		bundle = catalog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = id.NewID
	}
	emitter := ledger.NewEmitter(opts.Ledger)
	return &Service{
		store:   opts.Store,
		ledger:  emitter,
		catalog: bundle,
		metrics: opts.Metrics,
		source:  &lockedSource{src: opts.Source},
		locale:  bundle.Match(opts.Locale),
		clock:   func() time.Time { return clock().UTC() },
		newID:   newID,
		locks:   newKeyedMutex(),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Locale returns the resolved locale used for narrative and errors.
func (s *Service) Locale() string {
	return s.locale
}

// lockedSource lets concurrent contests share one seeded source.
type lockedSource struct {
	mu  sync.Mutex
	src dice.Source
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (s *Service) startSpan(ctx context.Context, name, contestID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("parley.contest_id", contestID),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) assignID(requested string) (string, error) {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed, nil
	}
	return s.newID()
}

func (s *Service) load(ctx context.Context, kind storage.Kind, contestID string, target any) error {
	record, err := s.store.GetContest(ctx, contestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(kind, contestID)
		}
		return err
	}
	if record.Kind != kind {
		return notFound(kind, contestID)
	}
	if err := json.Unmarshal(record.State, target); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, contestID, err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, kind storage.Kind, contestID, status string, state any) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, contestID, err)
	}
	now := s.clock()
	if err := s.store.PutContest(ctx, storage.ContestRecord{
		ID:        contestID,
		Kind:      kind,
		Status:    status,
		Locale:    s.locale,
		State:     encoded,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Printf("save %s %s: %v", kind, contestID, err)
		return err
	}
	return nil
}

func notFound(kind storage.Kind, contestID string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("%s %s not found", kind, contestID),
		map[string]string{"ContestID": contestID})
}

// narrate renders a narrative key for a named target.
func (s *Service) narrate(key, target string) string {
	if key == "" {
		return ""
	}
	return s.catalog.Render(s.locale, key, map[string]string{"Target": target})
}

func (s *Service) observeCheck(subsystem string, result check.Result) {
	s.metrics.ObserveCheck(subsystem, result.Tier.Key(), result.Margin, result.Fumble)
}

func (s *Service) observeTransition(subsystem, contestID, from, to string) {
	if from == to {
		return
	}
	s.metrics.ObserveTransition(subsystem, to)
	log.Printf("%s %s: %s -> %s", subsystem, contestID, from, to)
}

// emit appends deltas, logging failures instead of failing the round that
// already happened.
func (s *Service) emit(ctx context.Context, deltas ...ledger.Delta) {
	for _, delta := range deltas {
		if delta.Amount == 0 {
			continue
		}
		if err := s.ledger.Emit(ctx, delta); err != nil {
			log.Printf("ledger emit %s %s: %v", delta.ContestID, delta.Kind, err)
			continue
		}
		s.metrics.ObserveDelta(string(delta.Kind))
	}
}
