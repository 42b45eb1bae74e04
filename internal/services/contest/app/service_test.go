package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/parley/internal/core/dice"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	"github.com/louisbranch/parley/internal/platform/i18n/catalog"
	"github.com/louisbranch/parley/internal/platform/telemetry/metrics"
	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/services/contest/storage"
	"github.com/louisbranch/parley/internal/systems/social/influence"
	"github.com/louisbranch/parley/internal/testkit/dicefakes"
)

var fixedTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type testService struct {
	*Service
	records  *storage.Memory
	deltas   *ledger.Memory
	recorder *metrics.Recorder
}

func newTestService(t *testing.T, src dice.Source, locale string) testService {
	t.Helper()
	store := storage.NewMemory()
	deltas := &ledger.Memory{}
	recorder := metrics.NewRecorder()
	var mu sync.Mutex
	next := 0
	svc, err := New(Options{
		Store:   store,
		Ledger:  deltas,
		Metrics: recorder,
		Source:  src,
		Locale:  locale,
		Clock:   func() time.Time { return fixedTime },
		NewID: func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			next++
			return fmt.Sprintf("gen-%d", next), nil
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return testService{Service: svc, records: store, deltas: deltas, recorder: recorder}
}

func countSeries(t *testing.T, recorder *metrics.Recorder, name string) int {
	t.Helper()
	count, err := testutil.GatherAndCount(recorder.Registry(), name)
	if err != nil {
		t.Fatalf("gather %s: %v", name, err)
	}
	return count
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Source: dicefakes.Repeat(5)}); err == nil {
		t.Fatal("expected error without store")
	}
	_, err := New(Options{Store: storage.NewMemory()})
	if !errors.Is(err, dice.ErrMissingSource) {
		t.Fatalf("expected missing source error, got %v", err)
	}
}

func TestNewResolvesLocale(t *testing.T) {
	tests := map[string]string{
		"":      catalog.BaseLocale,
		"pt":    "pt-BR",
		"fr-FR": catalog.BaseLocale,
	}
	for requested, want := range tests {
		svc := newTestService(t, dicefakes.Repeat(5), requested)
		if got := svc.Locale(); got != want {
			t.Errorf("locale for %q = %q, want %q", requested, got, want)
		}
	}
}

func TestLoadRejectsWrongKind(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	ctx := context.Background()
	inf, err := svc.StartInfluence(ctx, influence.Start{
		TargetID:   "target-1",
		Belief:     "the duke is just",
		Conviction: influence.ConvictionWeakOpinion,
	})
	if err != nil {
		t.Fatalf("start influence: %v", err)
	}
	if _, err := svc.GetNegotiation(ctx, inf.State.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for wrong kind, got %v", err)
	}
	if _, err := svc.GetInfluence(ctx, "missing"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing contest, got %v", err)
	}
}

func TestLocalizeError(t *testing.T) {
	terminal := apperrors.WithMetadata(apperrors.CodeContestTerminal, "done",
		map[string]string{"ContestID": "c1", "Status": "succeeded"})

	en := newTestService(t, dicefakes.Repeat(5), "en-US")
	if got := en.LocalizeError(terminal); got != "Contest c1 has already ended (succeeded)." {
		t.Fatalf("en-US message = %q", got)
	}
	if got := en.LocalizeError(nil); got != "" {
		t.Fatalf("nil error message = %q", got)
	}
	unknown := en.LocalizeError(errors.New("disk on fire"))
	if unknown == "" || unknown == "disk on fire" {
		t.Fatalf("expected generic message, got %q", unknown)
	}

	pt := newTestService(t, dicefakes.Repeat(5), "pt-BR")
	if got := pt.LocalizeError(terminal); got == en.LocalizeError(terminal) {
		t.Fatalf("expected translated message, got %q", got)
	}
}

func TestStatusError(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	wrapped := fmt.Errorf("play: %w", apperrors.WithMetadata(apperrors.CodeNegotiationClosed, "closed",
		map[string]string{"ContestID": "n1"}))

	st := status.Convert(svc.StatusError(wrapped))
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition", st.Code())
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil {
		t.Fatal("expected localized message detail")
	}
	if localized.Message != "Negotiation n1 has already ended." {
		t.Fatalf("localized message = %q", localized.Message)
	}

	if got := status.Code(svc.StatusError(errors.New("boom"))); got != codes.Internal {
		t.Fatalf("plain error code = %v, want Internal", got)
	}
	if svc.StatusError(nil) != nil {
		t.Fatal("expected nil status for nil error")
	}
}

func TestConcurrentRoundsAreSerialized(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	ctx := context.Background()
	inf, err := svc.StartInfluence(ctx, influence.Start{
		ID:         "inf-1",
		TargetID:   "target-1",
		Belief:     "trade is theft",
		Conviction: influence.ConvictionModerateBelief,
	})
	if err != nil {
		t.Fatalf("start influence: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AttemptInfluence(ctx, inf.State.ID, influence.Attempt{Attribute: 2, Skill: 1}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("attempt: %v", err)
	}

	loaded, err := svc.GetInfluence(ctx, inf.State.ID)
	if err != nil {
		t.Fatalf("get influence: %v", err)
	}
	if got := len(loaded.State.History); got != attempts {
		t.Fatalf("history = %d rounds, want %d", got, attempts)
	}
	for i, round := range loaded.State.History {
		if round.Number != i+1 {
			t.Fatalf("round %d numbered %d", i, round.Number)
		}
	}
	if size := svc.locks.size(); size != 0 {
		t.Fatalf("expected released locks, got %d held", size)
	}
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	locks := newKeyedMutex()
	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	if got := locks.size(); got != 2 {
		t.Fatalf("size = %d, want 2", got)
	}

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := locks.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()
	select {
	case <-acquired:
		t.Fatal("second lock on the same key acquired early")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-acquired
	<-released
	unlockB()

	if got := locks.size(); got != 0 {
		t.Fatalf("size = %d, want 0", got)
	}
}
