package app

import (
	"context"
	"time"

	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/services/contest/storage"
	"github.com/louisbranch/parley/internal/systems/social/negotiation"
)

const subsystemNegotiation = "negotiation"

// StartNegotiation opens and saves a negotiation. An empty ID is generated.
func (s *Service) StartNegotiation(ctx context.Context, start negotiation.Start) (_ *negotiation.Negotiation, err error) {
	start.ID, err = s.assignID(start.ID)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "negotiation.start", start.ID)
	defer func() { endSpan(span, err) }()

	n, err := negotiation.New(start)
	if err != nil {
		return nil, err
	}
	n.SetClock(s.clock)
	unlock := s.locks.Lock(n.ID)
	defer unlock()
	if err := s.save(ctx, storage.KindNegotiation, n.ID, string(n.Status), n); err != nil {
		return nil, err
	}
	s.observeTransition(subsystemNegotiation, n.ID, "", string(n.Status))
	return n, nil
}

// GetNegotiation loads a negotiation snapshot.
func (s *Service) GetNegotiation(ctx context.Context, contestID string) (*negotiation.Negotiation, error) {
	unlock := s.locks.Lock(contestID)
	defer unlock()
	return s.loadNegotiation(ctx, contestID)
}

func (s *Service) loadNegotiation(ctx context.Context, contestID string) (*negotiation.Negotiation, error) {
	var n negotiation.Negotiation
	if err := s.load(ctx, storage.KindNegotiation, contestID, &n); err != nil {
		return nil, err
	}
	n.SetClock(s.clock)
	return &n, nil
}

// PlayNegotiation resolves one round, emits its costs, and saves the result.
func (s *Service) PlayNegotiation(ctx context.Context, contestID string, play negotiation.Play) (_ Outcome[negotiation.RoundResult], err error) {
	ctx, span := s.startSpan(ctx, "negotiation.play", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	n, err := s.loadNegotiation(ctx, contestID)
	if err != nil {
		return Outcome[negotiation.RoundResult]{}, err
	}
	before := n.Status
	result, err := n.Play(s.source, play)
	if err != nil {
		return Outcome[negotiation.RoundResult]{}, err
	}

	narrative := s.narrate(result.NarrativeKey, n.NPCID)
	if last := len(n.History) - 1; last >= 0 {
		n.History[last].Narrative = narrative
		result.Record = n.History[last]
	}
	if result.Rolled {
		s.observeCheck(subsystemNegotiation, result.Check)
	}
	s.emit(ctx, costDeltas(n.ID, n.Round, string(result.Tactic), result.Costs, s.clock())...)

	if err := s.save(ctx, storage.KindNegotiation, n.ID, string(n.Status), n); err != nil {
		return Outcome[negotiation.RoundResult]{}, err
	}
	s.observeTransition(subsystemNegotiation, n.ID, string(before), string(n.Status))
	return Outcome[negotiation.RoundResult]{ContestID: n.ID, Result: result, Narrative: narrative}, nil
}

// AbandonNegotiation forces a collapse.
func (s *Service) AbandonNegotiation(ctx context.Context, contestID, reason string) (err error) {
	ctx, span := s.startSpan(ctx, "negotiation.abandon", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	n, err := s.loadNegotiation(ctx, contestID)
	if err != nil {
		return err
	}
	before := n.Status
	if err := n.Abandon(reason); err != nil {
		return err
	}
	if err := s.save(ctx, storage.KindNegotiation, n.ID, string(n.Status), n); err != nil {
		return err
	}
	s.observeTransition(subsystemNegotiation, n.ID, string(before), string(n.Status))
	return nil
}

// FinalizeNegotiation totals a finished negotiation.
func (s *Service) FinalizeNegotiation(ctx context.Context, contestID string) (_ negotiation.Result, err error) {
	ctx, span := s.startSpan(ctx, "negotiation.finalize", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	n, err := s.loadNegotiation(ctx, contestID)
	if err != nil {
		return negotiation.Result{}, err
	}
	return n.Finalize()
}

func costDeltas(contestID string, round int, source string, costs negotiation.Costs, at time.Time) []ledger.Delta {
	base := ledger.Delta{ContestID: contestID, Subsystem: subsystemNegotiation, Source: source, Round: round, At: at}
	stress, reputation, disposition := base, base, base
	stress.Kind, stress.Amount = ledger.KindStress, costs.Stress
	reputation.Kind, reputation.Amount = ledger.KindReputation, costs.Reputation
	disposition.Kind, disposition.Amount = ledger.KindDisposition, costs.Disposition
	return []ledger.Delta{stress, reputation, disposition}
}
