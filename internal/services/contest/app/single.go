package app

import (
	"context"

	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/systems/social/intimidation"
	"github.com/louisbranch/parley/internal/systems/social/lockpicking"
	"github.com/louisbranch/parley/internal/systems/social/protocol"
)

const (
	subsystemIntimidation = "intimidation"
	subsystemLockpicking  = "lockpicking"
	subsystemProtocol     = "protocol"
)

// Single-shot checks keep no snapshot. Each call gets its own ID so its
// ledger deltas can be traced back to it.

// Intimidate resolves one coercion attempt against targetID.
func (s *Service) Intimidate(ctx context.Context, targetID string, in intimidation.Context) (_ Outcome[intimidation.Result], err error) {
	contestID, err := s.newID()
	if err != nil {
		return Outcome[intimidation.Result]{}, err
	}
	ctx, span := s.startSpan(ctx, "intimidation.resolve", contestID)
	defer func() { endSpan(span, err) }()

	result, err := intimidation.Intimidate(s.source, in)
	if err != nil {
		return Outcome[intimidation.Result]{}, err
	}
	s.observeCheck(subsystemIntimidation, result.Check)
	at := s.clock()
	source := string(in.Approach)
	s.emit(ctx,
		ledger.Delta{ContestID: contestID, Subsystem: subsystemIntimidation, Kind: ledger.KindReputation, Amount: result.ReputationCost, Source: source, At: at},
		ledger.Delta{ContestID: contestID, Subsystem: subsystemIntimidation, Kind: ledger.KindDisposition, Amount: result.DispositionDelta, Source: source, At: at},
		ledger.Delta{ContestID: contestID, Subsystem: subsystemIntimidation, Kind: ledger.KindStress, Amount: result.Stress, Source: source, At: at},
	)
	return Outcome[intimidation.Result]{
		ContestID: contestID,
		Result:    result,
		Narrative: s.narrate(result.NarrativeKey, targetID),
	}, nil
}

// PickLock resolves one lock attempt. The returned result carries the
// lock's new state for the caller to keep.
func (s *Service) PickLock(ctx context.Context, in lockpicking.Context) (_ Outcome[lockpicking.Result], err error) {
	contestID, err := s.newID()
	if err != nil {
		return Outcome[lockpicking.Result]{}, err
	}
	ctx, span := s.startSpan(ctx, "lockpicking.attempt", contestID)
	defer func() { endSpan(span, err) }()

	result, err := lockpicking.Attempt(s.source, in)
	if err != nil {
		return Outcome[lockpicking.Result]{}, err
	}
	if result.Status != lockpicking.StatusBlocked {
		s.observeCheck(subsystemLockpicking, result.Check)
	}
	return Outcome[lockpicking.Result]{
		ContestID: contestID,
		Result:    result,
		Narrative: s.narrate(result.NarrativeKey, ""),
	}, nil
}

// ResolveProtocol runs one check under a culture's protocol.
func (s *Service) ResolveProtocol(ctx context.Context, in protocol.Context) (_ Outcome[protocol.Result], err error) {
	contestID, err := s.newID()
	if err != nil {
		return Outcome[protocol.Result]{}, err
	}
	ctx, span := s.startSpan(ctx, "protocol.resolve", contestID)
	defer func() { endSpan(span, err) }()

	result, err := protocol.Resolve(s.source, in)
	if err != nil {
		return Outcome[protocol.Result]{}, err
	}
	// A pending unforgivable breach blocks before any dice are drawn.
	if result.Check.Roll.Pool.Sides > 0 {
		s.observeCheck(subsystemProtocol, result.Check)
	}
	s.emit(ctx, ledger.Delta{
		ContestID: contestID,
		Subsystem: subsystemProtocol,
		Kind:      ledger.KindDisposition,
		Amount:    result.DispositionDelta,
		Source:    string(result.Violation),
		At:        s.clock(),
	})
	return Outcome[protocol.Result]{
		ContestID: contestID,
		Result:    result,
		Narrative: s.narrate(result.NarrativeKey, in.CultureID),
	}, nil
}
