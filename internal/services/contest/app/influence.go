package app

import (
	"context"

	"github.com/louisbranch/parley/internal/core/contest"
	"github.com/louisbranch/parley/internal/services/contest/storage"
	"github.com/louisbranch/parley/internal/systems/social/influence"
)

const subsystemInfluence = "influence"

// StartInfluence opens and saves an influence contest.
func (s *Service) StartInfluence(ctx context.Context, start influence.Start) (_ *influence.Influence, err error) {
	start.ID, err = s.assignID(start.ID)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "influence.start", start.ID)
	defer func() { endSpan(span, err) }()

	inf, err := influence.New(start)
	if err != nil {
		return nil, err
	}
	inf.State.SetClock(s.clock)
	unlock := s.locks.Lock(inf.State.ID)
	defer unlock()
	if err := s.save(ctx, storage.KindInfluence, inf.State.ID, string(inf.State.Status), inf); err != nil {
		return nil, err
	}
	s.observeTransition(subsystemInfluence, inf.State.ID, "", string(inf.State.Status))
	return inf, nil
}

// GetInfluence loads an influence snapshot.
func (s *Service) GetInfluence(ctx context.Context, contestID string) (*influence.Influence, error) {
	unlock := s.locks.Lock(contestID)
	defer unlock()
	return s.loadInfluence(ctx, contestID)
}

func (s *Service) loadInfluence(ctx context.Context, contestID string) (*influence.Influence, error) {
	var inf influence.Influence
	if err := s.load(ctx, storage.KindInfluence, contestID, &inf); err != nil {
		return nil, err
	}
	inf.State.SetClock(s.clock)
	return &inf, nil
}

// AttemptInfluence resolves one persuasion attempt.
func (s *Service) AttemptInfluence(ctx context.Context, contestID string, attempt influence.Attempt) (_ Outcome[influence.AttemptResult], err error) {
	ctx, span := s.startSpan(ctx, "influence.attempt", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	inf, err := s.loadInfluence(ctx, contestID)
	if err != nil {
		return Outcome[influence.AttemptResult]{}, err
	}
	before := inf.State.Status
	result, err := inf.Attempt(s.source, attempt)
	if err != nil {
		return Outcome[influence.AttemptResult]{}, err
	}
	narrative := s.narrate(result.NarrativeKey, inf.TargetID)
	if result.Satisfied {
		return Outcome[influence.AttemptResult]{ContestID: contestID, Result: result, Narrative: narrative}, nil
	}

	history := inf.State.History
	if last := len(history) - 1; last >= 0 {
		history[last].Narrative = narrative
		result.Round = history[last]
	}
	s.observeCheck(subsystemInfluence, result.Check)
	if err := s.save(ctx, storage.KindInfluence, contestID, string(inf.State.Status), inf); err != nil {
		return Outcome[influence.AttemptResult]{}, err
	}
	s.observeTransition(subsystemInfluence, contestID, string(before), string(inf.State.Status))
	return Outcome[influence.AttemptResult]{ContestID: contestID, Result: result, Narrative: narrative}, nil
}

// StallInfluence pauses a contest until resumeCondition is met.
func (s *Service) StallInfluence(ctx context.Context, contestID, reason, resumeCondition string) error {
	return s.mutateInfluence(ctx, "influence.stall", contestID, func(inf *influence.Influence) error {
		return inf.Stall(reason, resumeCondition)
	})
}

// ResumeInfluence reactivates a stalled contest.
func (s *Service) ResumeInfluence(ctx context.Context, contestID string, reduction int) error {
	return s.mutateInfluence(ctx, "influence.resume", contestID, func(inf *influence.Influence) error {
		return inf.Resume(reduction)
	})
}

// AbandonInfluence fails a contest.
func (s *Service) AbandonInfluence(ctx context.Context, contestID, reason string) error {
	return s.mutateInfluence(ctx, "influence.abandon", contestID, func(inf *influence.Influence) error {
		return inf.Abandon(reason)
	})
}

func (s *Service) mutateInfluence(ctx context.Context, spanName, contestID string, mutate func(*influence.Influence) error) (err error) {
	ctx, span := s.startSpan(ctx, spanName, contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	inf, err := s.loadInfluence(ctx, contestID)
	if err != nil {
		return err
	}
	before := inf.State.Status
	if err := mutate(inf); err != nil {
		return err
	}
	if err := s.save(ctx, storage.KindInfluence, contestID, string(inf.State.Status), inf); err != nil {
		return err
	}
	s.observeTransition(subsystemInfluence, contestID, string(before), string(inf.State.Status))
	return nil
}

// InfluenceOutlook reports whether a contest can still succeed within
// maxRounds at the given average progress per success.
type InfluenceOutlook struct {
	Status          contest.Status
	Progress        int
	Remaining       int
	EstimatedRounds int
	CanSucceed      bool
}

// OutlookInfluence summarizes a contest's prospects.
func (s *Service) OutlookInfluence(ctx context.Context, contestID string, maxRounds, average int) (InfluenceOutlook, error) {
	inf, err := s.GetInfluence(ctx, contestID)
	if err != nil {
		return InfluenceOutlook{}, err
	}
	return InfluenceOutlook{
		Status:          inf.State.Status,
		Progress:        inf.State.ProgressPercentage(),
		Remaining:       inf.State.Remaining(),
		EstimatedRounds: inf.EstimatedRoundsRemaining(average),
		CanSucceed:      inf.State.CanSucceed(maxRounds, average),
	}, nil
}
