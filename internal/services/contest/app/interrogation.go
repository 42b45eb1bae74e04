package app

import (
	"context"

	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/services/contest/storage"
	"github.com/louisbranch/parley/internal/systems/social/interrogation"
)

const subsystemInterrogation = "interrogation"

// StartInterrogation prepares a session for subject and begins questioning.
func (s *Service) StartInterrogation(ctx context.Context, contestID string, subject interrogation.Subject) (_ *interrogation.Session, err error) {
	contestID, err = s.assignID(contestID)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "interrogation.start", contestID)
	defer func() { endSpan(span, err) }()

	session, err := interrogation.New(contestID, subject)
	if err != nil {
		return nil, err
	}
	session.SetClock(s.clock)
	if err := session.Begin(); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(session.ID)
	defer unlock()
	if err := s.save(ctx, storage.KindInterrogation, session.ID, string(session.Status), session); err != nil {
		return nil, err
	}
	s.observeTransition(subsystemInterrogation, session.ID, "", string(session.Status))
	return session, nil
}

// GetInterrogation loads a session snapshot.
func (s *Service) GetInterrogation(ctx context.Context, contestID string) (*interrogation.Session, error) {
	unlock := s.locks.Lock(contestID)
	defer unlock()
	return s.loadInterrogation(ctx, contestID)
}

func (s *Service) loadInterrogation(ctx context.Context, contestID string) (*interrogation.Session, error) {
	var session interrogation.Session
	if err := s.load(ctx, storage.KindInterrogation, contestID, &session); err != nil {
		return nil, err
	}
	session.SetClock(s.clock)
	return &session, nil
}

// ConductInterrogation runs one round of questioning.
func (s *Service) ConductInterrogation(ctx context.Context, contestID string, in interrogation.RoundInput) (_ Outcome[interrogation.RoundResult], err error) {
	ctx, span := s.startSpan(ctx, "interrogation.conduct", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	session, err := s.loadInterrogation(ctx, contestID)
	if err != nil {
		return Outcome[interrogation.RoundResult]{}, err
	}
	before := session.Status
	result, err := session.Conduct(s.source, in)
	if err != nil {
		return Outcome[interrogation.RoundResult]{}, err
	}

	narrative := s.narrate(result.NarrativeKey, session.SubjectID)
	if last := len(session.History) - 1; last >= 0 {
		session.History[last].Narrative = narrative
		result.Round = session.History[last]
	}
	s.observeCheck(subsystemInterrogation, result.Check)
	at := s.clock()
	s.emit(ctx,
		ledger.Delta{ContestID: session.ID, Subsystem: subsystemInterrogation, Kind: ledger.KindDisposition,
			Amount: result.DispositionDelta, Source: string(result.Method), Round: session.Round, At: at},
		ledger.Delta{ContestID: session.ID, Subsystem: subsystemInterrogation, Kind: ledger.KindReputation,
			Amount: result.ReputationDelta, Source: string(result.Method), Round: session.Round, At: at},
	)

	if err := s.save(ctx, storage.KindInterrogation, session.ID, string(session.Status), session); err != nil {
		return Outcome[interrogation.RoundResult]{}, err
	}
	s.observeTransition(subsystemInterrogation, session.ID, string(before), string(session.Status))
	return Outcome[interrogation.RoundResult]{ContestID: session.ID, Result: result, Narrative: narrative}, nil
}

// QuoteBribe returns the subject's price, fixing it on first call.
func (s *Service) QuoteBribe(ctx context.Context, contestID string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "interrogation.quote_bribe", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	session, err := s.loadInterrogation(ctx, contestID)
	if err != nil {
		return 0, err
	}
	quoted := session.BribeCost > 0
	cost, err := session.QuoteBribe(s.source)
	if err != nil {
		return 0, err
	}
	if !quoted {
		if err := s.save(ctx, storage.KindInterrogation, session.ID, string(session.Status), session); err != nil {
			return 0, err
		}
	}
	return cost, nil
}

// ExtractInformation rolls whether a broken subject's information is true.
func (s *Service) ExtractInformation(ctx context.Context, contestID string) (_ interrogation.Information, err error) {
	ctx, span := s.startSpan(ctx, "interrogation.extract", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	session, err := s.loadInterrogation(ctx, contestID)
	if err != nil {
		return interrogation.Information{}, err
	}
	return session.ExtractInformation(s.source)
}

// AbandonInterrogation ends a session early.
func (s *Service) AbandonInterrogation(ctx context.Context, contestID, reason string) (err error) {
	ctx, span := s.startSpan(ctx, "interrogation.abandon", contestID)
	defer func() { endSpan(span, err) }()
	unlock := s.locks.Lock(contestID)
	defer unlock()

	session, err := s.loadInterrogation(ctx, contestID)
	if err != nil {
		return err
	}
	before := session.Status
	if err := session.Abandon(reason); err != nil {
		return err
	}
	if err := s.save(ctx, storage.KindInterrogation, session.ID, string(session.Status), session); err != nil {
		return err
	}
	s.observeTransition(subsystemInterrogation, session.ID, string(before), string(session.Status))
	return nil
}
