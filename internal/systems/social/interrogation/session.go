// Package interrogation runs multi-round questioning of a resisting subject.
//
// Resistance starts from the subject's effective WILL and drops by one on
// every successful round. The subject breaks at zero; running out of rounds
// leaves them resisting. Methods trade speed against the reliability of
// what the subject eventually says.
package interrogation

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/contest"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/core/modifier"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Status is the lifecycle status of an interrogation.
type Status string

// Interrogation statuses.
const (
	StatusNotStarted       Status = "not_started"
	StatusInProgress       Status = "in_progress"
	StatusSubjectBroken    Status = "subject_broken"
	StatusSubjectResisting Status = "subject_resisting"
	StatusAbandoned        Status = "abandoned"
)

// IsTerminal reports whether no more rounds can be conducted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSubjectBroken, StatusSubjectResisting, StatusAbandoned:
		return true
	default:
		return false
	}
}

// Subject is the person being questioned.
type Subject struct {
	ID        string
	Will      int
	Modifiers int
}

// Session is the plain-data interrogation state.
type Session struct {
	ID                string          `json:"id"`
	SubjectID         string          `json:"subject_id"`
	EffectiveWill     int             `json:"effective_will"`
	Tier              ResistanceTier  `json:"tier"`
	InitialResistance int             `json:"initial_resistance"`
	Resistance        int             `json:"resistance"`
	MaxRounds         int             `json:"max_rounds"`
	Round             int             `json:"round"`
	Status            Status          `json:"status"`
	MethodCounts      map[Method]int  `json:"method_counts"`
	TortureUsed       bool            `json:"torture_used"`
	Fumble            FumbleType      `json:"fumble,omitempty"`
	Reputation        int             `json:"reputation"`
	Disposition       int             `json:"disposition"`
	Minutes           int             `json:"minutes"`
	BribeCost         int             `json:"bribe_cost,omitempty"`
	AbandonReason     string          `json:"abandon_reason,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	History           []contest.Round `json:"history"`

	now func() time.Time
}

// New prepares a session for a subject. It starts NotStarted.
func New(id string, subject Subject) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "interrogation id is required")
	}
	if strings.TrimSpace(subject.ID) == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "subject id is required")
	}
	will := EffectiveWill(subject.Will, subject.Modifiers)
	tier := TierForWill(will)
	resistance := InitialResistance(tier, will)
	return &Session{
		ID:                id,
		SubjectID:         strings.TrimSpace(subject.ID),
		EffectiveWill:     will,
		Tier:              tier,
		InitialResistance: resistance,
		Resistance:        resistance,
		MaxRounds:         tier.Profile().MaxRounds,
		Status:            StatusNotStarted,
		MethodCounts:      map[Method]int{},
		History:           []contest.Round{},
	}, nil
}

// SetClock replaces the clock used to stamp rounds and completion.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Begin moves a NotStarted session into progress.
func (s *Session) Begin() error {
	if s.Status != StatusNotStarted {
		return s.notInProgress("begin")
	}
	s.Status = StatusInProgress
	return nil
}

// QuoteBribe fixes the subject's price on first call and returns it.
//
// The price is the tier's base cost scaled by a factor between 0.8 and 1.2
// drawn from src.
func (s *Session) QuoteBribe(src dice.Source) (int, error) {
	if s.BribeCost > 0 {
		return s.BribeCost, nil
	}
	if src == nil {
		return 0, dice.ErrMissingSource
	}
	base := s.Tier.Profile().BribeCost
	u := src.Intn(1001)
	s.BribeCost = base * (800 + 400*u/1000) / 1000
	return s.BribeCost, nil
}

// RoundInput describes one questioning round.
type RoundInput struct {
	Method    Method
	Attribute int
	Skill     int
	// Might replaces Attribute and Skill for torture.
	Might     int
	Situation []modifier.Entry
}

// RoundResult is the immutable outcome of one round.
type RoundResult struct {
	Method           Method
	Check            check.Result
	Tier             check.Tier
	Difficulty       int
	DicePool         int
	ResistanceDelta  int
	Resistance       int
	Status           Status
	DispositionDelta int
	ReputationDelta  int
	Fumble           FumbleType
	Minutes          int
	BribeCost        int
	NarrativeKey     string
	Round            contest.Round
}

// Conduct runs one round of questioning.
func (s *Session) Conduct(src dice.Source, in RoundInput) (RoundResult, error) {
	if s.Status != StatusInProgress {
		return RoundResult{}, s.notInProgress("conduct a round")
	}
	method, err := ParseMethod(string(in.Method))
	if err != nil {
		return RoundResult{}, err
	}
	profile := method.Profile()

	result := RoundResult{Method: method, Minutes: profile.Minutes}
	if method == MethodBribery {
		cost, err := s.QuoteBribe(src)
		if err != nil {
			return RoundResult{}, err
		}
		result.BribeCost = cost
	}

	stack := &modifier.Stack{}
	for _, entry := range in.Situation {
		if err := stack.Add(entry); err != nil {
			return RoundResult{}, err
		}
	}
	baseDifficulty := profile.Difficulty
	basePool := in.Attribute + in.Skill
	if profile.UsesMight {
		baseDifficulty = s.EffectiveWill * TortureDifficultyMultiplier
		basePool = in.Might
	}
	result.Difficulty = modifier.Difficulty(baseDifficulty, stack)
	result.DicePool = modifier.DicePool(basePool, stack)

	resolved, err := check.Resolve(src, check.Check{
		Pool:       dice.NewPool(result.DicePool),
		Difficulty: result.Difficulty,
		Fumbles:    true,
	})
	if err != nil {
		return RoundResult{}, err
	}
	result.Check = resolved
	result.Tier = resolved.Tier
	result.DispositionDelta = profile.Disposition
	result.ReputationDelta = profile.Reputation

	s.Round++
	s.MethodCounts[method]++
	s.Minutes += profile.Minutes
	if method == MethodTorture {
		s.TortureUsed = true
	}

	switch {
	case resolved.Fumble:
		result.Fumble = profile.Fumble
		s.Fumble = profile.Fumble
		if method == MethodTorture {
			result.ReputationDelta += TortureFumbleReputation
			s.Status = StatusAbandoned
			s.AbandonReason = "subject broke under torture"
		} else {
			result.DispositionDelta += FumbleDisposition
		}
		result.NarrativeKey = "interrogation.fumble." + string(profile.Fumble)
	case resolved.Tier.IsSuccess():
		s.Resistance--
		result.ResistanceDelta = -1
		if s.Resistance <= 0 {
			s.Resistance = 0
			s.Status = StatusSubjectBroken
		}
		result.NarrativeKey = "interrogation." + string(method) + ".success"
	default:
		result.NarrativeKey = "interrogation." + string(method) + ".failure"
	}
	if s.Status == StatusInProgress && s.Round >= s.MaxRounds {
		s.Status = StatusSubjectResisting
	}
	if s.Status == StatusSubjectBroken {
		result.NarrativeKey = "interrogation.broken"
	}
	s.Reputation += result.ReputationDelta
	s.Disposition += result.DispositionDelta
	if s.Status.IsTerminal() {
		s.complete()
	}

	round := contest.FromResult(string(method), resolved)
	round.Number = len(s.History) + 1
	round.ResistanceDelta = result.ResistanceDelta
	round.NarrativeKey = result.NarrativeKey
	round.At = s.clock()
	s.History = append(s.History, round)

	result.Resistance = s.Resistance
	result.Status = s.Status
	result.Round = round
	return result, nil
}

// PrimaryMethod returns the most used method. Ties go to the earlier method
// in Methods; a session with no rounds reports GoodCop.
func (s *Session) PrimaryMethod() Method {
	primary := MethodGoodCop
	best := 0
	for _, method := range Methods {
		if count := s.MethodCounts[method]; count > best {
			primary = method
			best = count
		}
	}
	return primary
}

// Reliability returns the chance, in percent, that extracted information is
// true. Any use of torture caps it.
func (s *Session) Reliability() int {
	reliability := s.PrimaryMethod().Profile().Reliability
	if s.TortureUsed {
		reliability = min(reliability, TortureReliabilityCap)
	}
	return reliability
}

// Information is what a broken subject gives up.
type Information struct {
	Reliable    bool
	Roll        int
	Reliability int
}

// ExtractInformation rolls d100 against reliability. Only broken subjects talk.
func (s *Session) ExtractInformation(src dice.Source) (Information, error) {
	if s.Status != StatusSubjectBroken {
		return Information{}, apperrors.WithMetadata(apperrors.CodeContestNotActive,
			fmt.Sprintf("interrogation %s has not broken its subject", s.ID),
			map[string]string{"ContestID": s.ID, "Status": string(s.Status), "Operation": "extract information"})
	}
	roll, err := dice.RollD100(src)
	if err != nil {
		return Information{}, err
	}
	reliability := s.Reliability()
	return Information{Reliable: roll <= reliability, Roll: roll, Reliability: reliability}, nil
}

// Abandon ends a session that has not yet concluded.
func (s *Session) Abandon(reason string) error {
	if s.Status.IsTerminal() {
		return s.notInProgress("abandon")
	}
	s.Status = StatusAbandoned
	s.AbandonReason = strings.TrimSpace(reason)
	if s.AbandonReason == "" {
		s.AbandonReason = "abandoned"
	}
	s.complete()
	return nil
}

// Result summarizes a session.
type Result struct {
	Status        Status
	Rounds        int
	Resistance    int
	PrimaryMethod Method
	Reliability   int
	TortureUsed   bool
	Fumble        FumbleType
	Reputation    int
	Disposition   int
	Minutes       int
}

// Result returns the session summary.
func (s *Session) Result() Result {
	return Result{
		Status:        s.Status,
		Rounds:        s.Round,
		Resistance:    s.Resistance,
		PrimaryMethod: s.PrimaryMethod(),
		Reliability:   s.Reliability(),
		TortureUsed:   s.TortureUsed,
		Fumble:        s.Fumble,
		Reputation:    s.Reputation,
		Disposition:   s.Disposition,
		Minutes:       s.Minutes,
	}
}

func (s *Session) complete() {
	at := s.clock()
	s.CompletedAt = &at
}

func (s *Session) notInProgress(op string) error {
	return apperrors.WithMetadata(apperrors.CodeInterrogationNotInProgress,
		fmt.Sprintf("interrogation %s cannot %s while %s", s.ID, op, s.Status),
		map[string]string{"ContestID": s.ID, "Status": string(s.Status), "Operation": op})
}
