// Package contest implements the extended contest state machine.
//
// An extended contest accumulates one-way progress toward a threshold while
// failures raise a capped resistance that makes every later check harder.
// The same structure drives sustained persuasion and any other multi-round
// interaction whose termination rules are "fill the pool" or "run out of
// room to try".
//
// # Lifecycle
//
//	Active -> Succeeded | Failed | Stalled
//	Stalled -> Active | Failed
//
// Succeeded and Failed are terminal: every mutating method rejects with a
// domain error once either is reached.
package contest

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Status is the lifecycle state of a contest.
type Status string

// Contest statuses.
const (
	StatusActive    Status = "active"
	StatusStalled   Status = "stalled"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further mutation is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// DefaultMaxResistance caps resistance when a config leaves it unset.
const DefaultMaxResistance = 6

// Rate is a resistance increase per failure, counted in half points so
// fractional rates accumulate without drift.
type Rate int

// Common resistance rates.
const (
	RateNone Rate = 0
	RateHalf Rate = 1
	RateOne  Rate = 2
	RateTwo  Rate = 4
)

// Config holds the fixed parameters of a new contest.
type Config struct {
	ID             string
	Threshold      int
	BaseDifficulty int
	MaxResistance  int
	Rate           Rate
	Now            func() time.Time
}

// State is the plain-data contest state. It is safe to serialize and
// restore; the clock is the only field that does not round-trip.
type State struct {
	ID                     string     `json:"id"`
	Threshold              int        `json:"threshold"`
	BaseDifficulty         int        `json:"base_difficulty"`
	Pool                   int        `json:"pool"`
	Resistance             int        `json:"resistance"`
	MaxResistance          int        `json:"max_resistance"`
	Rate                   Rate       `json:"rate"`
	RateRemainder          int        `json:"rate_remainder"`
	Status                 Status     `json:"status"`
	Round                  int        `json:"round"`
	Interactions           int        `json:"interactions"`
	SuccessfulInteractions int        `json:"successful_interactions"`
	StallReason            string     `json:"stall_reason,omitempty"`
	ResumeCondition        string     `json:"resume_condition,omitempty"`
	FailureReason          string     `json:"failure_reason,omitempty"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	Closed                 bool       `json:"closed"`
	History                []Round    `json:"history"`

	now func() time.Time
}

// NewState validates cfg and returns an Active contest with an empty pool.
func NewState(cfg Config) (*State, error) {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "contest id is required")
	}
	if cfg.Threshold <= 0 {
		return nil, apperrors.New(apperrors.CodeContestInvalidConfig, "threshold must be positive")
	}
	if cfg.MaxResistance < 0 {
		return nil, apperrors.New(apperrors.CodeContestInvalidConfig, "max resistance must be non-negative")
	}
	if cfg.Rate < 0 {
		return nil, apperrors.New(apperrors.CodeContestInvalidConfig, "resistance rate must be non-negative")
	}
	maxResistance := cfg.MaxResistance
	if maxResistance == 0 {
		maxResistance = DefaultMaxResistance
	}
	return &State{
		ID:             id,
		Threshold:      cfg.Threshold,
		BaseDifficulty: cfg.BaseDifficulty,
		MaxResistance:  maxResistance,
		Rate:           cfg.Rate,
		Status:         StatusActive,
		History:        []Round{},
		now:            cfg.Now,
	}, nil
}

// SetClock replaces the clock used to stamp completion and rounds.
func (s *State) SetClock(now func() time.Time) {
	s.now = now
}

func (s *State) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// AddToPool adds progress. Non-positive amounts are no-ops.
//
// Reaching the threshold transitions the contest to Succeeded and stamps
// CompletedAt.
func (s *State) AddToPool(amount int) error {
	if err := s.requireActive("add to pool"); err != nil {
		return err
	}
	if amount <= 0 {
		return nil
	}
	s.Pool += amount
	s.Interactions++
	s.SuccessfulInteractions++
	if s.Pool >= s.Threshold {
		s.Status = StatusSucceeded
		s.complete()
	}
	return nil
}

// IncrementResistance applies one failure's worth of resistance and
// returns the integer increase applied by this call.
//
// Fractional rates carry their remainder to the next call. Resistance never
// exceeds MaxResistance. At the cap, a contest below half of its threshold
// fails; one at or above half stays Active.
func (s *State) IncrementResistance() (int, error) {
	if err := s.requireActive("increment resistance"); err != nil {
		return 0, err
	}
	s.Interactions++
	s.RateRemainder += int(s.Rate)
	increase := s.RateRemainder / 2
	s.RateRemainder %= 2

	next := min(s.Resistance+increase, s.MaxResistance)
	applied := next - s.Resistance
	s.Resistance = next

	if s.Resistance >= s.MaxResistance && !s.pastHalfway() {
		s.Status = StatusFailed
		s.FailureReason = "resistance reached its maximum"
		s.complete()
	}
	return applied, nil
}

// Stall pauses an Active contest until its resume condition is met.
func (s *State) Stall(reason, resumeCondition string) error {
	if err := s.requireActive("stall"); err != nil {
		return err
	}
	s.Status = StatusStalled
	s.StallReason = strings.TrimSpace(reason)
	s.ResumeCondition = strings.TrimSpace(resumeCondition)
	return nil
}

// Resume reactivates a Stalled contest, lowering resistance by reduction
// (floored at zero).
func (s *State) Resume(reduction int) error {
	if s.Status != StatusStalled {
		return apperrors.WithMetadata(
			apperrors.CodeContestNotStalled,
			fmt.Sprintf("contest %s cannot resume from %s", s.ID, s.Status),
			map[string]string{"ContestID": s.ID, "Status": string(s.Status)},
		)
	}
	s.StallReason = ""
	s.ResumeCondition = ""
	if reduction > 0 {
		s.Resistance = max(0, s.Resistance-reduction)
	}
	s.Status = StatusActive
	return nil
}

// Fail ends an Active or Stalled contest.
func (s *State) Fail(reason string) error {
	if s.Status.IsTerminal() {
		return s.terminalError("fail")
	}
	s.Status = StatusFailed
	s.FailureReason = strings.TrimSpace(reason)
	if s.FailureReason == "" {
		s.FailureReason = "abandoned"
	}
	s.complete()
	s.Closed = true
	return nil
}

// Record appends an immutable round record.
//
// The round that drove the contest into a terminal status may still be
// recorded; after that the history is closed.
func (s *State) Record(round Round) error {
	if s.Closed {
		return s.terminalError("record round")
	}
	round.Number = len(s.History) + 1
	round.Dice = append([]int(nil), round.Dice...)
	if round.At.IsZero() {
		round.At = s.clock()
	}
	s.History = append(s.History, round)
	s.Round = round.Number
	if s.Status.IsTerminal() {
		s.Closed = true
	}
	return nil
}

// ProgressPercentage returns pool progress as a whole percentage, capped at 100.
func (s *State) ProgressPercentage() int {
	if s.Threshold <= 0 {
		return 0
	}
	return min(100, s.Pool*100/s.Threshold)
}

// Remaining returns the distance from the pool to the threshold.
func (s *State) Remaining() int {
	return max(0, s.Threshold-s.Pool)
}

// EffectiveDifficulty is the base tier difficulty raised by resistance.
func (s *State) EffectiveDifficulty() int {
	return s.BaseDifficulty + s.Resistance
}

// EstimatedRoundsRemaining estimates how many rounds fill the pool given an
// average per-round progress. Non-positive averages count as 1.
func (s *State) EstimatedRoundsRemaining(average int) int {
	if average <= 0 {
		average = 1
	}
	remaining := s.Remaining()
	return (remaining + average - 1) / average
}

// CanSucceed reports whether the pool can still be filled within maxRounds
// total rounds at the given average progress.
func (s *State) CanSucceed(maxRounds, average int) bool {
	switch s.Status {
	case StatusSucceeded:
		return true
	case StatusFailed:
		return false
	}
	return s.EstimatedRoundsRemaining(average) <= maxRounds-s.Round
}

// Snapshot returns a deep copy suitable for persistence or handing to
// collaborators.
func (s *State) Snapshot() State {
	out := *s
	out.History = make([]Round, len(s.History))
	for i, round := range s.History {
		round.Dice = append([]int(nil), round.Dice...)
		out.History[i] = round
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

func (s *State) pastHalfway() bool {
	return s.Pool*2 >= s.Threshold
}

func (s *State) complete() {
	at := s.clock()
	s.CompletedAt = &at
}

func (s *State) requireActive(op string) error {
	if s.Status.IsTerminal() {
		return s.terminalError(op)
	}
	if s.Status != StatusActive {
		return apperrors.WithMetadata(
			apperrors.CodeContestNotActive,
			fmt.Sprintf("contest %s cannot %s while %s", s.ID, op, s.Status),
			map[string]string{"ContestID": s.ID, "Status": string(s.Status), "Operation": op},
		)
	}
	return nil
}

func (s *State) terminalError(op string) error {
	return apperrors.WithMetadata(
		apperrors.CodeContestTerminal,
		fmt.Sprintf("contest %s is %s and cannot %s", s.ID, s.Status, op),
		map[string]string{"ContestID": s.ID, "Status": string(s.Status), "Operation": op},
	)
}
