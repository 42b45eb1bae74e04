// Package influence runs sustained persuasion against a held belief.
//
// Each conviction tier fixes the base difficulty, the influence pool needed
// to change the belief, and how fast resistance grows on failure. The
// contest itself is a contest.State; this package only adds the tier table
// and the attempt rules.
package influence

import (
	"fmt"
	"strings"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/contest"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/core/modifier"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Conviction grades how firmly a belief is held.
type Conviction string

// Conviction tiers.
const (
	ConvictionWeakOpinion      Conviction = "weak_opinion"
	ConvictionModerateBelief   Conviction = "moderate_belief"
	ConvictionStrongConviction Conviction = "strong_conviction"
	ConvictionCoreBelief       Conviction = "core_belief"
	ConvictionFanatical        Conviction = "fanatical"
)

// Profile is the fixed table row for one conviction tier.
type Profile struct {
	Difficulty int
	Threshold  int
	Rate       contest.Rate
}

var profiles = map[Conviction]Profile{
	ConvictionWeakOpinion:      {Difficulty: 10, Threshold: 5, Rate: contest.RateNone},
	ConvictionModerateBelief:   {Difficulty: 12, Threshold: 10, Rate: contest.RateNone},
	ConvictionStrongConviction: {Difficulty: 14, Threshold: 15, Rate: contest.RateHalf},
	ConvictionCoreBelief:       {Difficulty: 16, Threshold: 20, Rate: contest.RateOne},
	ConvictionFanatical:        {Difficulty: 18, Threshold: 25, Rate: contest.RateTwo},
}

// MaxResistance caps resistance for every conviction tier.
const MaxResistance = 6

// ParseConviction validates a conviction tag.
func ParseConviction(value string) (Conviction, error) {
	conviction := Conviction(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := profiles[conviction]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("conviction %q is not supported", value),
			map[string]string{"Tier": value})
	}
	return conviction, nil
}

// Profile returns the conviction's table row.
func (c Conviction) Profile() Profile {
	return profiles[c]
}

// Start describes a new influence contest.
type Start struct {
	ID         string
	TargetID   string
	Belief     string
	Conviction Conviction
	// LifeEvent marks that the target has lived through something that
	// opens a fanatical belief to change.
	LifeEvent bool
}

// Influence is a persuasion contest against one target's belief.
type Influence struct {
	TargetID   string        `json:"target_id"`
	Belief     string        `json:"belief"`
	Conviction Conviction    `json:"conviction"`
	LifeEvent  bool          `json:"life_event"`
	State      contest.State `json:"state"`
}

// New validates the request and opens an Active contest.
func New(start Start) (*Influence, error) {
	conviction, err := ParseConviction(string(start.Conviction))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(start.TargetID) == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "target id is required")
	}
	if conviction == ConvictionFanatical && !start.LifeEvent {
		return nil, apperrors.WithMetadata(apperrors.CodeInfluenceLifeEventRequired,
			"fanatical beliefs only move after a life event",
			map[string]string{"TargetID": start.TargetID})
	}
	profile := conviction.Profile()
	state, err := contest.NewState(contest.Config{
		ID:             start.ID,
		Threshold:      profile.Threshold,
		BaseDifficulty: profile.Difficulty,
		MaxResistance:  MaxResistance,
		Rate:           profile.Rate,
	})
	if err != nil {
		return nil, err
	}
	return &Influence{
		TargetID:   strings.TrimSpace(start.TargetID),
		Belief:     strings.TrimSpace(start.Belief),
		Conviction: conviction,
		LifeEvent:  start.LifeEvent,
		State:      *state,
	}, nil
}

// Attempt is one persuasion attempt.
type Attempt struct {
	Method    string
	Attribute int
	Skill     int
	Situation []modifier.Entry
}

// AttemptResult is the immutable outcome of one attempt.
type AttemptResult struct {
	Check           check.Result
	Tier            check.Tier
	Difficulty      int
	DicePool        int
	ProgressDelta   int
	ResistanceDelta int
	Status          contest.Status
	Pool            int
	Threshold       int
	Resistance      int
	Progress        int
	// Satisfied marks a no-op attempt against an already changed belief.
	Satisfied    bool
	NarrativeKey string
	Round        contest.Round
}

// Attempt resolves one persuasion attempt.
//
// The check runs against the tier difficulty raised by current resistance
// and never fumbles. A success adds its margin (at least one) to the pool; a
// failure grows resistance. Attempts against a belief that has already
// changed are no-ops.
func (i *Influence) Attempt(src dice.Source, attempt Attempt) (AttemptResult, error) {
	if i.State.Status == contest.StatusSucceeded {
		return i.snapshotResult(AttemptResult{Satisfied: true, NarrativeKey: "influence.satisfied"}), nil
	}
	if i.State.Status != contest.StatusActive {
		return AttemptResult{}, contestError(&i.State, "attempt influence")
	}

	stack := &modifier.Stack{}
	if err := stack.Difficulty(modifier.SourceResistance, "", i.State.Resistance); err != nil {
		return AttemptResult{}, err
	}
	for _, entry := range attempt.Situation {
		if err := stack.Add(entry); err != nil {
			return AttemptResult{}, err
		}
	}
	difficulty := modifier.Difficulty(i.State.BaseDifficulty, stack)
	pool := modifier.DicePool(attempt.Attribute+attempt.Skill, stack)

	resolved, err := check.Resolve(src, check.Check{
		Pool:       dice.NewPool(pool),
		Difficulty: difficulty,
	})
	if err != nil {
		return AttemptResult{}, err
	}

	round := contest.FromResult(methodOrDefault(attempt.Method), resolved)
	result := AttemptResult{
		Check:      resolved,
		Tier:       resolved.Tier,
		Difficulty: difficulty,
		DicePool:   pool,
	}
	if resolved.Tier.IsSuccess() {
		result.ProgressDelta = max(1, resolved.Margin)
		if err := i.State.AddToPool(result.ProgressDelta); err != nil {
			return AttemptResult{}, err
		}
	} else {
		applied, err := i.State.IncrementResistance()
		if err != nil {
			return AttemptResult{}, err
		}
		result.ResistanceDelta = applied
	}

	switch i.State.Status {
	case contest.StatusSucceeded:
		result.NarrativeKey = "influence.changed"
	case contest.StatusFailed:
		result.NarrativeKey = "influence.entrenched"
	default:
		result.NarrativeKey = "influence." + resolved.Tier.Key()
	}
	round.ProgressDelta = result.ProgressDelta
	round.ResistanceDelta = result.ResistanceDelta
	round.NarrativeKey = result.NarrativeKey
	if err := i.State.Record(round); err != nil {
		return AttemptResult{}, err
	}
	result.Round, _ = contest.History(i.State.History).Last()
	return i.snapshotResult(result), nil
}

// Stall pauses the contest until the resume condition is met.
func (i *Influence) Stall(reason, resumeCondition string) error {
	return i.State.Stall(reason, resumeCondition)
}

// Resume reactivates a stalled contest, easing resistance by reduction.
func (i *Influence) Resume(reduction int) error {
	return i.State.Resume(reduction)
}

// Abandon ends the contest as failed.
func (i *Influence) Abandon(reason string) error {
	return i.State.Fail(reason)
}

// EstimatedRoundsRemaining estimates the rounds needed at the given average.
func (i *Influence) EstimatedRoundsRemaining(average int) int {
	return i.State.EstimatedRoundsRemaining(average)
}

func (i *Influence) snapshotResult(result AttemptResult) AttemptResult {
	result.Status = i.State.Status
	result.Pool = i.State.Pool
	result.Threshold = i.State.Threshold
	result.Resistance = i.State.Resistance
	result.Progress = i.State.ProgressPercentage()
	return result
}

func methodOrDefault(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return "persuade"
	}
	return method
}

func contestError(state *contest.State, op string) error {
	code := apperrors.CodeContestNotActive
	if state.Status.IsTerminal() {
		code = apperrors.CodeContestTerminal
	}
	return apperrors.WithMetadata(code,
		fmt.Sprintf("contest %s cannot %s while %s", state.ID, op, state.Status),
		map[string]string{"ContestID": state.ID, "Status": string(state.Status), "Operation": op})
}
