// Package negotiation runs bargaining between the player and an NPC on a
// shared position track.
//
// Both sides start apart on a 0..8 track. Successful rolls pull the NPC
// toward the player; failures push the player toward the NPC. A deal closes
// when the positions meet; the talks collapse when someone walks away, a
// fumble lands at the wrong moment, or the rounds run out.
package negotiation

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

// Status is the negotiation phase.
type Status string

// Negotiation phases.
const (
	StatusOpening          Status = "opening"
	StatusBargaining       Status = "bargaining"
	StatusCrisisManagement Status = "crisis_management"
	StatusFinalization     Status = "finalization"
	StatusDealReached      Status = "deal_reached"
	StatusCollapsed        Status = "collapsed"
)

// IsTerminal reports whether the negotiation has ended.
func (s Status) IsTerminal() bool {
	return s == StatusDealReached || s == StatusCollapsed
}

// Start describes a new negotiation.
type Start struct {
	ID          string
	NPCID       string
	Complexity  Complexity
	Disposition int
	// Flexibility is how readily the NPC gives ground, 1 to 3. Zero means 2.
	Flexibility int
}

// RoundRecord is the immutable record of one negotiation round.
type RoundRecord struct {
	contest.Round
	Tactic     Tactic      `json:"tactic"`
	Costs      Costs       `json:"costs"`
	Track      Track       `json:"track"`
	Status     Status      `json:"status"`
	Concession *Concession `json:"concession,omitempty"`
}

// Negotiation is the plain-data negotiation state.
type Negotiation struct {
	ID                  string        `json:"id"`
	NPCID               string        `json:"npc_id"`
	Complexity          Complexity    `json:"complexity"`
	Difficulty          int           `json:"difficulty"`
	Flexibility         int           `json:"flexibility"`
	Disposition         int           `json:"disposition"`
	Track               Track         `json:"track"`
	MaxRounds           int           `json:"max_rounds"`
	Round               int           `json:"round"`
	Status              Status        `json:"status"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	PendingConcession   *Concession   `json:"pending_concession,omitempty"`
	ForcedCollapse      bool          `json:"forced_collapse"`
	CollapseReason      string        `json:"collapse_reason,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	History             []RoundRecord `json:"history"`

	now func() time.Time
}

// New opens a negotiation in the Opening phase.
func New(start Start) (*Negotiation, error) {
	id := strings.TrimSpace(start.ID)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "negotiation id is required")
	}
	if strings.TrimSpace(start.NPCID) == "" {
		return nil, apperrors.New(apperrors.CodeIdentifierRequired, "npc id is required")
	}
	complexity, err := ParseComplexity(string(start.Complexity))
	if err != nil {
		return nil, err
	}
	flexibility := start.Flexibility
	if flexibility == 0 {
		flexibility = DefaultFlexibility
	}
	if flexibility < 1 || flexibility > MaxFlexibility {
		return nil, apperrors.WithMetadata(apperrors.CodeNegotiationInvalidFlexibility,
			fmt.Sprintf("flexibility %d is outside 1..%d", start.Flexibility, MaxFlexibility),
			map[string]string{"Flexibility": fmt.Sprint(start.Flexibility)})
	}
	profile := complexity.Profile()
	return &Negotiation{
		ID:          id,
		NPCID:       strings.TrimSpace(start.NPCID),
		Complexity:  complexity,
		Difficulty:  profile.Difficulty,
		Flexibility: flexibility,
		Disposition: start.Disposition,
		Track:       Track{PC: profile.PCStart, NPC: StartingNPC(start.Disposition)},
		MaxRounds:   profile.Rounds,
		Status:      StatusOpening,
		History:     []RoundRecord{},
	}, nil
}

// SetClock replaces the clock used to stamp rounds and completion.
func (n *Negotiation) SetClock(now func() time.Time) {
	n.now = now
}

func (n *Negotiation) clock() time.Time {
	if n.now == nil {
		return time.Now().UTC()
	}
	return n.now().UTC()
}

// RoundsRemaining returns how many rounds are left.
func (n *Negotiation) RoundsRemaining() int {
	return max(0, n.MaxRounds-n.Round)
}

// Play is one player move.
type Play struct {
	Tactic     Tactic
	Attribute  int
	Skill      int
	Concession *Concession
	Situation  []modifier.Entry
}

// Modifiers assembles the stack for a rolled tactic, including any pending
// concession.
func (n *Negotiation) Modifiers(play Play) (*modifier.Stack, error) {
	stack := &modifier.Stack{}
	if n.PendingConcession != nil {
		if err := stack.Add(modifier.Entry{
			Source:     modifier.SourceConcession,
			Label:      string(n.PendingConcession.Type),
			Dice:       ConcessionDice,
			Difficulty: -n.PendingConcession.DifficultyReduction(),
		}); err != nil {
			return nil, err
		}
	}
	for _, entry := range play.Situation {
		if err := stack.Add(entry); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// EffectiveDifficulty returns the difficulty a rolled tactic would face.
func (n *Negotiation) EffectiveDifficulty(play Play) int {
	stack, err := n.Modifiers(play)
	if err != nil {
		return max(MinimumDifficulty, n.Difficulty)
	}
	return max(MinimumDifficulty, modifier.Difficulty(n.Difficulty, stack))
}

// DicePool returns the pool a rolled tactic would use.
func (n *Negotiation) DicePool(play Play) int {
	stack, err := n.Modifiers(play)
	if err != nil {
		return max(0, play.Attribute+play.Skill)
	}
	return modifier.DicePool(play.Attribute+play.Skill, stack)
}

// RoundResult is the immutable outcome of one round.
type RoundResult struct {
	Tactic       Tactic
	Check        check.Result
	Tier         check.Tier
	Rolled       bool
	Difficulty   int
	DicePool     int
	Costs        Costs
	Before       Track
	Track        Track
	Status       Status
	RoundsLeft   int
	NarrativeKey string
	Record       RoundRecord
}

// Play resolves one round.
//
// Concede needs an offer, skips the roll, clears the losing streak and
// moves the player one step; its bonus applies to the next rolled round and
// is then cleared. Rolled tactics move the NPC on success and the player on
// failure, and a lost roll never ends on the NPC's position. A fumble
// during crisis management collapses the talks, as does a fumbled Deceive
// or Pressure while the sides are far apart.
func (n *Negotiation) Play(src dice.Source, play Play) (RoundResult, error) {
	if n.Status.IsTerminal() {
		return RoundResult{}, n.closedError("play a round")
	}
	tactic, err := ParseTactic(string(play.Tactic))
	if err != nil {
		return RoundResult{}, err
	}

	before := n.Track
	phase := n.Status
	result := RoundResult{Tactic: tactic, Before: before}

	if tactic == TacticConcede {
		if play.Concession == nil {
			return RoundResult{}, apperrors.New(apperrors.CodeNegotiationConcessionRequired, "concede needs a concession offer")
		}
		if err := play.Concession.Validate(); err != nil {
			return RoundResult{}, err
		}
		offer := *play.Concession
		n.PendingConcession = &offer
		n.ConsecutiveFailures = 0
		n.Track = n.Track.MovePC(1)
		result.NarrativeKey = "negotiation.concede." + string(offer.Type)
		return n.finishRound(result, contest.Round{Method: string(tactic)}, &offer), nil
	}

	stack, err := n.Modifiers(play)
	if err != nil {
		return RoundResult{}, err
	}
	result.Rolled = true
	result.Difficulty = max(MinimumDifficulty, modifier.Difficulty(n.Difficulty, stack))
	result.DicePool = modifier.DicePool(play.Attribute+play.Skill, stack)
	resolved, err := check.Resolve(src, check.Check{
		Pool:       dice.NewPool(result.DicePool),
		Difficulty: result.Difficulty,
		Fumbles:    true,
	})
	if err != nil {
		return RoundResult{}, err
	}
	n.ClearConcession()

	result.Check = resolved
	result.Tier = resolved.Tier
	result.Costs = TacticCosts(tactic, resolved.Tier, resolved.Fumble)

	switch {
	case resolved.Fumble:
		n.ConsecutiveFailures++
		n.Track = n.Track.GiveGround(FumblePlayerStepBack)
		switch {
		case phase == StatusCrisisManagement:
			n.collapse("fumbled during a crisis")
		case (tactic == TacticDeceive || tactic == TacticPressure) && before.Gap() >= FumbleCollapseGap:
			n.collapse("the " + string(tactic) + " backfired")
		}
		result.NarrativeKey = "negotiation." + string(tactic) + ".fumble"
	case resolved.Tier.IsSuccess():
		n.ConsecutiveFailures = 0
		steps := 1
		if resolved.Tier == check.TierCriticalSuccess && n.Flexibility == MaxFlexibility {
			steps = 2
		}
		n.Track = n.Track.MoveNPC(steps)
		result.NarrativeKey = "negotiation." + string(tactic) + ".success"
	default:
		n.ConsecutiveFailures++
		n.Track = n.Track.GiveGround(1)
		result.NarrativeKey = "negotiation." + string(tactic) + ".failure"
	}
	return n.finishRound(result, contest.FromResult(string(tactic), resolved), nil), nil
}

func (n *Negotiation) finishRound(result RoundResult, round contest.Round, offer *Concession) RoundResult {
	n.Round++
	n.evaluate()

	round.Number = len(n.History) + 1
	round.NarrativeKey = result.NarrativeKey
	round.At = n.clock()
	record := RoundRecord{
		Round:      round,
		Tactic:     result.Tactic,
		Costs:      result.Costs,
		Track:      n.Track,
		Status:     n.Status,
		Concession: offer,
	}
	n.History = append(n.History, record)

	result.Track = n.Track
	result.Status = n.Status
	result.RoundsLeft = n.RoundsRemaining()
	result.Record = record
	return result
}

// evaluate sets the phase from the current track, in priority order.
func (n *Negotiation) evaluate() {
	gap := n.Track.Gap()
	switch {
	case n.ForcedCollapse:
		n.Status = StatusCollapsed
	case gap == 0:
		n.Status = StatusDealReached
	case n.Track.PC == MaxPosition || n.Track.NPC == MaxPosition:
		n.Status = StatusCollapsed
		n.CollapseReason = "walked away"
	case n.Round >= n.MaxRounds:
		n.Status = StatusCollapsed
		n.CollapseReason = "out of rounds"
	case gap <= FinalizationGap:
		n.Status = StatusFinalization
	case gap >= CrisisGap || n.ConsecutiveFailures >= CrisisFailures:
		n.Status = StatusCrisisManagement
	default:
		n.Status = StatusBargaining
	}
	if n.Status.IsTerminal() && n.CompletedAt == nil {
		at := n.clock()
		n.CompletedAt = &at
	}
}

// EvaluateStatus recomputes the phase from the current state and returns it.
func (n *Negotiation) EvaluateStatus() Status {
	n.evaluate()
	return n.Status
}

func (n *Negotiation) collapse(reason string) {
	n.ForcedCollapse = true
	n.CollapseReason = reason
}

// ClearConcession drops any pending concession bonus.
func (n *Negotiation) ClearConcession() {
	n.PendingConcession = nil
}

// Abandon forces a collapse.
func (n *Negotiation) Abandon(reason string) error {
	if n.Status.IsTerminal() {
		return n.closedError("abandon")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "abandoned"
	}
	n.collapse(reason)
	n.Status = StatusCollapsed
	at := n.clock()
	n.CompletedAt = &at
	return nil
}

// Result summarizes a finished negotiation.
type Result struct {
	Status         Status         `json:"status"`
	Deal           bool           `json:"deal"`
	Position       int            `json:"position"`
	PositionName   string         `json:"position_name"`
	Rounds         int            `json:"rounds"`
	Costs          Costs          `json:"costs"`
	Tactics        map[Tactic]int `json:"tactics"`
	CollapseReason string         `json:"collapse_reason,omitempty"`
}

// Finalize totals a finished negotiation's history.
func (n *Negotiation) Finalize() (Result, error) {
	if !n.Status.IsTerminal() {
		return Result{}, apperrors.WithMetadata(apperrors.CodeNegotiationNotTerminal,
			fmt.Sprintf("negotiation %s is still %s", n.ID, n.Status),
			map[string]string{"ContestID": n.ID, "Status": string(n.Status)})
	}
	result := Result{
		Status:         n.Status,
		Deal:           n.Status == StatusDealReached,
		Position:       n.Track.NPC,
		PositionName:   PositionName(n.Track.NPC),
		Rounds:         n.Round,
		Tactics:        map[Tactic]int{},
		CollapseReason: n.CollapseReason,
	}
	for _, record := range n.History {
		result.Costs.Stress += record.Costs.Stress
		result.Costs.Reputation += record.Costs.Reputation
		result.Costs.Disposition += record.Costs.Disposition
		result.Tactics[record.Tactic]++
	}
	return result, nil
}

func (n *Negotiation) closedError(op string) error {
	return apperrors.WithMetadata(apperrors.CodeNegotiationClosed,
		fmt.Sprintf("negotiation %s is %s and cannot %s", n.ID, n.Status, op),
		map[string]string{"ContestID": n.ID, "Status": string(n.Status), "Operation": op})
}
