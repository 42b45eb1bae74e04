package negotiation

import (
	"fmt"
	"strings"

	"github.com/louisbranch/parley/internal/core/check"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Complexity grades how lopsided the player's request is.
type Complexity string

// Request complexities.
const (
	ComplexityFairTrade           Complexity = "fair_trade"
	ComplexitySlightAdvantage     Complexity = "slight_advantage"
	ComplexityNoticeableAdvantage Complexity = "noticeable_advantage"
	ComplexityMajorAdvantage      Complexity = "major_advantage"
	ComplexityOneSidedDeal        Complexity = "one_sided_deal"
)

// ComplexityProfile is the fixed table row for one complexity.
type ComplexityProfile struct {
	Difficulty int
	PCStart    int
	Rounds     int
}

var complexityProfiles = map[Complexity]ComplexityProfile{
	ComplexityFairTrade:           {Difficulty: 10, PCStart: 4, Rounds: 3},
	ComplexitySlightAdvantage:     {Difficulty: 12, PCStart: 3, Rounds: 4},
	ComplexityNoticeableAdvantage: {Difficulty: 14, PCStart: 2, Rounds: 5},
	ComplexityMajorAdvantage:      {Difficulty: 16, PCStart: 1, Rounds: 6},
	ComplexityOneSidedDeal:        {Difficulty: 18, PCStart: 0, Rounds: 7},
}

// ParseComplexity validates a complexity tag.
func ParseComplexity(value string) (Complexity, error) {
	complexity := Complexity(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := complexityProfiles[complexity]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("request complexity %q is not supported", value),
			map[string]string{"Tier": value})
	}
	return complexity, nil
}

// Profile returns the complexity's table row.
func (c Complexity) Profile() ComplexityProfile {
	return complexityProfiles[c]
}

// Negotiation tuning.
const (
	NPCStart             = 6
	DispositionShiftAt   = 50
	MinimumDifficulty    = 4
	DefaultFlexibility   = 2
	MaxFlexibility       = 3
	CrisisGap            = 5
	CrisisFailures       = 2
	FinalizationGap      = 1
	FumbleCollapseGap    = 4
	PressureDisposition  = -5
	FumblePlayerStepBack = 2
)

// StartingNPC returns the NPC's opening position for a disposition.
func StartingNPC(disposition int) int {
	switch {
	case disposition >= DispositionShiftAt:
		return NPCStart - 1
	case disposition <= -DispositionShiftAt:
		return NPCStart + 1
	default:
		return NPCStart
	}
}

// Tactic is a closed set of negotiation moves.
type Tactic string

// Tactics.
const (
	TacticPersuade Tactic = "persuade"
	TacticDeceive  Tactic = "deceive"
	TacticPressure Tactic = "pressure"
	TacticConcede  Tactic = "concede"
)

// ParseTactic validates a tactic tag.
func ParseTactic(value string) (Tactic, error) {
	tactic := Tactic(strings.ToLower(strings.TrimSpace(value)))
	switch tactic {
	case TacticPersuade, TacticDeceive, TacticPressure, TacticConcede:
		return tactic, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTactic,
			fmt.Sprintf("tactic %q is not supported", value),
			map[string]string{"Tactic": value})
	}
}

// Costs is what a tactic costs the player for one outcome.
type Costs struct {
	Stress      int `json:"stress,omitempty"`
	Reputation  int `json:"reputation,omitempty"`
	Disposition int `json:"disposition,omitempty"`
}

// TacticCosts returns the cost of a tactic for a resolved outcome.
func TacticCosts(tactic Tactic, tier check.Tier, fumble bool) Costs {
	switch tactic {
	case TacticDeceive:
		switch {
		case fumble:
			return Costs{Stress: 8}
		case tier.IsSuccess():
			return Costs{Stress: 3}
		default:
			return Costs{Stress: 6}
		}
	case TacticPressure:
		costs := Costs{Disposition: PressureDisposition}
		switch {
		case tier == check.TierCriticalSuccess:
			costs.Reputation = -3
		case tier.IsSuccess():
			costs.Reputation = -5
		default:
			costs.Reputation = -10
		}
		return costs
	default:
		return Costs{}
	}
}

// ConcessionType is a kind of concession offer.
type ConcessionType string

// Concession types.
const (
	ConcessionOfferItem        ConcessionType = "offer_item"
	ConcessionPromiseFavor     ConcessionType = "promise_favor"
	ConcessionTradeInformation ConcessionType = "trade_information"
	ConcessionTakeRisk         ConcessionType = "take_risk"
	ConcessionStakeReputation  ConcessionType = "stake_reputation"
)

// ConcessionDice is the dice bonus every concession grants the next roll.
const ConcessionDice = 2

var concessionReduction = map[ConcessionType]int{
	ConcessionOfferItem:        2,
	ConcessionPromiseFavor:     2,
	ConcessionTradeInformation: 4,
	ConcessionTakeRisk:         4,
	ConcessionStakeReputation:  6,
}

// Concession is an offer made with the Concede tactic.
type Concession struct {
	Type        ConcessionType `json:"type"`
	ItemID      string         `json:"item_id,omitempty"`
	FactionID   string         `json:"faction_id,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Validate checks the concession type and its required references.
func (c Concession) Validate() error {
	if _, ok := concessionReduction[c.Type]; !ok {
		return apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("concession type %q is not supported", c.Type),
			map[string]string{"Tier": string(c.Type)})
	}
	switch {
	case c.Type == ConcessionOfferItem && strings.TrimSpace(c.ItemID) == "":
		return apperrors.WithMetadata(apperrors.CodeNegotiationConcessionIncomplete,
			"an item offer needs an item id",
			map[string]string{"Field": "item_id"})
	case c.Type == ConcessionStakeReputation && strings.TrimSpace(c.FactionID) == "":
		return apperrors.WithMetadata(apperrors.CodeNegotiationConcessionIncomplete,
			"staking reputation needs a faction id",
			map[string]string{"Field": "faction_id"})
	}
	return nil
}

// DifficultyReduction returns how much the concession eases the next roll.
func (c Concession) DifficultyReduction() int {
	return concessionReduction[c.Type]
}
