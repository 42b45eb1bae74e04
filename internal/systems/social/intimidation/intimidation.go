// Package intimidation resolves single-shot coercion against an NPC.
//
// Every attempt costs reputation, regardless of outcome. Compliance scales
// with the tier, and a fumble provokes the target into violence.
package intimidation

import (
	"fmt"
	"strings"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/core/modifier"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// TargetTier grades how hard a target is to cow.
type TargetTier string

// Target tiers.
const (
	TargetCoward        TargetTier = "coward"
	TargetCommon        TargetTier = "common"
	TargetVeteran       TargetTier = "veteran"
	TargetElite         TargetTier = "elite"
	TargetFactionLeader TargetTier = "faction_leader"
)

var targetDifficulty = map[TargetTier]int{
	TargetCoward:        8,
	TargetCommon:        12,
	TargetVeteran:       16,
	TargetElite:         20,
	TargetFactionLeader: 24,
}

// ParseTargetTier validates a target tier tag.
func ParseTargetTier(value string) (TargetTier, error) {
	tier := TargetTier(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := targetDifficulty[tier]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("target tier %q is not supported", value),
			map[string]string{"Tier": value})
	}
	return tier, nil
}

// Difficulty returns the tier's base difficulty.
func (t TargetTier) Difficulty() int {
	return targetDifficulty[t]
}

// Approach selects the attribute the threat leans on.
type Approach string

// Approaches.
const (
	ApproachPhysical Approach = "physical"
	ApproachMental   Approach = "mental"
)

// RelativeStrength compares the player's level with the target's.
type RelativeStrength string

// Relative strengths.
const (
	PlayerStronger RelativeStrength = "player_stronger"
	EvenlyMatched  RelativeStrength = "evenly_matched"
	PlayerWeaker   RelativeStrength = "player_weaker"
)

// StrengthMargin is the level gap at which one side counts as stronger.
const StrengthMargin = 2

// WeakerDifficulty is the difficulty added when the target outclasses the player.
const WeakerDifficulty = 4

// CompareStrength classifies two levels.
func CompareStrength(playerLevel, targetLevel int) RelativeStrength {
	switch diff := playerLevel - targetLevel; {
	case diff >= StrengthMargin:
		return PlayerStronger
	case diff <= -StrengthMargin:
		return PlayerWeaker
	default:
		return EvenlyMatched
	}
}

// Compliance describes how far the target goes along.
type Compliance string

// Compliance levels, strongest first.
const (
	ComplianceComplete  Compliance = "complete"
	ComplianceFull      Compliance = "full"
	ComplianceReluctant Compliance = "reluctant"
	ComplianceMinimal   Compliance = "minimal"
	ComplianceNone      Compliance = "none"
)

// Fumble consequences.
const (
	FumbleStress          = 5
	FumbleInitiativeBonus = 2
	FumbleDisposition     = -30
	FailureDisposition    = -10
)

// Context carries everything an intimidation attempt needs.
type Context struct {
	Target      TargetTier
	Approach    Approach
	Might       int
	Will        int
	Skill       int
	PlayerLevel int
	TargetLevel int
	Situation   []modifier.Entry
}

// Strength returns the relative strength between player and target.
func (c Context) Strength() RelativeStrength {
	return CompareStrength(c.PlayerLevel, c.TargetLevel)
}

func (c Context) attribute() int {
	if c.Approach == ApproachMental {
		return c.Will
	}
	return c.Might
}

// Modifiers assembles the attempt's modifier stack.
func (c Context) Modifiers() (*modifier.Stack, error) {
	stack := &modifier.Stack{}
	switch c.Strength() {
	case PlayerStronger:
		if err := stack.Dice(modifier.SourceRelativeStrength, string(PlayerStronger), 1); err != nil {
			return nil, err
		}
	case PlayerWeaker:
		if err := stack.Difficulty(modifier.SourceRelativeStrength, string(PlayerWeaker), WeakerDifficulty); err != nil {
			return nil, err
		}
	}
	for _, entry := range c.Situation {
		if err := stack.Add(entry); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// DicePool returns the attempt's pool size.
func (c Context) DicePool() int {
	stack, err := c.Modifiers()
	if err != nil {
		return max(0, c.attribute()+c.Skill)
	}
	return modifier.DicePool(c.attribute()+c.Skill, stack)
}

// EffectiveDifficulty returns the stacked target difficulty.
func (c Context) EffectiveDifficulty() int {
	stack, err := c.Modifiers()
	if err != nil {
		return c.Target.Difficulty()
	}
	return modifier.Difficulty(c.Target.Difficulty(), stack)
}

// Result is the immutable outcome of one intimidation attempt.
type Result struct {
	Check            check.Result
	Tier             check.Tier
	Difficulty       int
	DicePool         int
	Strength         RelativeStrength
	Compliance       Compliance
	ReputationCost   int
	DispositionDelta int
	Stress           int
	InitiativeBonus  int
	CombatTriggered  bool
	Furious          bool
	NarrativeKey     string
}

// Intimidate resolves one coercion attempt.
func Intimidate(src dice.Source, ctx Context) (Result, error) {
	if _, err := ParseTargetTier(string(ctx.Target)); err != nil {
		return Result{}, err
	}
	switch ctx.Approach {
	case ApproachPhysical, ApproachMental:
	default:
		return Result{}, apperrors.WithMetadata(apperrors.CodeUnknownMethod,
			fmt.Sprintf("approach %q is not supported", ctx.Approach),
			map[string]string{"Method": string(ctx.Approach)})
	}
	stack, err := ctx.Modifiers()
	if err != nil {
		return Result{}, err
	}
	difficulty := modifier.Difficulty(ctx.Target.Difficulty(), stack)
	pool := modifier.DicePool(ctx.attribute()+ctx.Skill, stack)

	resolved, err := check.Resolve(src, check.Check{
		Pool:               dice.NewPool(pool),
		Difficulty:         difficulty,
		Fumbles:            true,
		PrimaryDieCritical: true,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Check:          resolved,
		Tier:           resolved.Tier,
		Difficulty:     difficulty,
		DicePool:       pool,
		Strength:       ctx.Strength(),
		Compliance:     ComplianceFor(resolved.Tier),
		ReputationCost: CostOfFear(resolved.Tier),
		NarrativeKey:   "intimidation." + resolved.Tier.Key(),
	}
	switch {
	case resolved.Fumble:
		result.DispositionDelta = FumbleDisposition
		result.Stress = FumbleStress
		result.InitiativeBonus = FumbleInitiativeBonus
		result.CombatTriggered = true
		result.Furious = true
		result.NarrativeKey = "intimidation.fumble"
	case !resolved.Tier.IsSuccess():
		result.DispositionDelta = FailureDisposition
	}
	return result, nil
}

// CostOfFear returns the reputation cost every attempt pays.
func CostOfFear(tier check.Tier) int {
	switch tier {
	case check.TierCriticalSuccess:
		return -3
	case check.TierExceptionalSuccess, check.TierFullSuccess, check.TierMarginalSuccess:
		return -5
	default:
		return -10
	}
}

// ComplianceFor maps a tier to the target's compliance.
func ComplianceFor(tier check.Tier) Compliance {
	switch tier {
	case check.TierCriticalSuccess:
		return ComplianceComplete
	case check.TierExceptionalSuccess:
		return ComplianceFull
	case check.TierFullSuccess:
		return ComplianceReluctant
	case check.TierMarginalSuccess:
		return ComplianceMinimal
	default:
		return ComplianceNone
	}
}
