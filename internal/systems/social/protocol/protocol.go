// Package protocol resolves checks made under a culture's rules of conduct.
//
// Breaches of protocol raise difficulty, cost dice, and sour disposition.
// Fluency in a culture's cant adjusts the pool, and a deception wrapped in
// proper veil-speech is easier to land.
package protocol

import (
	"fmt"
	"strings"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/core/modifier"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Violation grades a breach of protocol.
type Violation string

// Violations, mildest first.
const (
	ViolationNone         Violation = "none"
	ViolationMinor        Violation = "minor"
	ViolationModerate     Violation = "moderate"
	ViolationSevere       Violation = "severe"
	ViolationUnforgivable Violation = "unforgivable"
)

// Violations lists every violation from mildest to worst.
var Violations = []Violation{
	ViolationNone,
	ViolationMinor,
	ViolationModerate,
	ViolationSevere,
	ViolationUnforgivable,
}

type violationProfile struct {
	Difficulty  int
	Dice        int
	Disposition int
	Blocks      bool
}

var violationProfiles = map[Violation]violationProfile{
	ViolationNone:         {},
	ViolationMinor:        {Difficulty: 2, Disposition: -5},
	ViolationModerate:     {Difficulty: 4, Dice: -1, Disposition: -15},
	ViolationSevere:       {Difficulty: 6, Dice: -2, Disposition: -30},
	ViolationUnforgivable: {Disposition: -100, Blocks: true},
}

// ParseViolation validates a violation tag. Empty input means none.
func ParseViolation(value string) (Violation, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ViolationNone, nil
	}
	violation := Violation(trimmed)
	if _, ok := violationProfiles[violation]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("violation %q is not supported", value),
			map[string]string{"Tier": value})
	}
	return violation, nil
}

// Disposition returns the disposition shift the violation causes.
func (v Violation) Disposition() int {
	return violationProfiles[v].Disposition
}

// Blocks reports whether the violation ends all interaction.
func (v Violation) Blocks() bool {
	return violationProfiles[v].Blocks
}

// Escalate returns the next worse violation.
func (v Violation) Escalate() Violation {
	for i, candidate := range Violations {
		if candidate == v && i+1 < len(Violations) {
			return Violations[i+1]
		}
	}
	if v == "" {
		return ViolationMinor
	}
	return ViolationUnforgivable
}

// Fluency grades command of a culture's cant.
type Fluency string

// Fluency levels.
const (
	FluencyNone   Fluency = "none"
	FluencyBasic  Fluency = "basic"
	FluencyFluent Fluency = "fluent"
)

var fluencyDice = map[Fluency]int{
	FluencyNone:   -1,
	FluencyBasic:  0,
	FluencyFluent: 1,
}

// VeilSpeechReduction is the difficulty removed from a deception delivered
// in proper veil-speech.
const VeilSpeechReduction = 4

// Context carries everything a protocol check needs.
type Context struct {
	CultureID  string
	Attribute  int
	Skill      int
	Difficulty int
	Fluency    Fluency
	// Standing is the worst violation already committed against the culture.
	Standing Violation
	// Pending is a breach committed during this interaction.
	Pending    Violation
	Deception  bool
	VeilSpeech bool
	Situation  []modifier.Entry
}

func (c Context) fluency() Fluency {
	if c.Fluency == "" {
		return FluencyNone
	}
	return c.Fluency
}

func (c Context) pending() Violation {
	if c.Pending == "" {
		return ViolationNone
	}
	return c.Pending
}

// Modifiers assembles the check's modifier stack.
func (c Context) Modifiers() (*modifier.Stack, error) {
	stack := &modifier.Stack{}
	if err := stack.Dice(modifier.SourceFluency, string(c.fluency()), fluencyDice[c.fluency()]); err != nil {
		return nil, err
	}
	profile := violationProfiles[c.pending()]
	if err := stack.Add(modifier.Entry{
		Source:     modifier.SourceProtocolViolation,
		Label:      string(c.pending()),
		Dice:       profile.Dice,
		Difficulty: profile.Difficulty,
	}); err != nil {
		return nil, err
	}
	if c.Deception && c.VeilSpeech {
		if err := stack.Difficulty(modifier.SourceDeception, "veil_speech", -VeilSpeechReduction); err != nil {
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

// DicePool returns the check's pool size.
func (c Context) DicePool() int {
	stack, err := c.Modifiers()
	if err != nil {
		return max(0, c.Attribute+c.Skill)
	}
	return modifier.DicePool(c.Attribute+c.Skill, stack)
}

// EffectiveDifficulty returns the stacked difficulty.
func (c Context) EffectiveDifficulty() int {
	stack, err := c.Modifiers()
	if err != nil {
		return c.Difficulty
	}
	return modifier.Difficulty(c.Difficulty, stack)
}

// Result is the immutable outcome of one protocol check.
type Result struct {
	Check            check.Result
	Tier             check.Tier
	Difficulty       int
	DicePool         int
	Complied         bool
	Blocked          bool
	Violation        Violation
	DispositionDelta int
	NarrativeKey     string
}

// Resolve runs one check under a culture's protocol.
//
// A culture whose standing is already unforgivable refuses further
// interaction. An unforgivable pending breach blocks the interaction
// without rolling. Otherwise the check never fumbles; a failure worsens the
// pending violation by one tier and applies its disposition shift.
func Resolve(src dice.Source, ctx Context) (Result, error) {
	if strings.TrimSpace(ctx.CultureID) == "" {
		return Result{}, apperrors.New(apperrors.CodeIdentifierRequired, "culture id is required")
	}
	for _, tag := range []Violation{ctx.Standing, ctx.Pending} {
		if _, err := ParseViolation(string(tag)); err != nil {
			return Result{}, err
		}
	}
	if _, ok := fluencyDice[ctx.fluency()]; !ok {
		return Result{}, apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("fluency %q is not supported", ctx.Fluency),
			map[string]string{"Tier": string(ctx.Fluency)})
	}
	if ctx.Standing.Blocks() {
		return Result{}, apperrors.WithMetadata(apperrors.CodeProtocolInteractionBlocked,
			fmt.Sprintf("culture %s refuses further interaction", ctx.CultureID),
			map[string]string{"CultureID": ctx.CultureID})
	}
	if ctx.pending().Blocks() {
		return Result{
			Blocked:          true,
			Violation:        ViolationUnforgivable,
			DispositionDelta: ViolationUnforgivable.Disposition(),
			NarrativeKey:     "protocol.blocked",
		}, nil
	}

	stack, err := ctx.Modifiers()
	if err != nil {
		return Result{}, err
	}
	difficulty := modifier.Difficulty(ctx.Difficulty, stack)
	pool := modifier.DicePool(ctx.Attribute+ctx.Skill, stack)
	resolved, err := check.Resolve(src, check.Check{
		Pool:               dice.NewPool(pool),
		Difficulty:         difficulty,
		PrimaryDieCritical: true,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Check:      resolved,
		Tier:       resolved.Tier,
		Difficulty: difficulty,
		DicePool:   pool,
		Violation:  ctx.pending(),
	}
	if resolved.Tier.IsSuccess() {
		result.Complied = true
		result.NarrativeKey = "protocol.complied"
		return result, nil
	}
	result.Violation = ctx.pending().Escalate()
	result.DispositionDelta = result.Violation.Disposition()
	result.Blocked = result.Violation.Blocks()
	result.NarrativeKey = "protocol.violation." + string(result.Violation)
	return result, nil
}
