// Package lockpicking resolves single-shot lock manipulation checks.
//
// A lock's difficulty is its type's base difficulty plus corruption, a jam
// penalty, and one point per earlier failed attempt. Tool quality adjusts
// the dice pool. Fumbles jam the lock and may break improvised tools.
package lockpicking

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// LockType identifies a lock's construction.
type LockType string

// Lock types, easiest first.
const (
	LockImprovisedLatch LockType = "improvised_latch"
	LockSimple          LockType = "simple_lock"
	LockStandard        LockType = "standard_lock"
	LockComplex         LockType = "complex_lock"
	LockMaster          LockType = "master_lock"
	LockJotunForged     LockType = "jotun_forged"
)

type lockProfile struct {
	Difficulty int
	Salvage    string
}

var lockProfiles = map[LockType]lockProfile{
	LockImprovisedLatch: {Difficulty: 6, Salvage: "bent_wire"},
	LockSimple:          {Difficulty: 10, Salvage: "spring_coil"},
	LockStandard:        {Difficulty: 14, Salvage: "tumbler_set"},
	LockComplex:         {Difficulty: 18, Salvage: "precision_pin"},
	LockMaster:          {Difficulty: 22, Salvage: "master_mechanism"},
	LockJotunForged:     {Difficulty: 26, Salvage: "jotun_alloy_shard"},
}

// Corruption is the environmental corruption tier around a lock.
type Corruption string

// Corruption tiers.
const (
	CorruptionNormal    Corruption = "normal"
	CorruptionGlitched  Corruption = "glitched"
	CorruptionBlighted  Corruption = "blighted"
	CorruptionResonance Corruption = "resonance"
)

var corruptionPenalty = map[Corruption]int{
	CorruptionNormal:    0,
	CorruptionGlitched:  2,
	CorruptionBlighted:  4,
	CorruptionResonance: 6,
}

// ToolQuality grades the tools used on a lock.
type ToolQuality string

// Tool qualities.
const (
	ToolBareHands  ToolQuality = "bare_hands"
	ToolImprovised ToolQuality = "improvised"
	ToolProper     ToolQuality = "proper"
	ToolMasterwork ToolQuality = "masterwork"
)

var toolDice = map[ToolQuality]int{
	ToolBareHands:  -2,
	ToolImprovised: 0,
	ToolProper:     1,
	ToolMasterwork: 2,
}

// JamPenalty is the difficulty added by a jammed mechanism.
const JamPenalty = 2

// ToolsRequiredAt is the base difficulty from which bare hands cannot work a lock.
const ToolsRequiredAt = 10

// Lock is the value-typed description of a lock.
type Lock struct {
	Type             LockType   `json:"type"`
	Corruption       Corruption `json:"corruption"`
	Jammed           bool       `json:"jammed"`
	PreviousAttempts int        `json:"previous_attempts"`
}

// Validate checks that every tag resolves to a table entry.
func (l Lock) Validate() error {
	if _, ok := lockProfiles[l.Type]; !ok {
		return apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("lock type %q is not supported", l.Type),
			map[string]string{"Tier": string(l.Type)})
	}
	if _, ok := corruptionPenalty[l.corruption()]; !ok {
		return apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("corruption %q is not supported", l.Corruption),
			map[string]string{"Tier": string(l.Corruption)})
	}
	if l.PreviousAttempts < 0 {
		return apperrors.New(apperrors.CodeContestInvalidConfig, "previous attempts must be non-negative")
	}
	return nil
}

func (l Lock) corruption() Corruption {
	if strings.TrimSpace(string(l.Corruption)) == "" {
		return CorruptionNormal
	}
	return l.Corruption
}

// BaseDifficulty returns the lock type's table difficulty.
func (l Lock) BaseDifficulty() int {
	return lockProfiles[l.Type].Difficulty
}

// CorruptionPenalty returns the difficulty added by corruption.
func (l Lock) CorruptionPenalty() int {
	return corruptionPenalty[l.corruption()]
}

// Salvage returns the component recovered on a critical success.
func (l Lock) Salvage() string {
	return lockProfiles[l.Type].Salvage
}

// WithJammed returns a copy of the lock with its mechanism jammed.
func (l Lock) WithJammed() Lock {
	l.Jammed = true
	return l
}

// WithFailedAttempt returns a copy of the lock with one more failed attempt.
func (l Lock) WithFailedAttempt() Lock {
	l.PreviousAttempts++
	return l
}

// ParseToolQuality validates a tool quality tag.
func ParseToolQuality(value string) (ToolQuality, error) {
	quality := ToolQuality(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := toolDice[quality]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownTier,
			fmt.Sprintf("tool quality %q is not supported", value),
			map[string]string{"Tier": value})
	}
	return quality, nil
}
