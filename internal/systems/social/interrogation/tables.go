package interrogation

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Method is an interrogation approach.
type Method string

// Methods, in tie-break order.
const (
	MethodGoodCop   Method = "good_cop"
	MethodBadCop    Method = "bad_cop"
	MethodDeception Method = "deception"
	MethodBribery   Method = "bribery"
	MethodTorture   Method = "torture"
)

// Methods lists every method in tie-break order.
var Methods = []Method{MethodGoodCop, MethodBadCop, MethodDeception, MethodBribery, MethodTorture}

// FumbleType names what goes wrong when a method fumbles.
type FumbleType string

// Fumble types.
const (
	FumbleNone              FumbleType = ""
	FumbleTrustShattered    FumbleType = "trust_shattered"
	FumbleChallengeAccepted FumbleType = "challenge_accepted"
	FumbleLieExposed        FumbleType = "lie_exposed"
	FumbleSubjectBroken     FumbleType = "subject_broken"
)

// MethodProfile is the fixed table row for one method.
type MethodProfile struct {
	// Difficulty is the base difficulty; torture derives its own from WILL.
	Difficulty  int
	Minutes     int
	Reliability int
	Disposition int
	Reputation  int
	Fumble      FumbleType
	Skill       string
	UsesMight   bool
}

var methodProfiles = map[Method]MethodProfile{
	MethodGoodCop:   {Difficulty: 14, Minutes: 30, Reliability: 95, Fumble: FumbleTrustShattered, Skill: "persuasion"},
	MethodBadCop:    {Difficulty: 12, Minutes: 15, Reliability: 80, Disposition: -5, Fumble: FumbleChallengeAccepted, Skill: "intimidation"},
	MethodDeception: {Difficulty: 16, Minutes: 20, Reliability: 70, Disposition: -2, Fumble: FumbleLieExposed, Skill: "deception"},
	MethodBribery:   {Difficulty: 10, Minutes: 10, Reliability: 90, Fumble: FumbleTrustShattered, Skill: "negotiation"},
	MethodTorture:   {Minutes: 60, Reliability: 50, Disposition: -20, Reputation: -30, Fumble: FumbleSubjectBroken, Skill: "might", UsesMight: true},
}

// ParseMethod validates a method tag.
func ParseMethod(value string) (Method, error) {
	method := Method(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := methodProfiles[method]; !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownMethod,
			fmt.Sprintf("interrogation method %q is not supported", value),
			map[string]string{"Method": value})
	}
	return method, nil
}

// Profile returns the method's table row.
func (m Method) Profile() MethodProfile {
	return methodProfiles[m]
}

// TortureDifficultyMultiplier scales the subject's WILL into torture difficulty.
const TortureDifficultyMultiplier = 2

// TortureReliabilityCap bounds reliability once torture has been used.
const TortureReliabilityCap = 60

// Fumble consequences.
const (
	FumbleDisposition       = -10
	TortureFumbleReputation = -20
)

// ResistanceTier grades how hard a subject is to break.
type ResistanceTier string

// Resistance tiers.
const (
	ResistanceMinimal  ResistanceTier = "minimal"
	ResistanceLow      ResistanceTier = "low"
	ResistanceModerate ResistanceTier = "moderate"
	ResistanceHigh     ResistanceTier = "high"
	ResistanceExtreme  ResistanceTier = "extreme"
)

// ResistanceProfile is the fixed table row for one resistance tier.
type ResistanceProfile struct {
	// MinWill is the lowest effective WILL in the tier; Width is how many
	// WILL values the tier spans before its maximum applies.
	MinWill   int
	Width     int
	MinChecks int
	MaxChecks int
	BribeCost int
	MaxRounds int
}

var resistanceProfiles = map[ResistanceTier]ResistanceProfile{
	ResistanceMinimal:  {MinWill: 0, Width: 2, MinChecks: 1, MaxChecks: 1, BribeCost: 15, MaxRounds: 3},
	ResistanceLow:      {MinWill: 2, Width: 2, MinChecks: 2, MaxChecks: 3, BribeCost: 35, MaxRounds: 6},
	ResistanceModerate: {MinWill: 4, Width: 2, MinChecks: 4, MaxChecks: 5, BribeCost: 75, MaxRounds: 10},
	ResistanceHigh:     {MinWill: 6, Width: 2, MinChecks: 6, MaxChecks: 8, BribeCost: 150, MaxRounds: 15},
	ResistanceExtreme:  {MinWill: 8, Width: 4, MinChecks: 10, MaxChecks: 15, BribeCost: 350, MaxRounds: 20},
}

// Profile returns the tier's table row.
func (r ResistanceTier) Profile() ResistanceProfile {
	return resistanceProfiles[r]
}

// EffectiveWill folds resistance modifiers into WILL at half weight.
func EffectiveWill(will, modifiers int) int {
	return will + modifiers/2
}

// TierForWill classifies a subject's effective WILL.
func TierForWill(effectiveWill int) ResistanceTier {
	switch {
	case effectiveWill <= 1:
		return ResistanceMinimal
	case effectiveWill <= 3:
		return ResistanceLow
	case effectiveWill <= 5:
		return ResistanceModerate
	case effectiveWill <= 7:
		return ResistanceHigh
	default:
		return ResistanceExtreme
	}
}

// InitialResistance places effective WILL within its tier's check range.
func InitialResistance(tier ResistanceTier, effectiveWill int) int {
	profile := tier.Profile()
	span := profile.MaxChecks - profile.MinChecks
	if span <= 0 || profile.Width <= 1 {
		return profile.MinChecks
	}
	pos := min(max(0, effectiveWill-profile.MinWill), profile.Width-1)
	return profile.MinChecks + pos*span/(profile.Width-1)
}
