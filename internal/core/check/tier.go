package check

import (
	"fmt"
	"strings"
)

// Tier is the graded outcome of a single check.
//
// Tiers are totally ordered by goodness: a larger value is always a better
// result, so tiers can be compared directly.
type Tier int

const (
	TierUnspecified Tier = iota
	TierCriticalFailure
	TierFailure
	TierMarginalSuccess
	TierFullSuccess
	TierExceptionalSuccess
	TierCriticalSuccess
)

// Tiers lists every assignable tier from worst to best.
var Tiers = []Tier{
	TierCriticalFailure,
	TierFailure,
	TierMarginalSuccess,
	TierFullSuccess,
	TierExceptionalSuccess,
	TierCriticalSuccess,
}

func (t Tier) String() string {
	switch t {
	case TierUnspecified:
		return "Unspecified"
	case TierCriticalFailure:
		return "Critical failure"
	case TierFailure:
		return "Failure"
	case TierMarginalSuccess:
		return "Marginal success"
	case TierFullSuccess:
		return "Full success"
	case TierExceptionalSuccess:
		return "Exceptional success"
	case TierCriticalSuccess:
		return "Critical success"
	default:
		return "Unknown"
	}
}

// Key returns the stable snake_case identifier used in catalogs and metrics.
func (t Tier) Key() string {
	switch t {
	case TierCriticalFailure:
		return "critical_failure"
	case TierFailure:
		return "failure"
	case TierMarginalSuccess:
		return "marginal_success"
	case TierFullSuccess:
		return "full_success"
	case TierExceptionalSuccess:
		return "exceptional_success"
	case TierCriticalSuccess:
		return "critical_success"
	default:
		return "unspecified"
	}
}

// ParseTier resolves a tier from its key.
func ParseTier(value string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for _, tier := range Tiers {
		if tier.Key() == key {
			return tier, nil
		}
	}
	return TierUnspecified, fmt.Errorf("tier %q is not supported", value)
}

// IsSuccess reports whether the tier counts as a success.
func (t Tier) IsSuccess() bool {
	return t >= TierMarginalSuccess
}

// MarshalText encodes the tier as its key.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.Key()), nil
}

// UnmarshalText decodes a tier key.
func (t *Tier) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == "unspecified" {
		*t = TierUnspecified
		return nil
	}
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TierForMargin maps a success margin to a tier.
//
// The mapping is monotonic: a larger margin never yields a worse tier.
func TierForMargin(margin int) Tier {
	switch {
	case margin >= 5:
		return TierCriticalSuccess
	case margin >= 3:
		return TierExceptionalSuccess
	case margin >= 1:
		return TierFullSuccess
	case margin == 0:
		return TierMarginalSuccess
	default:
		return TierFailure
	}
}
