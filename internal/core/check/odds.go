package check

import (
	"math"

	"github.com/louisbranch/parley/internal/core/dice"
)

// OddsRequest describes the check whose tier distribution should be computed.
type OddsRequest struct {
	Pool       dice.Pool
	Bonus      int
	Difficulty int
	Fumbles    bool
}

// TierProbability pairs a tier with its exact probability.
type TierProbability struct {
	Tier        Tier
	Probability float64
}

// OddsResult summarizes the outcome distribution of a check.
type OddsResult struct {
	Required    int
	Success     float64
	Fumble      float64
	Tiers       []TierProbability
	Expectation float64
}

// Odds computes the exact tier distribution for a check.
//
// Every die lands in one of three classes (success, botch, blank), so the
// distribution is enumerated over class counts with multinomial weights
// instead of over every face combination. Primary-die criticals are not
// modeled.
func Odds(request OddsRequest) (OddsResult, error) {
	if err := request.Pool.Validate(); err != nil {
		return OddsResult{}, err
	}

	pool := request.Pool
	n := pool.Count
	sides := float64(pool.Sides)
	successFaces := pool.Sides - pool.SuccessFace() + 1
	if successFaces < 0 {
		successFaces = 0
	}
	botchFaces := 1
	if pool.SuccessFace() <= dice.BotchFace {
		botchFaces = 0
	}
	blankFaces := pool.Sides - successFaces - botchFaces

	pSuccess := float64(successFaces) / sides
	pBotch := float64(botchFaces) / sides
	pBlank := float64(blankFaces) / sides

	byTier := make(map[Tier]float64, len(Tiers))
	required := RequiredSuccesses(request.Difficulty)
	var fumble float64
	var expectation float64

	for s := 0; s <= n; s++ {
		for b := 0; s+b <= n; b++ {
			o := n - s - b
			weight := multinomial(n, s, b) *
				math.Pow(pSuccess, float64(s)) *
				math.Pow(pBotch, float64(b)) *
				math.Pow(pBlank, float64(o))
			if weight == 0 {
				continue
			}
			expectation += weight * float64(s)

			tier := TierForMargin(s + request.Bonus - required)
			if request.Fumbles && IsFumble(s, b) {
				tier = TierCriticalFailure
				fumble += weight
			}
			byTier[tier] += weight
		}
	}

	result := OddsResult{
		Required:    required,
		Fumble:      fumble,
		Expectation: expectation,
		Tiers:       make([]TierProbability, 0, len(Tiers)),
	}
	for i := len(Tiers) - 1; i >= 0; i-- {
		tier := Tiers[i]
		result.Tiers = append(result.Tiers, TierProbability{Tier: tier, Probability: byTier[tier]})
		if tier.IsSuccess() {
			result.Success += byTier[tier]
		}
	}
	return result, nil
}

func multinomial(n, a, b int) float64 {
	return binomial(n, a) * binomial(n-a, b)
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
	}
	return result
}
