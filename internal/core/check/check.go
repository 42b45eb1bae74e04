package check

import "github.com/louisbranch/parley/internal/core/dice"

// DifficultyPerSuccess converts difficulty points into required successes.
const DifficultyPerSuccess = 4

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(total, difficulty int) int {
	return total - difficulty
}

// RequiredSuccesses converts a difficulty into the number of successes a
// check needs. Difficulties at or below zero need none.
func RequiredSuccesses(difficulty int) int {
	if difficulty <= 0 {
		return 0
	}
	return (difficulty + DifficultyPerSuccess - 1) / DifficultyPerSuccess
}

// Check describes one resolution request.
type Check struct {
	Pool           dice.Pool
	AttributeBonus int
	OtherBonus     int
	Difficulty     int
	// Fumbles enables the zero-success botch rule.
	Fumbles bool
	// NaturalMax forces a critical success.
	NaturalMax bool
	// PrimaryDieCritical forces a critical success when the first die shows
	// its maximum face.
	PrimaryDieCritical bool
}

// Result captures a resolved check.
type Result struct {
	Roll      dice.Roll
	Successes int
	Botches   int
	Total     int
	Required  int
	Margin    int
	Tier      Tier
	Fumble    bool
	Critical  bool
}

// Succeeded reports whether the check reached at least a marginal success.
func (r Result) Succeeded() bool {
	return r.Tier.IsSuccess()
}

// Resolve rolls the check's pool and classifies the outcome.
//
// Resolve has no side effects beyond drawing from src. It never reads or
// writes contest state.
//
// # Errors
//
// Pool errors from dice.RollPool are returned unchanged; in particular a
// negative die count yields dice.ErrNegativeDice.
func Resolve(src dice.Source, c Check) (Result, error) {
	roll, err := dice.RollPool(src, c.Pool)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(roll, c), nil
}

// Evaluate classifies an existing roll against the check's modifiers.
//
// The forced critical success is applied first, then the fumble rule, then
// the margin table.
func Evaluate(roll dice.Roll, c Check) Result {
	successes := roll.Successes()
	botches := roll.Botches()
	total := successes + c.AttributeBonus + c.OtherBonus
	required := RequiredSuccesses(c.Difficulty)

	result := Result{
		Roll:      roll,
		Successes: successes,
		Botches:   botches,
		Total:     total,
		Required:  required,
		Margin:    Margin(total, required),
	}

	primaryMax := c.PrimaryDieCritical && len(roll.Faces) > 0 && roll.Faces[0] == roll.Pool.Sides
	switch {
	case c.NaturalMax || primaryMax:
		result.Tier = TierCriticalSuccess
		result.Critical = true
	case c.Fumbles && IsFumble(successes, botches):
		result.Tier = TierCriticalFailure
		result.Fumble = true
	default:
		result.Tier = TierForMargin(result.Margin)
	}
	return result
}

// IsFumble reports whether a roll with the given counts is a fumble.
func IsFumble(successes, botches int) bool {
	return successes == 0 && botches > 0
}
