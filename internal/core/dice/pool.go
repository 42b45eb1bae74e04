package dice

import (
	"math/rand"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// DefaultSides is the face count used by every social and skill check.
const DefaultSides = 10

// BotchFace is the face that counts as a botch on any die.
const BotchFace = 1

// ErrNegativeDice indicates a pool was built with fewer than zero dice.
var ErrNegativeDice = apperrors.New(apperrors.CodeDiceNegativeCount, "dice count must not be negative")

// ErrInvalidSides indicates a pool die has fewer than two faces.
var ErrInvalidSides = apperrors.New(apperrors.CodeDiceInvalidSides, "dice must have at least two sides")

// ErrMissingSource indicates a roll was requested without a random source.
var ErrMissingSource = apperrors.New(apperrors.CodeDiceSourceMissing, "random source is required")

// Source draws uniformly distributed integers in [0, n).
//
// *math/rand.Rand satisfies Source. Tests supply fixed or scripted sources
// to assert exact outcomes.
type Source interface {
	Intn(n int) int
}

// NewSource returns a deterministic Source for the given seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Pool describes a set of same-typed dice rolled together.
type Pool struct {
	Sides     int `json:"sides"`
	Count     int `json:"count"`
	SuccessOn int `json:"success_on"`
}

// NewPool returns a d10 pool of count dice succeeding on 8, 9 and 10.
func NewPool(count int) Pool {
	return Pool{Sides: DefaultSides, Count: count, SuccessOn: DefaultSides - 2}
}

// SuccessFace returns the lowest face that counts as a success.
//
// A zero SuccessOn falls back to the top three faces of the die.
func (p Pool) SuccessFace() int {
	if p.SuccessOn > 0 {
		return p.SuccessOn
	}
	return p.Sides - 2
}

// Validate reports whether the pool can be rolled.
func (p Pool) Validate() error {
	if p.Count < 0 {
		return ErrNegativeDice
	}
	if p.Sides < 2 {
		return ErrInvalidSides
	}
	return nil
}

// Roll captures the faces produced by a single atomic draw of a pool.
type Roll struct {
	Pool  Pool  `json:"pool"`
	Faces []int `json:"faces"`
}

// Successes counts faces at or above the pool's success face.
func (r Roll) Successes() int {
	face := r.Pool.SuccessFace()
	count := 0
	for _, value := range r.Faces {
		if value >= face {
			count++
		}
	}
	return count
}

// Botches counts faces showing the minimum value.
func (r Roll) Botches() int {
	count := 0
	for _, value := range r.Faces {
		if value == BotchFace {
			count++
		}
	}
	return count
}

// FacesCopy returns the rolled faces in a new slice.
func (r Roll) FacesCopy() []int {
	return append([]int(nil), r.Faces...)
}
