package dice

// RollPool rolls every die in the pool with the provided source.
//
// # Determinism
//
// RollPool draws exactly Count values from src, in die order. Given a source
// seeded with the same value (see NewSource), the same pool always produces
// the same faces.
//
// # Atomicity
//
// A Roll is never mutated after it is returned. Rolling again produces a new
// Roll with its own Faces slice.
//
// # Errors
//
//   - src must not be nil, otherwise ErrMissingSource is returned.
//   - Count must be >= 0, otherwise ErrNegativeDice is returned. A pool of
//     zero dice yields an empty roll.
//   - Sides must be >= 2, otherwise ErrInvalidSides is returned.
//
// Example:
//
//	roll, err := RollPool(NewSource(1), NewPool(5)) // 5d10, success on 8+
func RollPool(src Source, pool Pool) (Roll, error) {
	if src == nil {
		return Roll{}, ErrMissingSource
	}
	if err := pool.Validate(); err != nil {
		return Roll{}, err
	}

	faces := make([]int, pool.Count)
	for i := range faces {
		faces[i] = rollDie(src, pool.Sides)
	}
	return Roll{Pool: pool, Faces: faces}, nil
}

// RollD100 draws a single percentile value in [1, 100].
func RollD100(src Source) (int, error) {
	if src == nil {
		return 0, ErrMissingSource
	}
	return rollDie(src, 100), nil
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}
