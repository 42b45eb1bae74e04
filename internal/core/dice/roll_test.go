package dice

import (
	"errors"
	"testing"
)

type sequence struct {
	values []int
	next   int
}

func (s *sequence) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

func TestRollPool_Basic(t *testing.T) {
	tests := []struct {
		name    string
		pool    Pool
		wantErr error
	}{
		{name: "empty pool", pool: NewPool(0)},
		{name: "single die", pool: NewPool(1)},
		{name: "large pool", pool: NewPool(12)},
		{name: "d6 pool", pool: Pool{Sides: 6, Count: 4, SuccessOn: 5}},
		{name: "negative count", pool: NewPool(-1), wantErr: ErrNegativeDice},
		{name: "one sided die", pool: Pool{Sides: 1, Count: 2}, wantErr: ErrInvalidSides},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roll, err := RollPool(NewSource(42), tt.pool)
			if err != tt.wantErr {
				t.Fatalf("RollPool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(roll.Faces) != tt.pool.Count {
				t.Fatalf("RollPool() got %d faces, want %d", len(roll.Faces), tt.pool.Count)
			}
			for i, face := range roll.Faces {
				if face < 1 || face > tt.pool.Sides {
					t.Errorf("Faces[%d] = %d, out of range [1, %d]", i, face, tt.pool.Sides)
				}
			}
		})
	}
}

func TestRollPool_FaceRangeAcrossSeeds(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		for count := 0; count <= 10; count++ {
			roll, err := RollPool(NewSource(seed), NewPool(count))
			if err != nil {
				t.Fatalf("seed %d count %d: %v", seed, count, err)
			}
			if len(roll.Faces) != count {
				t.Fatalf("seed %d: got %d faces, want %d", seed, len(roll.Faces), count)
			}
			for _, face := range roll.Faces {
				if face < 1 || face > DefaultSides {
					t.Fatalf("seed %d: face %d out of range", seed, face)
				}
			}
		}
	}
}

func TestRollPool_Determinism(t *testing.T) {
	first, err := RollPool(NewSource(12345), NewPool(8))
	if err != nil {
		t.Fatalf("RollPool() error = %v", err)
	}
	second, err := RollPool(NewSource(12345), NewPool(8))
	if err != nil {
		t.Fatalf("RollPool() error = %v", err)
	}
	for i := range first.Faces {
		if first.Faces[i] != second.Faces[i] {
			t.Errorf("Faces[%d] differs: %d vs %d", i, first.Faces[i], second.Faces[i])
		}
	}
}

func TestRollPool_MissingSource(t *testing.T) {
	if _, err := RollPool(nil, NewPool(3)); !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected missing source error, got %v", err)
	}
}

func TestRollPool_UsesSourceInOrder(t *testing.T) {
	src := &sequence{values: []int{9, 0, 7, 4}}
	roll, err := RollPool(src, NewPool(4))
	if err != nil {
		t.Fatalf("RollPool() error = %v", err)
	}
	want := []int{10, 1, 8, 5}
	for i := range want {
		if roll.Faces[i] != want[i] {
			t.Fatalf("Faces = %v, want %v", roll.Faces, want)
		}
	}
	if roll.Successes() != 2 {
		t.Fatalf("successes = %d, want 2", roll.Successes())
	}
	if roll.Botches() != 1 {
		t.Fatalf("botches = %d, want 1", roll.Botches())
	}
}

func TestRoll_FacesCopyIsIndependent(t *testing.T) {
	roll := Roll{Pool: NewPool(2), Faces: []int{3, 9}}
	faces := roll.FacesCopy()
	faces[0] = 10
	if roll.Faces[0] != 3 {
		t.Fatal("expected roll faces to remain unchanged")
	}
}

func TestPool_SuccessFaceDefault(t *testing.T) {
	if got := (Pool{Sides: 10}).SuccessFace(); got != 8 {
		t.Fatalf("success face = %d, want 8", got)
	}
	if got := NewPool(3).SuccessFace(); got != 8 {
		t.Fatalf("success face = %d, want 8", got)
	}
}

func TestRollD100(t *testing.T) {
	value, err := RollD100(&sequence{values: []int{99}})
	if err != nil {
		t.Fatalf("RollD100() error = %v", err)
	}
	if value != 100 {
		t.Fatalf("RollD100() = %d, want 100", value)
	}
	if _, err := RollD100(nil); err == nil {
		t.Fatal("expected missing source error")
	}
}
