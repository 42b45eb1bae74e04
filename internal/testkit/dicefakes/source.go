// Package dicefakes provides scripted random sources for deterministic tests.
package dicefakes

// Faces is a scripted source that yields the listed die faces in order.
//
// Each call to Intn(n) returns the next face minus one, so a d10 roll
// reproduces the face exactly. Once the script is exhausted the last face
// repeats. Faces larger than n are clamped to n.
type Faces struct {
	values []int
	next   int
}

// NewFaces builds a scripted source from die faces.
func NewFaces(faces ...int) *Faces {
	return &Faces{values: append([]int(nil), faces...)}
}

// Intn returns the next scripted face as a zero-based draw.
func (f *Faces) Intn(n int) int {
	if len(f.values) == 0 || n <= 0 {
		return 0
	}
	idx := f.next
	if idx >= len(f.values) {
		idx = len(f.values) - 1
	} else {
		f.next++
	}
	face := f.values[idx]
	if face > n {
		face = n
	}
	if face < 1 {
		face = 1
	}
	return face - 1
}

// Drawn reports how many scripted faces have been consumed.
func (f *Faces) Drawn() int {
	return f.next
}

// Repeat yields the same face for every roll.
func Repeat(face int) *Faces {
	return NewFaces(face)
}
