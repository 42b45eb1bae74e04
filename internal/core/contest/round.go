package contest

import (
	"time"

	"github.com/louisbranch/parley/internal/core/check"
)

// Round is the immutable record of one contest round.
type Round struct {
	Number          int        `json:"number"`
	Method          string     `json:"method"`
	Dice            []int      `json:"dice,omitempty"`
	Tier            check.Tier `json:"tier"`
	Fumble          bool       `json:"fumble,omitempty"`
	ProgressDelta   int        `json:"progress_delta,omitempty"`
	ResistanceDelta int        `json:"resistance_delta,omitempty"`
	NarrativeKey    string     `json:"narrative_key,omitempty"`
	Narrative       string     `json:"narrative,omitempty"`
	At              time.Time  `json:"at"`
}

// FromResult seeds a round record from a resolved check.
func FromResult(method string, result check.Result) Round {
	return Round{
		Method: method,
		Dice:   result.Roll.FacesCopy(),
		Tier:   result.Tier,
		Fumble: result.Fumble,
	}
}

// History is a read-only view over recorded rounds.
type History []Round

// Last returns the most recent round, if any.
func (h History) Last() (Round, bool) {
	if len(h) == 0 {
		return Round{}, false
	}
	return h[len(h)-1], true
}
