// Package modifier assembles dice and difficulty modifiers for a check.
//
// A Stack is append-only while a subsystem assembles its context and is
// collapsed to two signed integers before resolution. Individual sources
// bound their own contributions through their constant tables; the stack
// performs plain addition.
package modifier

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// Source tags where a modifier came from.
type Source string

// Modifier sources.
const (
	SourceBase              Source = "base"
	SourceToolQuality       Source = "tool_quality"
	SourceCorruption        Source = "corruption"
	SourceJammed            Source = "jammed"
	SourceAttempts          Source = "attempts"
	SourceFluency           Source = "fluency"
	SourceConcession        Source = "concession"
	SourceProtocolViolation Source = "protocol_violation"
	SourceRelativeStrength  Source = "relative_strength"
	SourceDeception         Source = "deception"
	SourceResistance        Source = "resistance"
	SourceSituational       Source = "situational"
)

// Entry is a single named modifier.
type Entry struct {
	Source     Source `json:"source"`
	Label      string `json:"label,omitempty"`
	Dice       int    `json:"dice,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

func (e Entry) key() string {
	return string(e.Source) + "/" + strings.ToLower(strings.TrimSpace(e.Label))
}

// Stack is an ordered, append-only list of modifiers.
type Stack struct {
	entries []Entry
	seen    map[string]struct{}
}

// Add appends an entry. Each source and label pair may be applied once.
func (s *Stack) Add(entry Entry) error {
	if strings.TrimSpace(string(entry.Source)) == "" {
		return apperrors.New(apperrors.CodeIdentifierRequired, "modifier source is required")
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	key := entry.key()
	if _, ok := s.seen[key]; ok {
		return apperrors.WithMetadata(
			apperrors.CodeModifierDuplicateSource,
			fmt.Sprintf("modifier %s already applied", key),
			map[string]string{"Source": string(entry.Source), "Label": entry.Label},
		)
	}
	s.seen[key] = struct{}{}
	s.entries = append(s.entries, entry)
	return nil
}

// Dice appends a dice-only modifier. Zero values are skipped.
func (s *Stack) Dice(source Source, label string, dice int) error {
	if dice == 0 {
		return nil
	}
	return s.Add(Entry{Source: source, Label: label, Dice: dice})
}

// Difficulty appends a difficulty-only modifier. Zero values are skipped.
func (s *Stack) Difficulty(source Source, label string, difficulty int) error {
	if difficulty == 0 {
		return nil
	}
	return s.Add(Entry{Source: source, Label: label, Difficulty: difficulty})
}

// Totals collapses the stack into a dice delta and a difficulty delta.
func (s *Stack) Totals() (dice int, difficulty int) {
	if s == nil {
		return 0, 0
	}
	for _, entry := range s.entries {
		dice += entry.Dice
		difficulty += entry.Difficulty
	}
	return dice, difficulty
}

// Entries returns a copy of the applied modifiers in insertion order.
func (s *Stack) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of applied modifiers.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// DicePool adds the stack's dice delta to base, flooring at zero.
func DicePool(base int, s *Stack) int {
	dice, _ := s.Totals()
	return max(0, base+dice)
}

// Difficulty adds the stack's difficulty delta to base.
func Difficulty(base int, s *Stack) int {
	_, difficulty := s.Totals()
	return base + difficulty
}
