package modifier

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

func TestStackTotals(t *testing.T) {
	var stack Stack
	steps := []Entry{
		{Source: SourceBase, Label: "standard_lock", Difficulty: 14},
		{Source: SourceCorruption, Label: "blighted", Difficulty: 4},
		{Source: SourceJammed, Difficulty: 2},
		{Source: SourceToolQuality, Label: "proper", Dice: 1},
		{Source: SourceFluency, Dice: -1},
	}
	for _, entry := range steps {
		if err := stack.Add(entry); err != nil {
			t.Fatalf("add %v: %v", entry, err)
		}
	}

	dice, difficulty := stack.Totals()
	if dice != 0 {
		t.Fatalf("dice = %d, want 0", dice)
	}
	if difficulty != 20 {
		t.Fatalf("difficulty = %d, want 20", difficulty)
	}
	if stack.Len() != len(steps) {
		t.Fatalf("len = %d, want %d", stack.Len(), len(steps))
	}
}

func TestStackRejectsDoubleApplication(t *testing.T) {
	var stack Stack
	if err := stack.Dice(SourceConcession, "offer_item", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := stack.Dice(SourceConcession, "Offer_Item ", 2)
	if !errors.Is(err, apperrors.New(apperrors.CodeModifierDuplicateSource, "")) {
		t.Fatalf("expected duplicate source error, got %v", err)
	}
	dice, _ := stack.Totals()
	if dice != 2 {
		t.Fatalf("dice = %d, want 2", dice)
	}
}

func TestStackSkipsZeroValues(t *testing.T) {
	var stack Stack
	if err := stack.Dice(SourceFluency, "basic", 0); err != nil {
		t.Fatalf("dice: %v", err)
	}
	if err := stack.Difficulty(SourceCorruption, "normal", 0); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	if stack.Len() != 0 {
		t.Fatalf("len = %d, want 0", stack.Len())
	}
}

func TestStackRequiresSource(t *testing.T) {
	var stack Stack
	if err := stack.Add(Entry{Dice: 1}); err == nil {
		t.Fatal("expected missing source error")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	var stack Stack
	_ = stack.Dice(SourceToolQuality, "masterwork", 2)
	entries := stack.Entries()
	entries[0].Dice = 9
	if stack.Entries()[0].Dice != 2 {
		t.Fatal("expected stack entries to be immutable through copy")
	}
}

func TestDicePoolFloorsAtZero(t *testing.T) {
	var stack Stack
	_ = stack.Dice(SourceToolQuality, "bare_hands", -2)
	_ = stack.Dice(SourceProtocolViolation, "severe", -2)
	if got := DicePool(3, &stack); got != 0 {
		t.Fatalf("pool = %d, want 0", got)
	}
	if got := DicePool(6, &stack); got != 2 {
		t.Fatalf("pool = %d, want 2", got)
	}
	if got := DicePool(4, nil); got != 4 {
		t.Fatalf("pool with nil stack = %d, want 4", got)
	}
}

func TestDifficultyAddsDelta(t *testing.T) {
	var stack Stack
	_ = stack.Difficulty(SourceConcession, "trade_information", -4)
	if got := Difficulty(14, &stack); got != 10 {
		t.Fatalf("difficulty = %d, want 10", got)
	}
}
