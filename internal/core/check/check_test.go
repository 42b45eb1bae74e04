package check

import (
	"math"
	"testing"

	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/testkit/dicefakes"
)

func TestRequiredSuccesses(t *testing.T) {
	tests := []struct {
		difficulty int
		want       int
	}{
		{-8, 0},
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{12, 3},
		{14, 4},
		{20, 5},
		{26, 7},
	}

	for _, tt := range tests {
		if got := RequiredSuccesses(tt.difficulty); got != tt.want {
			t.Errorf("RequiredSuccesses(%d) = %d, want %d", tt.difficulty, got, tt.want)
		}
	}
}

func TestTierForMarginIsMonotonic(t *testing.T) {
	prev := TierForMargin(-20)
	for margin := -19; margin <= 20; margin++ {
		got := TierForMargin(margin)
		if got < prev {
			t.Fatalf("margin %d produced %v, worse than %v at margin %d", margin, got, prev, margin-1)
		}
		prev = got
	}
}

func TestTierForMargin(t *testing.T) {
	tests := []struct {
		margin int
		want   Tier
	}{
		{-3, TierFailure},
		{-1, TierFailure},
		{0, TierMarginalSuccess},
		{1, TierFullSuccess},
		{2, TierFullSuccess},
		{3, TierExceptionalSuccess},
		{4, TierExceptionalSuccess},
		{5, TierCriticalSuccess},
		{9, TierCriticalSuccess},
	}

	for _, tt := range tests {
		if got := TierForMargin(tt.margin); got != tt.want {
			t.Errorf("TierForMargin(%d) = %v, want %v", tt.margin, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		faces      []int
		check      Check
		wantTier   Tier
		wantTotal  int
		wantFumble bool
	}{
		{
			name:      "full success against difficulty 12",
			faces:     []int{8, 9, 10, 10, 2},
			check:     Check{Pool: dice.NewPool(5), Difficulty: 12},
			wantTier:  TierFullSuccess,
			wantTotal: 4,
		},
		{
			name:      "marginal success exactly meets requirement",
			faces:     []int{8, 3, 4},
			check:     Check{Pool: dice.NewPool(3), Difficulty: 4},
			wantTier:  TierMarginalSuccess,
			wantTotal: 1,
		},
		{
			name:      "bonuses add to total",
			faces:     []int{2, 3},
			check:     Check{Pool: dice.NewPool(2), AttributeBonus: 1, OtherBonus: 1, Difficulty: 8},
			wantTier:  TierMarginalSuccess,
			wantTotal: 2,
		},
		{
			name:       "fumble forces critical failure",
			faces:      []int{1, 4, 5},
			check:      Check{Pool: dice.NewPool(3), OtherBonus: 9, Difficulty: 4, Fumbles: true},
			wantTier:   TierCriticalFailure,
			wantTotal:  9,
			wantFumble: true,
		},
		{
			name:      "fumble ignored when subsystem opts out",
			faces:     []int{1, 4, 5},
			check:     Check{Pool: dice.NewPool(3), Difficulty: 4},
			wantTier:  TierFailure,
			wantTotal: 0,
		},
		{
			name:      "botch with a success is not a fumble",
			faces:     []int{1, 9},
			check:     Check{Pool: dice.NewPool(2), Difficulty: 4, Fumbles: true},
			wantTier:  TierMarginalSuccess,
			wantTotal: 1,
		},
		{
			name:      "negative difficulty always succeeds",
			faces:     []int{2, 2},
			check:     Check{Pool: dice.NewPool(2), Difficulty: -6},
			wantTier:  TierMarginalSuccess,
			wantTotal: 0,
		},
		{
			name:      "natural max flag forces critical",
			faces:     []int{2},
			check:     Check{Pool: dice.NewPool(1), Difficulty: 20, NaturalMax: true},
			wantTier:  TierCriticalSuccess,
			wantTotal: 0,
		},
		{
			name:      "primary die max forces critical",
			faces:     []int{10, 2, 2},
			check:     Check{Pool: dice.NewPool(3), Difficulty: 20, PrimaryDieCritical: true},
			wantTier:  TierCriticalSuccess,
			wantTotal: 1,
		},
		{
			name:      "primary die rule ignores later max faces",
			faces:     []int{2, 10},
			check:     Check{Pool: dice.NewPool(2), Difficulty: 20, PrimaryDieCritical: true},
			wantTier:  TierFailure,
			wantTotal: 1,
		},
		{
			name:      "empty pool uses bonuses only",
			faces:     nil,
			check:     Check{Pool: dice.NewPool(0), OtherBonus: 2, Difficulty: 4, Fumbles: true},
			wantTier:  TierFullSuccess,
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(dicefakes.NewFaces(tt.faces...), tt.check)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if result.Tier != tt.wantTier {
				t.Fatalf("tier = %v, want %v", result.Tier, tt.wantTier)
			}
			if result.Total != tt.wantTotal {
				t.Fatalf("total = %d, want %d", result.Total, tt.wantTotal)
			}
			if result.Fumble != tt.wantFumble {
				t.Fatalf("fumble = %v, want %v", result.Fumble, tt.wantFumble)
			}
			if len(result.Roll.Faces) != tt.check.Pool.Count {
				t.Fatalf("faces = %d, want %d", len(result.Roll.Faces), tt.check.Pool.Count)
			}
		})
	}
}

func TestResolveRejectsNegativePool(t *testing.T) {
	_, err := Resolve(dice.NewSource(1), Check{Pool: dice.NewPool(-2), Difficulty: 4})
	if err != dice.ErrNegativeDice {
		t.Fatalf("error = %v, want %v", err, dice.ErrNegativeDice)
	}
}

func TestEvaluateMonotonicForFixedModifiers(t *testing.T) {
	base := Check{Pool: dice.NewPool(6), OtherBonus: 1, Difficulty: 14, Fumbles: true}
	prev := TierUnspecified
	for successes := 0; successes <= 6; successes++ {
		faces := make([]int, 6)
		for i := range faces {
			if i < successes {
				faces[i] = 9
			} else {
				faces[i] = 5
			}
		}
		result := Evaluate(dice.Roll{Pool: base.Pool, Faces: faces}, base)
		if result.Tier < prev {
			t.Fatalf("%d successes produced %v, worse than %v", successes, result.Tier, prev)
		}
		prev = result.Tier
	}
}

func TestTierTextRoundTrip(t *testing.T) {
	for _, tier := range Tiers {
		text, err := tier.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", tier, err)
		}
		var decoded Tier
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if decoded != tier {
			t.Fatalf("decoded %v, want %v", decoded, tier)
		}
	}
	if _, err := ParseTier("legendary"); err == nil {
		t.Fatal("expected unknown tier error")
	}
}

func TestOddsSumToOne(t *testing.T) {
	for count := 0; count <= 10; count++ {
		odds, err := Odds(OddsRequest{Pool: dice.NewPool(count), Difficulty: 12, Fumbles: true})
		if err != nil {
			t.Fatalf("Odds(%d) error = %v", count, err)
		}
		total := 0.0
		for _, tier := range odds.Tiers {
			total += tier.Probability
		}
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("pool %d: probabilities sum to %f", count, total)
		}
	}
}

func TestOddsSingleDie(t *testing.T) {
	odds, err := Odds(OddsRequest{Pool: dice.NewPool(1), Difficulty: 4, Fumbles: true})
	if err != nil {
		t.Fatalf("Odds() error = %v", err)
	}
	if math.Abs(odds.Success-0.3) > 1e-9 {
		t.Fatalf("success = %f, want 0.3", odds.Success)
	}
	if math.Abs(odds.Fumble-0.1) > 1e-9 {
		t.Fatalf("fumble = %f, want 0.1", odds.Fumble)
	}
	if odds.Tiers[0].Tier != TierCriticalSuccess {
		t.Fatalf("first tier = %v, want critical success", odds.Tiers[0].Tier)
	}
}

func TestOddsRejectsNegativePool(t *testing.T) {
	if _, err := Odds(OddsRequest{Pool: dice.NewPool(-1)}); err == nil {
		t.Fatal("expected error")
	}
}
