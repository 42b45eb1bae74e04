package intimidation

import (
	"testing"

	"github.com/louisbranch/parley/internal/core/check"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	"github.com/louisbranch/parley/internal/testkit/dicefakes"
)

func TestCostOfFear(t *testing.T) {
	tests := []struct {
		tier check.Tier
		want int
	}{
		{check.TierCriticalSuccess, -3},
		{check.TierExceptionalSuccess, -5},
		{check.TierFullSuccess, -5},
		{check.TierMarginalSuccess, -5},
		{check.TierFailure, -10},
		{check.TierCriticalFailure, -10},
	}
	for _, tt := range tests {
		if got := CostOfFear(tt.tier); got != tt.want {
			t.Errorf("CostOfFear(%v) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestComplianceFor(t *testing.T) {
	tests := []struct {
		tier check.Tier
		want Compliance
	}{
		{check.TierCriticalSuccess, ComplianceComplete},
		{check.TierExceptionalSuccess, ComplianceFull},
		{check.TierFullSuccess, ComplianceReluctant},
		{check.TierMarginalSuccess, ComplianceMinimal},
		{check.TierFailure, ComplianceNone},
		{check.TierCriticalFailure, ComplianceNone},
	}
	for _, tt := range tests {
		if got := ComplianceFor(tt.tier); got != tt.want {
			t.Errorf("ComplianceFor(%v) = %s, want %s", tt.tier, got, tt.want)
		}
	}
}

func TestCompareStrength(t *testing.T) {
	tests := []struct {
		player, target int
		want           RelativeStrength
	}{
		{5, 3, PlayerStronger},
		{5, 4, EvenlyMatched},
		{4, 4, EvenlyMatched},
		{3, 4, EvenlyMatched},
		{2, 4, PlayerWeaker},
	}
	for _, tt := range tests {
		if got := CompareStrength(tt.player, tt.target); got != tt.want {
			t.Errorf("CompareStrength(%d, %d) = %s, want %s", tt.player, tt.target, got, tt.want)
		}
	}
}

func TestContextPoolAndDifficulty(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		wantPool int
		wantDC   int
	}{
		{
			name:     "physical even",
			ctx:      Context{Target: TargetCommon, Approach: ApproachPhysical, Might: 3, Will: 1, Skill: 2, PlayerLevel: 3, TargetLevel: 3},
			wantPool: 5,
			wantDC:   12,
		},
		{
			name:     "mental stronger",
			ctx:      Context{Target: TargetVeteran, Approach: ApproachMental, Might: 1, Will: 4, Skill: 1, PlayerLevel: 6, TargetLevel: 2},
			wantPool: 6,
			wantDC:   16,
		},
		{
			name:     "weaker adds difficulty",
			ctx:      Context{Target: TargetFactionLeader, Approach: ApproachPhysical, Might: 2, Skill: 2, PlayerLevel: 1, TargetLevel: 5},
			wantPool: 4,
			wantDC:   28,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.DicePool(); got != tt.wantPool {
				t.Fatalf("pool = %d, want %d", got, tt.wantPool)
			}
			if got := tt.ctx.EffectiveDifficulty(); got != tt.wantDC {
				t.Fatalf("difficulty = %d, want %d", got, tt.wantDC)
			}
		})
	}
}

func TestIntimidateCommonFullSuccess(t *testing.T) {
	// Common needs 3 successes; four successes is a margin of 1.
	ctx := Context{Target: TargetCommon, Approach: ApproachPhysical, Might: 3, Skill: 2}
	result, err := Intimidate(dicefakes.NewFaces(8, 9, 10, 8, 2), ctx)
	if err != nil {
		t.Fatalf("intimidate: %v", err)
	}
	if result.Tier != check.TierFullSuccess {
		t.Fatalf("tier = %v, want full success", result.Tier)
	}
	if result.ReputationCost != -5 {
		t.Fatalf("reputation = %d, want -5", result.ReputationCost)
	}
	if result.Compliance != ComplianceReluctant {
		t.Fatalf("compliance = %s, want reluctant", result.Compliance)
	}
	if result.DispositionDelta != 0 {
		t.Fatalf("disposition = %d, want 0", result.DispositionDelta)
	}
}

func TestIntimidateLeadDieMaxIsCritical(t *testing.T) {
	// One success against Common's three would fail on margin alone.
	ctx := Context{Target: TargetCommon, Approach: ApproachPhysical, Might: 2, Skill: 1}
	result, err := Intimidate(dicefakes.NewFaces(10, 1, 1), ctx)
	if err != nil {
		t.Fatalf("intimidate: %v", err)
	}
	if result.Tier != check.TierCriticalSuccess || !result.Check.Critical {
		t.Fatalf("tier = %v, want critical success", result.Tier)
	}
	if result.Compliance != ComplianceComplete {
		t.Fatalf("compliance = %s, want complete", result.Compliance)
	}
	if result.ReputationCost != -3 {
		t.Fatalf("reputation = %d, want -3", result.ReputationCost)
	}
	if result.CombatTriggered {
		t.Fatal("critical success should not trigger combat")
	}
}

func TestIntimidateFailure(t *testing.T) {
	ctx := Context{Target: TargetElite, Approach: ApproachMental, Will: 2, Skill: 1}
	result, err := Intimidate(dicefakes.NewFaces(8, 5, 4), ctx)
	if err != nil {
		t.Fatalf("intimidate: %v", err)
	}
	if result.Tier != check.TierFailure {
		t.Fatalf("tier = %v, want failure", result.Tier)
	}
	if result.ReputationCost != -10 || result.DispositionDelta != FailureDisposition {
		t.Fatalf("costs = %d/%d, want -10/%d", result.ReputationCost, result.DispositionDelta, FailureDisposition)
	}
	if result.CombatTriggered {
		t.Fatal("plain failure should not trigger combat")
	}
}

func TestIntimidateFumble(t *testing.T) {
	ctx := Context{Target: TargetCoward, Approach: ApproachPhysical, Might: 2, Skill: 1}
	result, err := Intimidate(dicefakes.NewFaces(1, 3, 5), ctx)
	if err != nil {
		t.Fatalf("intimidate: %v", err)
	}
	if result.Tier != check.TierCriticalFailure {
		t.Fatalf("tier = %v, want critical failure", result.Tier)
	}
	if !result.CombatTriggered || !result.Furious {
		t.Fatal("expected fumble to provoke combat")
	}
	if result.Stress != FumbleStress || result.InitiativeBonus != FumbleInitiativeBonus {
		t.Fatalf("fumble costs = %d/%d", result.Stress, result.InitiativeBonus)
	}
	if result.DispositionDelta != FumbleDisposition {
		t.Fatalf("disposition = %d, want %d", result.DispositionDelta, FumbleDisposition)
	}
	if result.ReputationCost != -10 {
		t.Fatalf("reputation = %d, want -10", result.ReputationCost)
	}
}

func TestIntimidateRejectsUnknownTags(t *testing.T) {
	if _, err := Intimidate(dicefakes.Repeat(9), Context{Target: "dragon", Approach: ApproachPhysical}); apperrors.CodeOf(err) != apperrors.CodeUnknownTier {
		t.Fatalf("expected unknown tier, got %v", err)
	}
	if _, err := Intimidate(dicefakes.Repeat(9), Context{Target: TargetCommon, Approach: "bribe"}); apperrors.CodeOf(err) != apperrors.CodeUnknownMethod {
		t.Fatalf("expected unknown method, got %v", err)
	}
}
