package app

import (
	"context"
	"testing"

	"github.com/louisbranch/parley/internal/core/contest"
	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	"github.com/louisbranch/parley/internal/platform/i18n/catalog"
	"github.com/louisbranch/parley/internal/systems/social/influence"
	"github.com/louisbranch/parley/internal/testkit/dicefakes"
)

func TestInfluenceChangesBelief(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(10), "")
	ctx := context.Background()
	inf, err := svc.StartInfluence(ctx, influence.Start{
		ID:         "inf-1",
		TargetID:   "target-1",
		Belief:     "the river is cursed",
		Conviction: influence.ConvictionWeakOpinion,
	})
	if err != nil {
		t.Fatalf("start influence: %v", err)
	}
	// Eight tens against three required is a margin of 5, the whole threshold.
	attempt := influence.Attempt{Attribute: 4, Skill: 4}

	outcome, err := svc.AttemptInfluence(ctx, inf.State.ID, attempt)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	want := catalog.Default().Render(catalog.BaseLocale, "influence.changed", map[string]string{"Target": "target-1"})
	if outcome.Narrative != want {
		t.Fatalf("narrative = %q, want %q", outcome.Narrative, want)
	}
	if outcome.Result.ProgressDelta != 5 {
		t.Fatalf("progress delta = %d, want 5", outcome.Result.ProgressDelta)
	}

	again, err := svc.AttemptInfluence(ctx, inf.State.ID, attempt)
	if err != nil {
		t.Fatalf("attempt after success: %v", err)
	}
	if !again.Result.Satisfied {
		t.Fatalf("expected satisfied result, got %+v", again.Result)
	}

	outlook, err := svc.OutlookInfluence(ctx, inf.State.ID, 3, 2)
	if err != nil {
		t.Fatalf("outlook: %v", err)
	}
	if outlook.Status != contest.StatusSucceeded || outlook.Progress != 100 || outlook.Remaining != 0 {
		t.Fatalf("outlook = %+v", outlook)
	}

	stored, err := svc.GetInfluence(ctx, inf.State.ID)
	if err != nil {
		t.Fatalf("get influence: %v", err)
	}
	if len(stored.State.History) != 1 || stored.State.History[0].Narrative != want {
		t.Fatalf("stored history = %+v", stored.State.History)
	}
	if got := countSeries(t, svc.recorder, "parley_checks_total"); got != 1 {
		t.Fatalf("check series = %d, want 1", got)
	}
}

func TestInfluenceStallAndResume(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	ctx := context.Background()
	inf, err := svc.StartInfluence(ctx, influence.Start{
		TargetID:   "target-1",
		Belief:     "the guild lies",
		Conviction: influence.ConvictionModerateBelief,
	})
	if err != nil {
		t.Fatalf("start influence: %v", err)
	}
	id := inf.State.ID
	attempt := influence.Attempt{Attribute: 2, Skill: 2}

	if err := svc.ResumeInfluence(ctx, id, 1); apperrors.CodeOf(err) != apperrors.CodeContestNotStalled {
		t.Fatalf("expected not stalled, got %v", err)
	}
	if err := svc.StallInfluence(ctx, id, "target left town", "target returns"); err != nil {
		t.Fatalf("stall: %v", err)
	}
	if _, err := svc.AttemptInfluence(ctx, id, attempt); apperrors.CodeOf(err) != apperrors.CodeContestNotActive {
		t.Fatalf("expected not active while stalled, got %v", err)
	}
	stored, err := svc.GetInfluence(ctx, id)
	if err != nil {
		t.Fatalf("get influence: %v", err)
	}
	if stored.State.Status != contest.StatusStalled || stored.State.ResumeCondition != "target returns" {
		t.Fatalf("stored state = %+v", stored.State)
	}

	if err := svc.ResumeInfluence(ctx, id, 2); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := svc.AttemptInfluence(ctx, id, attempt); err != nil {
		t.Fatalf("attempt after resume: %v", err)
	}

	if err := svc.AbandonInfluence(ctx, id, "gave up"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := svc.AttemptInfluence(ctx, id, attempt); apperrors.CodeOf(err) != apperrors.CodeContestTerminal {
		t.Fatalf("expected terminal, got %v", err)
	}
}

func TestStartInfluenceRequiresLifeEventForFanatics(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	_, err := svc.StartInfluence(context.Background(), influence.Start{
		TargetID:   "zealot",
		Belief:     "the flame is eternal",
		Conviction: influence.ConvictionFanatical,
	})
	if apperrors.CodeOf(err) != apperrors.CodeInfluenceLifeEventRequired {
		t.Fatalf("expected life event required, got %v", err)
	}
	records, err := svc.records.ListContests(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("list contests: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected nothing saved, got %d records", len(records))
	}
}
