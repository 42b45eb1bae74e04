package app

import (
	"context"
	"testing"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	"github.com/louisbranch/parley/internal/platform/i18n/catalog"
	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/systems/social/interrogation"
	"github.com/louisbranch/parley/internal/testkit/dicefakes"
)

func TestInterrogationBreaksSubject(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(10), "")
	ctx := context.Background()

	session, err := svc.StartInterrogation(ctx, "int-1", interrogation.Subject{ID: "subject-1", Will: 0})
	if err != nil {
		t.Fatalf("start interrogation: %v", err)
	}
	if session.Status != interrogation.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", session.Status)
	}
	if _, err := svc.ExtractInformation(ctx, session.ID); apperrors.CodeOf(err) != apperrors.CodeContestNotActive {
		t.Fatalf("expected not active before the subject breaks, got %v", err)
	}

	outcome, err := svc.ConductInterrogation(ctx, session.ID, interrogation.RoundInput{
		Method:    interrogation.MethodBadCop,
		Attribute: 3,
		Skill:     2,
	})
	if err != nil {
		t.Fatalf("conduct: %v", err)
	}
	want := catalog.Default().Render(catalog.BaseLocale, "interrogation.broken", map[string]string{"Target": "subject-1"})
	if outcome.Narrative != want {
		t.Fatalf("narrative = %q, want %q", outcome.Narrative, want)
	}

	stored, err := svc.GetInterrogation(ctx, session.ID)
	if err != nil {
		t.Fatalf("get interrogation: %v", err)
	}
	if stored.Status != interrogation.StatusSubjectBroken {
		t.Fatalf("stored status = %s", stored.Status)
	}
	if len(stored.History) != 1 || stored.History[0].Narrative != want {
		t.Fatalf("stored history = %+v", stored.History)
	}

	deltas := svc.deltas.List()
	if len(deltas) != 1 || deltas[0].Kind != ledger.KindDisposition || deltas[0].Amount != -5 {
		t.Fatalf("deltas = %+v", deltas)
	}
	if deltas[0].Source != string(interrogation.MethodBadCop) || deltas[0].Round != 1 {
		t.Fatalf("delta provenance = %+v", deltas[0])
	}

	info, err := svc.ExtractInformation(ctx, session.ID)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if info.Roll != 10 || !info.Reliable {
		t.Fatalf("information = %+v", info)
	}
}

func TestQuoteBribeIsFixedOnce(t *testing.T) {
	svc := newTestService(t, dicefakes.NewFaces(501, 1), "")
	ctx := context.Background()
	session, err := svc.StartInterrogation(ctx, "int-1", interrogation.Subject{ID: "subject-1", Will: 4})
	if err != nil {
		t.Fatalf("start interrogation: %v", err)
	}

	first, err := svc.QuoteBribe(ctx, session.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if first != interrogation.ResistanceModerate.Profile().BribeCost {
		t.Fatalf("first quote = %d", first)
	}
	second, err := svc.QuoteBribe(ctx, session.ID)
	if err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if second != first {
		t.Fatalf("second quote = %d, want %d", second, first)
	}
	stored, err := svc.GetInterrogation(ctx, session.ID)
	if err != nil {
		t.Fatalf("get interrogation: %v", err)
	}
	if stored.BribeCost != first {
		t.Fatalf("stored bribe = %d, want %d", stored.BribeCost, first)
	}
}

func TestAbandonInterrogation(t *testing.T) {
	svc := newTestService(t, dicefakes.Repeat(5), "")
	ctx := context.Background()
	session, err := svc.StartInterrogation(ctx, "", interrogation.Subject{ID: "subject-1", Will: 6})
	if err != nil {
		t.Fatalf("start interrogation: %v", err)
	}

	if err := svc.AbandonInterrogation(ctx, session.ID, "guards arrived"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	_, err = svc.ConductInterrogation(ctx, session.ID, interrogation.RoundInput{Method: interrogation.MethodGoodCop, Attribute: 2, Skill: 2})
	if apperrors.CodeOf(err) != apperrors.CodeInterrogationNotInProgress {
		t.Fatalf("expected not in progress, got %v", err)
	}
	stored, err := svc.GetInterrogation(ctx, session.ID)
	if err != nil {
		t.Fatalf("get interrogation: %v", err)
	}
	if stored.Status != interrogation.StatusAbandoned || stored.AbandonReason != "guards arrived" {
		t.Fatalf("stored session = %+v", stored)
	}
}
