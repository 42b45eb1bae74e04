package playtest

import (
	"context"
	"fmt"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/contest"
	"github.com/louisbranch/parley/internal/services/contest/app"
	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/systems/social/influence"
	"github.com/louisbranch/parley/internal/systems/social/interrogation"
	"github.com/louisbranch/parley/internal/systems/social/intimidation"
	"github.com/louisbranch/parley/internal/systems/social/lockpicking"
	"github.com/louisbranch/parley/internal/systems/social/negotiation"
	"github.com/louisbranch/parley/internal/systems/social/protocol"
)

// Report is the YAML summary of a playtest run.
type Report struct {
	Seed     int64           `yaml:"seed"`
	Locale   string          `yaml:"locale"`
	Contests []ContestReport `yaml:"contests"`
	Checks   []CheckReport   `yaml:"checks"`
	Ledger   map[string]int  `yaml:"ledger"`
}

// ContestReport summarizes one extended contest.
type ContestReport struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Status   string   `yaml:"status"`
	Rounds   int      `yaml:"rounds"`
	Reliable *bool    `yaml:"reliable,omitempty"`
	Story    []string `yaml:"story"`
}

// CheckReport summarizes one single-shot check.
type CheckReport struct {
	ID        string `yaml:"id"`
	Kind      string `yaml:"kind"`
	Tier      string `yaml:"tier"`
	Narrative string `yaml:"narrative"`
}

type deltaLister interface {
	ListDeltas(ctx context.Context, contestID string) ([]ledger.Delta, error)
}

// Round caps keep a misbehaving subsystem from spinning forever.
const (
	maxNegotiationRounds = 16
	influenceRounds      = 6
	influenceAverage     = 3
)

var (
	complexities = []negotiation.Complexity{
		negotiation.ComplexityFairTrade,
		negotiation.ComplexitySlightAdvantage,
		negotiation.ComplexityNoticeableAdvantage,
	}
	convictions = []influence.Conviction{
		influence.ConvictionWeakOpinion,
		influence.ConvictionModerateBelief,
		influence.ConvictionStrongConviction,
	}
	locks = []lockpicking.LockType{
		lockpicking.LockSimple,
		lockpicking.LockStandard,
		lockpicking.LockComplex,
	}
)

type simulation struct {
	svc      *app.Service
	deltas   deltaLister
	contests []ContestReport
	checks   []CheckReport
}

func (s *simulation) session(ctx context.Context, i int) error {
	if err := s.negotiate(ctx, i); err != nil {
		return err
	}
	if err := s.interrogate(ctx, i); err != nil {
		return err
	}
	if err := s.persuade(ctx, i); err != nil {
		return err
	}
	return s.singleShots(ctx, i)
}

func (s *simulation) negotiate(ctx context.Context, i int) error {
	n, err := s.svc.StartNegotiation(ctx, negotiation.Start{
		NPCID:      fmt.Sprintf("merchant-%d", i+1),
		Complexity: complexities[i%len(complexities)],
	})
	if err != nil {
		return err
	}
	report := ContestReport{ID: n.ID, Kind: "negotiation", Status: string(n.Status)}
	status := n.Status
	roundsLeft := n.RoundsRemaining()
	conceded := false
	for round := 0; !status.IsTerminal() && round < maxNegotiationRounds; round++ {
		play := negotiation.Play{Tactic: negotiation.TacticPersuade, Attribute: 3, Skill: 2}
		switch {
		case status == negotiation.StatusCrisisManagement && !conceded:
			play = negotiation.Play{Tactic: negotiation.TacticConcede, Concession: &negotiation.Concession{
				Type:   negotiation.ConcessionOfferItem,
				ItemID: "silver-ring",
			}}
			conceded = true
		case status == negotiation.StatusFinalization || roundsLeft == 1:
			play.Tactic = negotiation.TacticPressure
		}
		outcome, err := s.svc.PlayNegotiation(ctx, n.ID, play)
		if err != nil {
			return err
		}
		status = outcome.Result.Status
		roundsLeft = outcome.Result.RoundsLeft
		report.Story = append(report.Story, outcome.Narrative)
	}
	if !status.IsTerminal() {
		if err := s.svc.AbandonNegotiation(ctx, n.ID, "the market closed"); err != nil {
			return err
		}
	}
	result, err := s.svc.FinalizeNegotiation(ctx, n.ID)
	if err != nil {
		return err
	}
	report.Status = string(result.Status)
	report.Rounds = result.Rounds
	s.contests = append(s.contests, report)
	return nil
}

func (s *simulation) interrogate(ctx context.Context, i int) error {
	session, err := s.svc.StartInterrogation(ctx, "", interrogation.Subject{
		ID:   fmt.Sprintf("informant-%d", i+1),
		Will: (i * 2) % 8,
	})
	if err != nil {
		return err
	}
	methods := []interrogation.Method{interrogation.MethodGoodCop, interrogation.MethodBadCop}
	report := ContestReport{ID: session.ID, Kind: "interrogation"}
	for round := 0; session.Status == interrogation.StatusInProgress; round++ {
		outcome, err := s.svc.ConductInterrogation(ctx, session.ID, interrogation.RoundInput{
			Method:    methods[round%len(methods)],
			Attribute: 3,
			Skill:     2,
		})
		if err != nil {
			return err
		}
		report.Story = append(report.Story, outcome.Narrative)
		if session, err = s.svc.GetInterrogation(ctx, session.ID); err != nil {
			return err
		}
	}
	if session.Status == interrogation.StatusSubjectBroken {
		info, err := s.svc.ExtractInformation(ctx, session.ID)
		if err != nil {
			return err
		}
		report.Reliable = &info.Reliable
	}
	report.Status = string(session.Status)
	report.Rounds = session.Round
	s.contests = append(s.contests, report)
	return nil
}

func (s *simulation) persuade(ctx context.Context, i int) error {
	inf, err := s.svc.StartInfluence(ctx, influence.Start{
		TargetID:   fmt.Sprintf("elder-%d", i+1),
		Belief:     "outsiders bring the blight",
		Conviction: convictions[i%len(convictions)],
	})
	if err != nil {
		return err
	}
	id := inf.State.ID
	report := ContestReport{ID: id, Kind: "influence"}
	outlook := app.InfluenceOutlook{Status: inf.State.Status, CanSucceed: true}
	for round := 0; outlook.Status == contest.StatusActive && round < influenceRounds; round++ {
		if !outlook.CanSucceed {
			break
		}
		outcome, err := s.svc.AttemptInfluence(ctx, id, influence.Attempt{Method: "debate", Attribute: 3, Skill: 2})
		if err != nil {
			return err
		}
		report.Story = append(report.Story, outcome.Narrative)
		report.Rounds++
		if outlook, err = s.svc.OutlookInfluence(ctx, id, influenceRounds-round-1, influenceAverage); err != nil {
			return err
		}
	}
	if outlook.Status == contest.StatusActive {
		if err := s.svc.AbandonInfluence(ctx, id, "the elder stopped listening"); err != nil {
			return err
		}
		outlook.Status = contest.StatusFailed
	}
	report.Status = string(outlook.Status)
	s.contests = append(s.contests, report)
	return nil
}

func (s *simulation) singleShots(ctx context.Context, i int) error {
	scared, err := s.svc.Intimidate(ctx, fmt.Sprintf("guard-%d", i+1), intimidation.Context{
		Target:   intimidation.TargetCommon,
		Approach: intimidation.ApproachPhysical,
		Might:    3,
		Skill:    1,
	})
	if err != nil {
		return err
	}
	s.addCheck(scared.ContestID, "intimidation", scared.Result.Tier, scared.Narrative)

	picked, err := s.svc.PickLock(ctx, lockpicking.Context{
		Lock:    lockpicking.Lock{Type: locks[i%len(locks)]},
		Tool:    lockpicking.ToolImprovised,
		Finesse: 3,
		Skill:   2,
	})
	if err != nil {
		return err
	}
	s.addCheck(picked.ContestID, "lockpicking", picked.Result.Tier, picked.Narrative)

	bowed, err := s.svc.ResolveProtocol(ctx, protocol.Context{
		CultureID:  "veil-court",
		Attribute:  2,
		Skill:      2,
		Difficulty: 10,
	})
	if err != nil {
		return err
	}
	s.addCheck(bowed.ContestID, "protocol", bowed.Result.Tier, bowed.Narrative)
	return nil
}

func (s *simulation) addCheck(id, kind string, tier check.Tier, narrative string) {
	s.checks = append(s.checks, CheckReport{ID: id, Kind: kind, Tier: tier.Key(), Narrative: narrative})
}

func (s *simulation) report(ctx context.Context, seed int64, locale string) (Report, error) {
	report := Report{
		Seed:     seed,
		Locale:   locale,
		Contests: s.contests,
		Checks:   s.checks,
		Ledger:   map[string]int{},
	}
	ids := make([]string, 0, len(s.contests)+len(s.checks))
	for _, c := range s.contests {
		ids = append(ids, c.ID)
	}
	for _, c := range s.checks {
		ids = append(ids, c.ID)
	}
	for _, id := range ids {
		deltas, err := s.deltas.ListDeltas(ctx, id)
		if err != nil {
			return Report{}, err
		}
		for kind, amount := range ledger.Totals(deltas) {
			report.Ledger[string(kind)] += amount
		}
	}
	return report, nil
}
