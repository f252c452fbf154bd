package journey

import (
	"errors"
	"math"
	"testing"

	"github.com/neuro21/neuro21/internal/network"
	"github.com/neuro21/neuro21/internal/session"
)

func TestPotentialTokens(t *testing.T) {
	cases := []struct {
		scores map[string]int
		plan   session.Plan
		want   int64
	}{
		{map[string]int{}, session.PlanFree, 0},
		{map[string]int{"exercise": 10, "nutrition": 10, "sleep": 10}, session.PlanFree, 10},
		{map[string]int{"exercise": 10, "nutrition": 10, "sleep": 10}, session.PlanPremium, 30},
		{map[string]int{"exercise": 7, "nutrition": 5, "sleep": 8}, session.PlanFree, 7},
		{map[string]int{"exercise": 7, "nutrition": 5, "sleep": 8}, session.PlanPremium, 20},
		{map[string]int{"sleep": 1}, session.PlanFree, 0},
		{map[string]int{"sleep": 2}, session.PlanFree, 1},
	}
	for _, tc := range cases {
		goals, err := Apply(tc.scores)
		if err != nil {
			t.Fatalf("apply %v: %v", tc.scores, err)
		}
		if got := PotentialTokens(goals, tc.plan); got != tc.want {
			t.Fatalf("scores %v plan %s: expected %d, got %d", tc.scores, tc.plan, tc.want, got)
		}
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	if _, err := Apply(map[string]int{"meditation": 3}); !errors.Is(err, ErrUnknownGoal) {
		t.Fatalf("expected ErrUnknownGoal, got %v", err)
	}
	if _, err := Apply(map[string]int{"sleep": 11}); !errors.Is(err, ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
	if _, err := Apply(map[string]int{"sleep": -1}); !errors.Is(err, ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	goals, err := Apply(map[string]int{"exercise": 10, "nutrition": 4, "sleep": 10})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	p := NewPreview(goals, session.PlanPremium)
	if p.TotalScore != 24 || p.MaxScore != 30 {
		t.Fatalf("unexpected score %d/%d", p.TotalScore, p.MaxScore)
	}
	if math.Abs(p.Completion-80) > 1e-9 {
		t.Fatalf("expected 80%% completion, got %v", p.Completion)
	}
	if p.Multiplier != PremiumMultiplier || p.PotentialTokens != 24 {
		t.Fatalf("unexpected earnings %+v", p)
	}
	if len(p.Rewards) != 2 || p.Rewards["exercise"] != network.Rewards["exercise"] || p.Rewards["sleep"] != 600 {
		t.Fatalf("unexpected rewards %v", p.Rewards)
	}
}
