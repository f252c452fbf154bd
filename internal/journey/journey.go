// Package journey scores a member's daily goals and the tokens they earn.
package journey

import (
	"errors"
	"fmt"
	"math"

	"github.com/neuro21/neuro21/internal/network"
	"github.com/neuro21/neuro21/internal/session"
)

const (
	// MaxGoalScore is the best score of a single goal.
	MaxGoalScore = 10
	// BaseTokens is the daily earning of a perfect free-plan day.
	BaseTokens = 10
	// PremiumMultiplier scales earnings for premium members.
	PremiumMultiplier = 3
)

var (
	ErrUnknownGoal = errors.New("unknown goal")
	ErrScoreRange  = fmt.Errorf("score must be between 0 and %d", MaxGoalScore)
)

// Goal is one daily goal and the score the member gave it.
type Goal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"maxScore"`
}

// Completed reports whether the goal reached its best score.
func (g Goal) Completed() bool {
	return g.Score >= g.MaxScore
}

// DefaultGoals returns the daily goals with zero scores.
func DefaultGoals() []Goal {
	return []Goal{
		{ID: network.RewardExercise, Name: "Exercise", Description: "Physical activity and movement", MaxScore: MaxGoalScore},
		{ID: network.RewardNutrition, Name: "Nutrition", Description: "Healthy eating and nutrition", MaxScore: MaxGoalScore},
		{ID: network.RewardSleep, Name: "Sleep", Description: "Quality sleep and rest", MaxScore: MaxGoalScore},
	}
}

// Apply sets the scores of the default goals. Goals without a score stay at zero.
func Apply(scores map[string]int) ([]Goal, error) {
	goals := DefaultGoals()
	index := make(map[string]int, len(goals))
	for i, g := range goals {
		index[g.ID] = i
	}
	for id, score := range scores {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGoal, id)
		}
		if score < 0 || score > goals[i].MaxScore {
			return nil, fmt.Errorf("%w: %s=%d", ErrScoreRange, id, score)
		}
		goals[i].Score = score
	}
	return goals, nil
}

// Score returns the total and the best possible total of goals.
func Score(goals []Goal) (total, best int) {
	for _, g := range goals {
		total += g.Score
		best += g.MaxScore
	}
	return total, best
}

// Completion is the percentage of the best possible total reached.
func Completion(goals []Goal) float64 {
	total, best := Score(goals)
	if best == 0 {
		return 0
	}
	return float64(total) / float64(best) * 100
}

// Multiplier returns the earning multiplier of plan.
func Multiplier(plan session.Plan) int {
	if plan == session.PlanPremium {
		return PremiumMultiplier
	}
	return 1
}

// PotentialTokens is the number of tokens the day would earn on plan.
func PotentialTokens(goals []Goal, plan session.Plan) int64 {
	total, best := Score(goals)
	if best == 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(best) * BaseTokens * float64(Multiplier(plan))))
}

// Rewards lists the network reward of every completed goal.
func Rewards(goals []Goal) map[string]int64 {
	out := map[string]int64{}
	for _, g := range goals {
		if !g.Completed() {
			continue
		}
		if amount, ok := network.Rewards[g.ID]; ok {
			out[g.ID] = amount
		}
	}
	return out
}

// Preview summarises a day of goals for a member.
type Preview struct {
	Goals           []Goal           `json:"goals"`
	TotalScore      int              `json:"totalScore"`
	MaxScore        int              `json:"maxScore"`
	Completion      float64          `json:"completion"`
	Multiplier      int              `json:"multiplier"`
	PotentialTokens int64            `json:"potentialTokens"`
	Rewards         map[string]int64 `json:"rewards"`
}

// NewPreview builds the preview of goals for plan.
func NewPreview(goals []Goal, plan session.Plan) Preview {
	total, best := Score(goals)
	return Preview{
		Goals:           goals,
		TotalScore:      total,
		MaxScore:        best,
		Completion:      Completion(goals),
		Multiplier:      Multiplier(plan),
		PotentialTokens: PotentialTokens(goals, plan),
		Rewards:         Rewards(goals),
	}
}
