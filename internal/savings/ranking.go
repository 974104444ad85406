package savings

import (
	"sort"

	"savings-workers/internal/models"
)

// GoalMet returns the outcomes that reach the goal, in their original order.
func GoalMet(outcomes []models.Outcome) []models.Outcome {
	kept := make([]models.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.GoalMet {
			kept = append(kept, o)
		}
	}
	return kept
}

// RankByNetCapital returns a copy of outcomes sorted by final net capital,
// highest first. Equal capitals keep their generation order.
func RankByNetCapital(outcomes []models.Outcome) []models.Outcome {
	ranked := make([]models.Outcome, len(outcomes))
	copy(ranked, outcomes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalNetCapital > ranked[j].FinalNetCapital
	})
	return ranked
}

// Rank optionally drops the outcomes missing the goal, ranks the rest and
// keeps at most limit of them. A limit <= 0 keeps everything.
func Rank(outcomes []models.Outcome, goalMetOnly bool, limit int) []models.Outcome {
	if goalMetOnly {
		outcomes = GoalMet(outcomes)
	}
	ranked := RankByNetCapital(outcomes)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
