package ranksavingsoutcomes

import "savings-workers/internal/models"

type Input struct {
	Outcomes    []models.Outcome `json:"outcomes"`
	GoalMetOnly *bool            `json:"goalMetOnly,omitempty"`
	MaxItems    *int             `json:"maxItems,omitempty"`
}

type Output struct {
	RankedOutcomes []models.Outcome `json:"rankedOutcomes"`
	RankedCount    int              `json:"rankedCount"`
}
