package suggestsavingsplans

import "savings-workers/internal/models"

// Input carries one person and the catalog. Goal and HorizonYears override
// the person's own values when set.
type Input struct {
	Person       models.Person           `json:"person"`
	Products     []models.SavingsProduct `json:"products"`
	Goal         *float64                `json:"goal,omitempty"`
	HorizonYears *int                    `json:"horizonYears,omitempty"`
}

type Output struct {
	RunID                  string           `json:"runId"`
	MonthlySavingsCapacity float64          `json:"monthlySavingsCapacity"`
	Outcomes               []models.Outcome `json:"outcomes"`
	OutcomeCount           int              `json:"outcomeCount"`
	GoalMetCount           int              `json:"goalMetCount"`
}
