// internal/models/outcome.go
package models

import "fmt"

// ScenarioKind separates the contribution the person typed in from the
// shares of their savings capacity, so a user-chosen amount is never
// confused with a 0% effort.
type ScenarioKind string

const (
	ScenarioUserChosen    ScenarioKind = "user_chosen"
	ScenarioCapacityShare ScenarioKind = "capacity_share"
)

// Scenario is one contribution level evaluated against a product.
type Scenario struct {
	Kind    ScenarioKind `json:"kind"`
	Percent int          `json:"percent"` // 25, 50, 75 or 100 for capacity shares, 0 otherwise
}

// EffortPercent is the legacy numeric tag: 0 for the user-chosen amount.
func (s Scenario) EffortPercent() int {
	if s.Kind == ScenarioUserChosen {
		return 0
	}
	return s.Percent
}

func (s Scenario) Label() string {
	if s.Kind == ScenarioUserChosen {
		return "user"
	}
	return fmt.Sprintf("%d%%", s.Percent)
}

// Outcome is the projection of one (product, scenario) pair.
type Outcome struct {
	ProductName         string   `json:"productName"`
	Scenario            Scenario `json:"scenario"`
	EffortPercent       int      `json:"effortPercent"`
	MonthlyContribution float64  `json:"monthlyContribution"`
	TotalContributed    float64  `json:"totalContributed"`
	GrossInterest       float64  `json:"grossInterest"`
	NetInterest         float64  `json:"netInterest"`
	FinalNetCapital     float64  `json:"finalNetCapital"`
	GoalMet             bool     `json:"goalMet"`
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s [%s]: contributed %.2f, gross interest %.2f, net interest %.2f, final %.2f, goal met %t",
		o.ProductName, o.Scenario.Label(), o.TotalContributed, o.GrossInterest, o.NetInterest, o.FinalNetCapital, o.GoalMet)
}
