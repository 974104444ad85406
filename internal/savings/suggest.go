package savings

import "savings-workers/internal/models"

const monthsPerYear = 12

var scenarios = []models.Scenario{
	{Kind: models.ScenarioUserChosen},
	{Kind: models.ScenarioCapacityShare, Percent: 25},
	{Kind: models.ScenarioCapacityShare, Percent: 50},
	{Kind: models.ScenarioCapacityShare, Percent: 75},
	{Kind: models.ScenarioCapacityShare, Percent: 100},
}

// Scenarios returns the contribution levels evaluated for every product, in
// output order.
func Scenarios() []models.Scenario {
	return append([]models.Scenario(nil), scenarios...)
}

// MonthlyContribution resolves the monthly amount of a scenario for a person
// whose monthly savings capacity is capacity. Negative capacities are kept
// as is.
func MonthlyContribution(person models.Person, capacity float64, s models.Scenario) float64 {
	if s.Kind == models.ScenarioUserChosen {
		return person.UserMonthlyContribution
	}
	return float64(s.Percent) / 100 * capacity
}

// Suggest projects every eligible (product, scenario) pair for person over
// horizon years and reports whether each one reaches goal.
//
// Products are visited in catalog order and skipped when horizon is shorter
// than their minimum. A scenario is skipped when the product caps total
// contributions below what the scenario would pay in. Outcomes come back in
// product-then-scenario order, neither filtered on the goal nor sorted.
func Suggest(person models.Person, catalog []models.SavingsProduct, goal float64, horizon int) []models.Outcome {
	outcomes, _ := suggest(person, catalog, goal, horizon)
	return outcomes
}

// Skips counts the pairs Suggest left out, by reason.
type Skips struct {
	HorizonTooShort int // products, each one removing all its scenarios
	OverCap         int // single scenarios
}

// SuggestWithSkips is Suggest plus the count of what was filtered out.
func SuggestWithSkips(person models.Person, catalog []models.SavingsProduct, goal float64, horizon int) ([]models.Outcome, Skips) {
	return suggest(person, catalog, goal, horizon)
}

func suggest(person models.Person, catalog []models.SavingsProduct, goal float64, horizon int) ([]models.Outcome, Skips) {
	var skips Skips
	capacity := person.MonthlySavingsCapacity()
	outcomes := make([]models.Outcome, 0, len(catalog)*len(scenarios))

	for _, product := range catalog {
		if horizon < product.MinHorizonYears {
			skips.HorizonTooShort++
			continue
		}

		for _, scenario := range scenarios {
			monthly := MonthlyContribution(person, capacity, scenario)
			annual := monthly * monthsPerYear
			total := annual * float64(horizon)

			if product.HasCap() && total > *product.MaxTotalContribution {
				skips.OverCap++
				continue
			}

			grossFinal := Compound(annual, product.AnnualRate, horizon)
			grossInterest := grossFinal - total
			netInterest := grossInterest * (1 - product.TaxRate)
			netCapital := total + netInterest

			outcomes = append(outcomes, models.Outcome{
				ProductName:         product.Name,
				Scenario:            scenario,
				EffortPercent:       scenario.EffortPercent(),
				MonthlyContribution: monthly,
				TotalContributed:    total,
				GrossInterest:       grossInterest,
				NetInterest:         netInterest,
				FinalNetCapital:     netCapital,
				GoalMet:             netCapital >= goal,
			})
		}
	}

	return outcomes, skips
}
