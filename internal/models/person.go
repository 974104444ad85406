// internal/models/person.go
package models

import (
	"fmt"
	"math"
	"strings"
)

// Person is the financial profile of one individual. It is built once from an
// input row and never mutated afterwards.
type Person struct {
	Name                    string  `json:"name" yaml:"name"`
	Age                     int     `json:"age" yaml:"age"`
	AnnualIncome            float64 `json:"annualIncome" yaml:"annual_income"`
	MonthlyRent             float64 `json:"monthlyRent" yaml:"monthly_rent"`
	MonthlyExpenses         float64 `json:"monthlyExpenses" yaml:"monthly_expenses"`
	Goal                    float64 `json:"goal" yaml:"goal"`
	HorizonYears            int     `json:"horizonYears" yaml:"horizon_years"`
	UserMonthlyContribution float64 `json:"userMonthlyContribution,omitempty" yaml:"user_monthly_contribution,omitempty"`
}

// MonthlySavingsCapacity is what is left of the monthly income once rent and
// expenses are paid. It is negative when expenses exceed income.
func (p Person) MonthlySavingsCapacity() float64 {
	return p.AnnualIncome/12 - p.MonthlyRent - p.MonthlyExpenses
}

// Validate checks the field ranges a person must satisfy before reaching the
// suggestion engine.
func (p Person) Validate() error {
	var problems []string

	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Age < 0 {
		problems = append(problems, fmt.Sprintf("age must be >= 0, got %d", p.Age))
	}
	problems = appendNonNegative(problems, "annual income", p.AnnualIncome)
	problems = appendNonNegative(problems, "monthly rent", p.MonthlyRent)
	problems = appendNonNegative(problems, "monthly expenses", p.MonthlyExpenses)
	problems = appendNonNegative(problems, "goal", p.Goal)
	if p.HorizonYears < 1 {
		problems = append(problems, fmt.Sprintf("horizon must be >= 1 year, got %d", p.HorizonYears))
	}
	problems = appendNonNegative(problems, "user monthly contribution", p.UserMonthlyContribution)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPerson, strings.Join(problems, "; "))
	}
	return nil
}

func (p Person) String() string {
	return fmt.Sprintf("%s, %d years old, annual income %.2f, rent %.2f/month, expenses %.2f/month, goal %.2f in %d years, monthly capacity %.2f",
		p.Name, p.Age, p.AnnualIncome, p.MonthlyRent, p.MonthlyExpenses, p.Goal, p.HorizonYears, p.MonthlySavingsCapacity())
}

func appendNonNegative(problems []string, field string, v float64) []string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(problems, fmt.Sprintf("%s must be a finite number", field))
	}
	if v < 0 {
		return append(problems, fmt.Sprintf("%s must be >= 0, got %g", field, v))
	}
	return problems
}
