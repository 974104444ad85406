// Package report renders suggestion results as plain text tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"savings-workers/internal/models"
)

const (
	// NoSuggestion is printed when no product is eligible for a person.
	NoSuggestion = "no savings suggestion available"
	// NoGoalMet is printed when outcomes exist but the listing filtered them all out.
	NoGoalMet = "no savings plan reaches the goal"
)

const ruleWidth = 100

// Amount formats a monetary value rounded half away from zero to cents.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Section is one person and the outcomes to list for them, already ranked.
// Generated is the number of outcomes the engine produced before ranking.
type Section struct {
	Person    models.Person
	Outcomes  []models.Outcome
	Generated int
}

// WriteSummary prints the import counts line.
func WriteSummary(w io.Writer, persons, products int) error {
	_, err := fmt.Fprintf(w, "Loaded %d persons and %d savings products.\n", persons, products)
	return err
}

// WriteSection prints the profile header of s.Person followed by the outcome
// table. An empty listing prints NoSuggestion when the engine produced nothing
// and NoGoalMet otherwise.
func WriteSection(w io.Writer, s Section) error {
	p := s.Person
	var b strings.Builder

	b.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(&b, "Savings suggestions for %s\n", p.Name)
	fmt.Fprintf(&b, "Age: %d\n", p.Age)
	fmt.Fprintf(&b, "Annual income: %s\n", Amount(p.AnnualIncome))
	fmt.Fprintf(&b, "Monthly savings capacity: %s\n", Amount(p.MonthlySavingsCapacity()))
	fmt.Fprintf(&b, "Goal: %s\n", Amount(p.Goal))
	fmt.Fprintf(&b, "Horizon: %d years\n", p.HorizonYears)
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(s.Outcomes) == 0 {
		line := NoSuggestion
		if s.Generated > 0 {
			line = NoGoalMet
		}
		_, err := fmt.Fprintln(w, line)
		return err
	}
	return WriteTable(w, s.Outcomes)
}

// WriteTable prints outcomes in the given order, one per line.
func WriteTable(w io.Writer, outcomes []models.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Product\tEffort\tMonthly\tFinal capital\tGross interest\tNet interest\tTotal paid in\t")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			o.ProductName,
			o.Scenario.Label(),
			Amount(o.MonthlyContribution),
			Amount(o.FinalNetCapital),
			Amount(o.GrossInterest),
			Amount(o.NetInterest),
			Amount(o.TotalContributed),
		)
	}
	return tw.Flush()
}
