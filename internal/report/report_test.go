package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savings-workers/internal/models"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1200, "1200.00"},
		{2.675, "2.68"},
		{-5.455, "-5.46"},
		{165554.7123, "165554.71"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Amount(tt.in))
	}
}

func alice() models.Person {
	return models.Person{
		Name: "Alice", Age: 30, AnnualIncome: 48000, MonthlyRent: 800, MonthlyExpenses: 600,
		Goal: 50000, HorizonYears: 10,
	}
}

func TestWriteSection_WithOutcomes(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSection(&buf, Section{
		Person: alice(),
		Outcomes: []models.Outcome{
			{
				ProductName:         "PEA",
				Scenario:            models.Scenario{Kind: models.ScenarioCapacityShare, Percent: 100},
				MonthlyContribution: 2600,
				TotalContributed:    312000,
				GrossInterest:       40000.125,
				NetInterest:         33120.1035,
				FinalNetCapital:     345120.1035,
				GoalMet:             true,
			},
			{
				ProductName:         "Livret A",
				Scenario:            models.Scenario{Kind: models.ScenarioUserChosen},
				MonthlyContribution: 500,
				TotalContributed:    60000,
				GrossInterest:       10000,
				NetInterest:         10000,
				FinalNetCapital:     70000,
				GoalMet:             true,
			},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Savings suggestions for Alice")
	assert.Contains(t, out, "Monthly savings capacity: 2600.00")
	assert.Contains(t, out, "Horizon: 10 years")
	assert.NotContains(t, out, NoSuggestion)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	table := lines[len(lines)-3:]
	assert.Contains(t, table[0], "Final capital")
	assert.Contains(t, table[1], "PEA")
	assert.Contains(t, table[1], "100%")
	assert.Contains(t, table[1], "345120.10")
	assert.Contains(t, table[1], "40000.13")
	assert.Contains(t, table[2], "Livret A")
	assert.Contains(t, table[2], "user")
	assert.Equal(t, len(table[1]), len(table[2]), "columns are aligned")
}

func TestWriteSection_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSection(&buf, Section{Person: alice()}))

	assert.True(t, strings.HasSuffix(buf.String(), NoSuggestion+"\n"))
	assert.NotContains(t, buf.String(), "Final capital")
}

func TestWriteSection_NothingReachesGoal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSection(&buf, Section{Person: alice(), Generated: 10}))

	assert.True(t, strings.HasSuffix(buf.String(), NoGoalMet+"\n"))
	assert.NotContains(t, buf.String(), NoSuggestion)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, 3, 5))
	assert.Equal(t, "Loaded 3 persons and 5 savings products.\n", buf.String())
}
