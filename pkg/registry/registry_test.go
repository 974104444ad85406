package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryFile = "../../configs/activity-registry.json"

func loadProjectRegistry(t *testing.T) *ActivityRegistry {
	t.Helper()
	reg, err := LoadRegistry(registryFile)
	require.NoError(t, err)
	return reg
}

func TestProjectRegistryIsValid(t *testing.T) {
	reg := loadProjectRegistry(t)

	require.NoError(t, reg.Validate())
	for _, taskType := range []string{"load-savings-catalog", "suggest-savings-plans", "rank-savings-outcomes"} {
		activity, err := reg.Find(taskType)
		require.NoError(t, err, taskType)
		assert.Equal(t, "savings", activity.Category)
		assert.NotEmpty(t, activity.ErrorCodes)
	}
}

func TestFind_Unknown(t *testing.T) {
	_, err := loadProjectRegistry(t).Find("send-email")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func validSuggestionInput() map[string]interface{} {
	return map[string]interface{}{
		"person": map[string]interface{}{
			"name": "Alice", "age": 30, "annualIncome": 48000.0, "monthlyRent": 800.0,
			"monthlyExpenses": 600.0, "goal": 50000.0, "horizonYears": 10,
		},
		"products": []interface{}{
			map[string]interface{}{"name": "Livret A", "annualRate": 0.03, "taxRate": 0.0, "minHorizonYears": 0, "maxTotalContribution": 22950.0},
			map[string]interface{}{"name": "PEA", "annualRate": 0.06, "taxRate": 0.172, "minHorizonYears": 5, "maxTotalContribution": nil},
		},
	}
}

func TestValidateInput_SuggestSavingsPlans(t *testing.T) {
	reg := loadProjectRegistry(t)

	result, err := reg.ValidateInput("suggest-savings-plans", validSuggestionInput())
	require.NoError(t, err)
	assert.True(t, result.Valid, result.GetErrorMessages())

	t.Run("missing horizon", func(t *testing.T) {
		doc := validSuggestionInput()
		delete(doc["person"].(map[string]interface{}), "horizonYears")

		result, err := reg.ValidateInput("suggest-savings-plans", doc)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.True(t, result.HasErrors("person.horizonYears"))
	})

	t.Run("tax rate above one", func(t *testing.T) {
		doc := validSuggestionInput()
		doc["products"].([]interface{})[1].(map[string]interface{})["taxRate"] = 1.5

		result, err := reg.ValidateInput("suggest-savings-plans", doc)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.GetErrorsForField("products"))
	})

	t.Run("empty catalog", func(t *testing.T) {
		doc := validSuggestionInput()
		doc["products"] = []interface{}{}

		result, err := reg.ValidateInput("suggest-savings-plans", doc)
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})
}

func TestValidateOutput_RankSavingsOutcomes(t *testing.T) {
	reg := loadProjectRegistry(t)

	result, err := reg.ValidateOutput("rank-savings-outcomes", map[string]interface{}{
		"rankedOutcomes": []interface{}{},
		"rankedCount":    0,
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = reg.ValidateOutput("rank-savings-outcomes", map[string]interface{}{"rankedCount": -1})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *ActivityRegistry {
		return &ActivityRegistry{Activities: []Activity{
			{ID: "rank-savings-outcomes", DisplayName: "Rank", Category: "savings", TaskType: "rank-savings-outcomes"},
		}}
	}

	tests := []struct {
		name   string
		mutate func(r *ActivityRegistry)
	}{
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }},
		{"missing id", func(r *ActivityRegistry) { r.Activities[0].ID = "" }},
		{"missing display name", func(r *ActivityRegistry) { r.Activities[0].DisplayName = "" }},
		{"missing category", func(r *ActivityRegistry) { r.Activities[0].Category = "" }},
		{"bad task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "RankOutcomes" }},
		{"duplicate id", func(r *ActivityRegistry) { r.Activities = append(r.Activities, r.Activities[0]) }},
		{"duplicate task type", func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.ID = "rank-again"
			r.Activities = append(r.Activities, dup)
		}},
		{"broken schema", func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 42}
		}},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := base()
			tt.mutate(reg)
			assert.Error(t, reg.Validate())
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	reg := loadProjectRegistry(t)
	path := filepath.Join(t.TempDir(), "nested", "registry.json")

	require.NoError(t, Save(reg, path))

	reloaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Activities, reloaded.Activities)
	assert.NotEmpty(t, reloaded.LastUpdated)
}
