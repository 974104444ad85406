package suggestsavingsplans

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savings-workers/internal/common/camunda/jobtest"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/models"
	"savings-workers/pkg/registry"
)

// ==========================
// Test Helpers
// ==========================

func loadRegistry(t *testing.T) *registry.ActivityRegistry {
	t.Helper()
	reg, err := registry.LoadRegistry("../../../../configs/activity-registry.json")
	require.NoError(t, err)
	return reg
}

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Registry: loadRegistry(t),
		Logger:   logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	h.newRunID = func() string { return "run-1" }
	return h
}

// createTestPerson has a monthly savings capacity of 1200.
func createTestPerson() models.Person {
	return models.Person{
		Name:                    "Jean Dupont",
		Age:                     30,
		AnnualIncome:            36000,
		MonthlyRent:             800,
		MonthlyExpenses:         1000,
		Goal:                    50000,
		HorizonYears:            10,
		UserMonthlyContribution: 500,
	}
}

func createTestCatalog() []models.SavingsProduct {
	return []models.SavingsProduct{
		{Name: "Livret A", AnnualRate: 0.03, TaxRate: 0.172, MinHorizonYears: 0},
		{Name: "PER", AnnualRate: 0.05, TaxRate: 0.3, MinHorizonYears: 15},
	}
}

func createValidVariables() map[string]interface{} {
	return map[string]interface{}{
		"person": map[string]interface{}{
			"name":                    "Jean Dupont",
			"age":                     30,
			"annualIncome":            36000,
			"monthlyRent":             800,
			"monthlyExpenses":         1000,
			"goal":                    50000,
			"horizonYears":            10,
			"userMonthlyContribution": 500,
		},
		"products": []interface{}{
			map[string]interface{}{"name": "Livret A", "annualRate": 0.03, "taxRate": 0.172, "minHorizonYears": 0},
			map[string]interface{}{"name": "PER", "annualRate": 0.05, "taxRate": 0.3, "minHorizonYears": 15},
		},
	}
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "defaults with registry",
			opts: HandlerOptions{Registry: &registry.ActivityRegistry{}},
		},
		{
			name:    "registry required for input validation",
			opts:    HandlerOptions{},
			wantErr: "needs the activity registry",
		},
		{
			name:    "zero timeout",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 1}},
			wantErr: "timeout must be positive",
		},
		{
			name: "validation disabled",
			opts: HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewNoOpLogger()
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskType, h.GetTaskType())
			assert.True(t, h.IsEnabled())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 8, Timeout: 2500},
	}}

	cfg := createConfigFromAppConfig(appConfig, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 8, cfg.MaxJobsActive)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.ValidateInput)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(&config.Config{}, nil))
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Person:   createTestPerson(),
		Products: createTestCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", output.RunID)
	assert.InDelta(t, 1200.0, output.MonthlySavingsCapacity, 1e-9)
	// PER needs 15 years: only the Livret A scenarios remain.
	require.Equal(t, 5, output.OutcomeCount)
	assert.Len(t, output.Outcomes, 5)
	assert.Equal(t, 4, output.GoalMetCount)
	assert.False(t, output.Outcomes[1].GoalMet)
	assert.InDelta(t, 41388.68, output.Outcomes[1].FinalNetCapital, 0.01)
}

func TestHandler_Execute_Overrides(t *testing.T) {
	h := createTestHandler(t)
	goal := 1000000.0
	horizon := 20

	output, err := h.Execute(context.Background(), &Input{
		Person:       createTestPerson(),
		Products:     createTestCatalog(),
		Goal:         &goal,
		HorizonYears: &horizon,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, output.OutcomeCount)
	assert.Equal(t, 0, output.GoalMetCount)
	assert.InDelta(t, 500*12*20, output.Outcomes[0].TotalContributed, 1e-6)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{"nil input", nil},
		{"invalid person", &Input{Person: models.Person{Name: "X", HorizonYears: 0}, Products: createTestCatalog()}},
		{"no products", &Input{Person: createTestPerson()}},
		{"invalid product", &Input{Person: createTestPerson(), Products: []models.SavingsProduct{{Name: "Bad", TaxRate: 3}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSuggestionInput))
		})
	}
}

func TestHandler_Execute_ExpiredContext(t *testing.T) {
	h := createTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{Person: createTestPerson(), Products: createTestCatalog()})
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

// ==========================
// Job Handling Tests
// ==========================

func TestHandler_Handle_Completes(t *testing.T) {
	h := createTestHandler(t)
	client := jobtest.NewClient()

	h.Handle(client, jobtest.Job(101, TaskType, createValidVariables()))

	require.Len(t, client.Completed, 1)
	assert.Empty(t, client.Failed)
	assert.Empty(t, client.Thrown)

	vars := client.Completed[0].Variables
	assert.Equal(t, int64(101), client.Completed[0].JobKey)
	assert.Equal(t, "run-1", vars["runId"])
	assert.EqualValues(t, 5, vars["outcomeCount"])
	assert.EqualValues(t, 4, vars["goalMetCount"])
	assert.Len(t, vars["outcomes"], 5)

	result, err := h.registry.ValidateOutput(TaskType, vars)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.GetErrorMessages())
}

func TestHandler_Handle_SchemaViolationThrowsBPMNError(t *testing.T) {
	h := createTestHandler(t)
	client := jobtest.NewClient()

	vars := createValidVariables()
	delete(vars["person"].(map[string]interface{}), "horizonYears")

	h.Handle(client, jobtest.Job(102, TaskType, vars))

	assert.Empty(t, client.Completed)
	assert.Empty(t, client.Failed)
	require.Len(t, client.Thrown, 1)
	assert.Equal(t, "INVALID_SUGGESTION_INPUT", client.Thrown[0].ErrorCode)
	assert.Contains(t, client.Thrown[0].Variables["errorDetails"], "person.horizonYears")
}

func TestHandler_Handle_ModelViolationWithoutSchema(t *testing.T) {
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	client := jobtest.NewClient()

	vars := createValidVariables()
	vars["person"].(map[string]interface{})["age"] = -4

	h.Handle(client, jobtest.Job(103, TaskType, vars))

	require.Len(t, client.Thrown, 1)
	assert.Equal(t, "INVALID_SUGGESTION_INPUT", client.Thrown[0].ErrorCode)
}

func TestHandler_Handle_GatewayDown(t *testing.T) {
	h := createTestHandler(t)
	client := jobtest.NewClient()
	client.Err = stderrors.New("unavailable")

	assert.NotPanics(t, func() {
		h.Handle(client, jobtest.Job(104, TaskType, createValidVariables()))
	})
	assert.Empty(t, client.Completed)
}

func TestHandler_Registration(t *testing.T) {
	h := createTestHandler(t)
	reg := h.Registration()

	assert.Equal(t, TaskType, reg.TaskType)
	assert.Equal(t, 5, reg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, reg.Timeout)
	assert.NotNil(t, reg.Handler)
}
