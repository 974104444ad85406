package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"person"},
		"properties": map[string]interface{}{
			"person": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name", "horizonYears"},
				"properties": map[string]interface{}{
					"name":         map[string]interface{}{"type": "string", "minLength": 1},
					"horizonYears": map[string]interface{}{"type": "integer", "minimum": 1},
				},
			},
		},
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name          string
		doc           map[string]interface{}
		expectValid   bool
		expectedField string
	}{
		{
			name:        "valid",
			doc:         map[string]interface{}{"person": map[string]interface{}{"name": "Jean", "horizonYears": 10}},
			expectValid: true,
		},
		{
			name:          "missing root property",
			doc:           map[string]interface{}{},
			expectedField: "person",
		},
		{
			name:          "missing nested property",
			doc:           map[string]interface{}{"person": map[string]interface{}{"name": "Jean"}},
			expectedField: "person.horizonYears",
		},
		{
			name:          "below minimum",
			doc:           map[string]interface{}{"person": map[string]interface{}{"name": "Jean", "horizonYears": 0}},
			expectedField: "person.horizonYears",
		},
		{
			name:          "wrong type",
			doc:           map[string]interface{}{"person": map[string]interface{}{"name": 42, "horizonYears": 3}},
			expectedField: "person.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateDocument(personSchema(), tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.expectValid, result.Valid)
			if tt.expectValid {
				assert.Empty(t, result.Errors)
				return
			}
			assert.True(t, result.HasErrors(tt.expectedField), "errors: %v", result.GetErrorMessages())
			assert.NotEmpty(t, result.GetErrorsForField("person"))
		})
	}
}

func TestValidateDocument_EmptySchemaAcceptsAnything(t *testing.T) {
	result, err := ValidateDocument(nil, map[string]interface{}{"anything": true})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateDocument_RequiredErrorCode(t *testing.T) {
	result, err := ValidateDocument(personSchema(), map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "REQUIRED", result.Errors[0].Code)
	assert.Contains(t, result.GetErrorMessages()[0], "person: ")
}

func TestValidateTaskTypeNaming(t *testing.T) {
	assert.NoError(t, ValidateTaskTypeNaming("suggest-savings-plans"))
	assert.NoError(t, ValidateTaskTypeNaming("load-savings-catalog"))
	assert.Error(t, ValidateTaskTypeNaming("suggest"))
	assert.Error(t, ValidateTaskTypeNaming("Suggest-Plans"))
	assert.Error(t, ValidateTaskTypeNaming("crm.user.create"))
}
