// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"savings-workers/internal/common/validation"
)

var ErrActivityNotFound = errors.New("activity not found")

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON, stamping LastUpdated.
func Save(reg *ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, taskType)
}

// ValidateInput checks job variables against the input schema of taskType.
func (r *ActivityRegistry) ValidateInput(taskType string, doc interface{}) (*validation.ValidationResult, error) {
	activity, err := r.Find(taskType)
	if err != nil {
		return nil, err
	}
	return validation.ValidateDocument(activity.InputSchema, doc)
}

// ValidateOutput checks completed job variables against the output schema.
func (r *ActivityRegistry) ValidateOutput(taskType string, doc interface{}) (*validation.ValidationResult, error) {
	activity, err := r.Find(taskType)
	if err != nil {
		return nil, err
	}
	return validation.ValidateDocument(activity.OutputSchema, doc)
}

// Validate checks identifiers are present and unique, task types follow the
// naming rule and every declared schema compiles.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return errors.New("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return errors.New("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if err := validation.ValidateTaskTypeNaming(activity.TaskType); err != nil {
			return fmt.Errorf("activity %s: %w", activity.ID, err)
		}
		if taskTypes[activity.TaskType] {
			return fmt.Errorf("duplicate task type: %s", activity.TaskType)
		}
		taskTypes[activity.TaskType] = true

		for name, schema := range map[string]map[string]interface{}{"inputSchema": activity.InputSchema, "outputSchema": activity.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("activity %s: invalid %s: %w", activity.ID, name, err)
			}
		}
	}
	return nil
}
