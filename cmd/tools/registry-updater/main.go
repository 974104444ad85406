// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"savings-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		help(out)
		return errors.New("a command is required")
	}

	switch args[0] {
	case "add":
		return runAdd(args[1:], out)
	case "update":
		return runUpdate(args[1:], out)
	case "validate":
		return runValidate(args[1:], out)
	case "check":
		return runCheck(args[1:], out)
	case "help", "-h", "--help":
		help(out)
		return nil
	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runAdd(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("add", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", defaultRegistryPath, "Path to registry file")
	id := flags.String("id", "", "Activity ID (e.g., rank-savings-outcomes)")
	displayName := flags.String("displayName", "", "Display Name (e.g., Rank Savings Outcomes)")
	description := flags.String("description", "", "Description")
	category := flags.String("category", "savings", "Category")
	taskType := flags.String("taskType", "", "Camunda Task Type, defaults to the ID")
	version := flags.String("version", "1.0.0", "Version")
	status := flags.String("status", "planned", "Implementation Status (planned, in-progress, completed, verified)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *id == "" || *displayName == "" || *description == "" {
		flags.Usage()
		return errors.New("id, displayName and description are required for add")
	}
	if *taskType == "" {
		*taskType = *id
	}

	reg, err := registry.LoadRegistry(*path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	case err != nil:
		return fmt.Errorf("failed to load registry: %w", err)
	}

	for _, existing := range reg.Activities {
		if existing.ID == *id {
			return fmt.Errorf("activity with ID %s already exists", *id)
		}
	}

	reg.Activities = append(reg.Activities, registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		InputSchema:          map[string]interface{}{"type": "object"},
		OutputSchema:         map[string]interface{}{"type": "object"},
		ErrorCodes:           []string{},
		Timeout:              "10s",
		Workflows:            []string{},
		Tags:                 []string{},
	})
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := registry.Save(reg, *path); err != nil {
		return err
	}

	fmt.Fprintf(out, "Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("update", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", defaultRegistryPath, "Path to registry file")
	id := flags.String("id", "", "Activity ID to update")
	field := flags.String("field", "", "Field to update (status, version, etc.)")
	value := flags.String("value", "", "New value for the field")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *id == "" || *field == "" || *value == "" {
		flags.Usage()
		return errors.New("id, field and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", *id)
	}

	if err := setField(activity, *field, *value); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := registry.Save(reg, *path); err != nil {
		return err
	}

	fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func setField(a *registry.Activity, field, value string) error {
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

func runValidate(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", defaultRegistryPath, "Path to registry file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}

	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// runCheck validates a job variables document against an activity schema.
func runCheck(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", defaultRegistryPath, "Path to registry file")
	taskType := flags.String("taskType", "", "Task type whose schema applies")
	input := flags.String("input", "", "JSON file holding the job variables")
	output := flags.Bool("output", false, "Check against the output schema instead of the input one")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *taskType == "" || *input == "" {
		flags.Usage()
		return errors.New("taskType and input are required for check")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", *input, err)
	}

	validate := reg.ValidateInput
	if *output {
		validate = reg.ValidateOutput
	}
	result, err := validate(*taskType, doc)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s does not match the %s schema:\n  %s",
			*input, *taskType, strings.Join(result.GetErrorMessages(), "\n  "))
	}

	fmt.Fprintf(out, "%s matches the %s schema.\n", *input, *taskType)
	return nil
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  check    Validate job variables against an activity schema
  help     Show this help message

Examples:
  registry-updater add -id rank-savings-outcomes -displayName "Rank Savings Outcomes" -description "Ranks projected outcomes"
  registry-updater update -id rank-savings-outcomes -field status -value completed
  registry-updater validate -path configs/activity-registry.json
  registry-updater check -taskType suggest-savings-plans -input job.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
