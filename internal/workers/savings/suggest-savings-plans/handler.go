package suggestsavingsplans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"savings-workers/internal/common/camunda"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/common/observability"
	"savings-workers/internal/savings"
	"savings-workers/pkg/registry"
)

const TaskType = "suggest-savings-plans"

type Handler struct {
	config       *Config
	logger       logger.Logger
	registry     *registry.ActivityRegistry
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	newRunID     func() string
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Registry      *registry.ActivityRegistry
	Observability *observability.Observability
	CustomConfig  *Config
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if workerConfig.ValidateInput && opts.Registry == nil {
		return nil, fmt.Errorf("%s: input validation needs the activity registry", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	obs := opts.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}

	return &Handler{
		config:       workerConfig,
		logger:       log,
		registry:     opts.Registry,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		newRunID:     uuid.NewString,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, map[string]string{
		"jobKey":             fmt.Sprint(job.GetKey()),
		"processInstanceKey": fmt.Sprint(job.GetProcessInstanceKey()),
	})

	h.logger.Info("Processing savings suggestion", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		if output, err = h.Execute(ctx, input); err == nil {
			err = h.completeJob(ctx, client, job, output)
		}
	}
	observability.EndSpan(span, err)

	status := "completed"
	if err != nil {
		status = "failed"
		h.failJob(ctx, client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), status)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	if h.config.ValidateInput {
		variables, err := job.GetVariablesAsMap()
		if err != nil {
			return nil, errors.NewInvalidSuggestionInputError(fmt.Sprintf("parse variables: %v", err))
		}
		result, err := h.registry.ValidateInput(TaskType, variables)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, errors.NewInvalidSuggestionInputError(strings.Join(result.GetErrorMessages(), "; ")).
				WithMetadata("validationErrors", result.GetErrorMessages())
		}
	}

	var input Input
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, errors.NewInvalidSuggestionInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return &input, nil
}

// Execute runs the suggestion engine on a validated input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidSuggestionInputError("input cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError(TaskType, err)
	}

	person := input.Person
	if input.Goal != nil {
		person.Goal = *input.Goal
	}
	if input.HorizonYears != nil {
		person.HorizonYears = *input.HorizonYears
	}

	if err := person.Validate(); err != nil {
		return nil, errors.NewInvalidSuggestionInputError(err.Error())
	}
	if len(input.Products) == 0 {
		return nil, errors.NewInvalidSuggestionInputError("products: at least one savings product is required")
	}
	for i, p := range input.Products {
		if err := p.Validate(); err != nil {
			return nil, errors.NewInvalidSuggestionInputError(fmt.Sprintf("products[%d]: %v", i, err))
		}
	}

	outcomes, skips := savings.SuggestWithSkips(person, input.Products, person.Goal, person.HorizonYears)
	metrics.SavingsOutcomesGenerated.Add(float64(len(outcomes)))
	metrics.RecordSkips(skips.HorizonTooShort, skips.OverCap)

	output := &Output{
		RunID:                  h.newRunID(),
		MonthlySavingsCapacity: person.MonthlySavingsCapacity(),
		Outcomes:               outcomes,
		OutcomeCount:           len(outcomes),
		GoalMetCount:           len(savings.GoalMet(outcomes)),
	}

	h.logger.Info("Savings outcomes projected", map[string]interface{}{
		"runId":                  output.RunID,
		"person":                 person.Name,
		"outcomeCount":           output.OutcomeCount,
		"goalMetCount":           output.GoalMetCount,
		"skippedProducts":        skips.HorizonTooShort,
		"skippedOverCap":         skips.OverCap,
		"monthlySavingsCapacity": output.MonthlySavingsCapacity,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}

	if _, err := request.Send(ctx); err != nil {
		// The job is already computed; Zeebe will hand it out again on timeout.
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return nil
	}

	h.logger.Info("Savings suggestion job completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"runId":  output.RunID,
	})
	return nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

// Registration describes the job worker for the worker manager.
func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{
		TaskType:      TaskType,
		Handler:       h.Handle,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
