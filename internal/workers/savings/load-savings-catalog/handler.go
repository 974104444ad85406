package loadsavingscatalog

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"savings-workers/internal/catalog"
	"savings-workers/internal/common/camunda"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/common/observability"
)

const TaskType = "load-savings-catalog"

// invalidator is implemented by sources that keep a cached copy.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	config       *Config
	source       catalog.Source
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Source        catalog.Source
	Observability *observability.Observability
	CustomConfig  *Config
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("%s: catalog source is required", TaskType)
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
		source:       opts.Source,
		logger:       log,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, map[string]string{
		"jobKey": fmt.Sprint(job.GetKey()),
		"source": h.source.Name(),
	})

	var input Input
	var output *Output
	err := job.GetVariablesAs(&input)
	if err != nil {
		err = errors.NewBusinessRuleError("Invalid catalog request", fmt.Sprintf("parse variables: %v", err))
	} else if output, err = h.Execute(ctx, &input); err == nil {
		err = h.completeJob(ctx, client, job, output)
	}
	observability.EndSpan(span, err)

	status := "completed"
	if err != nil {
		status = "failed"
		bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), status)
}

// Execute reads the catalog from the configured source.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		input = &Input{}
	}

	if input.Refresh {
		if inv, ok := h.source.(invalidator); ok {
			if err := inv.Invalidate(ctx); err != nil {
				h.logger.Warn("Catalog cache invalidation failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	products, err := catalog.Load(ctx, h.source)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Savings catalog loaded", map[string]interface{}{
		"source":       h.source.Name(),
		"productCount": len(products),
		"refresh":      input.Refresh,
	})
	return &Output{
		Products:     products,
		ProductCount: len(products),
		Source:       h.source.Name(),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return nil
	}
	return nil
}

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
