package ranksavingsoutcomes

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"savings-workers/internal/common/camunda"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/common/observability"
	"savings-workers/internal/savings"
)

const TaskType = "rank-savings-outcomes"

type Handler struct {
	config       *Config
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Observability *observability.Observability
	CustomConfig  *Config
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
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
	})

	var input Input
	err := job.GetVariablesAs(&input)
	if err != nil {
		err = errors.NewRankingFailedError(fmt.Sprintf("parse variables: %v", err))
	} else {
		var output *Output
		if output, err = h.Execute(ctx, &input); err == nil {
			err = h.completeJob(ctx, client, job, output)
		}
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

// Execute ranks the outcomes by final net capital. Job values for
// goalMetOnly and maxItems win over the configured defaults.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewRankingFailedError("input cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError(TaskType, err)
	}

	goalMetOnly := h.config.GoalMetOnly
	if input.GoalMetOnly != nil {
		goalMetOnly = *input.GoalMetOnly
	}
	limit := h.config.MaxItems
	if input.MaxItems != nil {
		limit = *input.MaxItems
	}
	if limit < 0 {
		return nil, errors.NewRankingFailedError(fmt.Sprintf("maxItems cannot be negative, got %d", limit))
	}

	for i, o := range input.Outcomes {
		if o.ProductName == "" {
			return nil, errors.NewRankingFailedError(fmt.Sprintf("outcomes[%d]: productName is required", i))
		}
		if math.IsNaN(o.FinalNetCapital) || math.IsInf(o.FinalNetCapital, 0) {
			return nil, errors.NewRankingFailedError(fmt.Sprintf("outcomes[%d]: finalNetCapital must be finite", i))
		}
	}

	ranked := savings.Rank(input.Outcomes, goalMetOnly, limit)

	h.logger.Debug("Savings outcomes ranked", map[string]interface{}{
		"received":    len(input.Outcomes),
		"ranked":      len(ranked),
		"goalMetOnly": goalMetOnly,
		"maxItems":    limit,
	})
	return &Output{RankedOutcomes: ranked, RankedCount: len(ranked)}, nil
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

	h.logger.Info("Ranking job completed", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"rankedCount": output.RankedCount,
	})
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
