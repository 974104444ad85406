// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"savings-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Registration describes one job worker to open.
type Registration struct {
	TaskType      string
	Handler       worker.JobHandler
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker polling reg.TaskType.
func StartWorker(client zbc.Client, reg Registration, log logger.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(reg.TaskType).
		Handler(reg.Handler).
		Name(fmt.Sprintf("%s-worker", reg.TaskType))

	if reg.MaxJobsActive > 0 {
		step = step.MaxJobsActive(reg.MaxJobsActive)
	}
	if reg.Timeout > 0 {
		step = step.Timeout(reg.Timeout)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log.WithFields(map[string]interface{}{"taskType": reg.TaskType}),
		taskType: reg.TaskType,
	}

	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": reg.MaxJobsActive,
		"timeout":       reg.Timeout.String(),
	})
	return w
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
