// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"dealflow-workers/internal/common/observability"
)

// JobHandler is the signature every task handler exposes. Handlers complete
// or fail the job themselves through the JobClient.
type JobHandler func(client worker.JobClient, job entities.Job)

// Worker wraps an open Zeebe job worker for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	obs *observability.Observability,
	logger *zap.Logger,
) *Worker {
	instrumented := handler
	if obs != nil {
		instrumented = func(jobClient worker.JobClient, job entities.Job) {
			start := time.Now()
			handler(jobClient, job)
			obs.RecordJobDuration(context.Background(), time.Since(start), taskType)
			obs.RecordJobProcessed(context.Background(), taskType)
		}
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(instrumented)).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", maxJobsActive),
		zap.Duration("timeout", timeout),
	)

	return &Worker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// Close drains in-flight jobs and stops polling.
func (w *Worker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
