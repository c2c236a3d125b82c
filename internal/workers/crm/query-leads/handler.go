// internal/workers/crm/query-leads/handler.go
package queryleads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/workers/crm/query-leads/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-leads"
)

type Handler struct {
	config *Config
	db     *sql.DB
	errors *commonerrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		errors: commonerrors.NewErrorHandler(scoped),
		logger: scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	params := map[string]interface{}{}
	for k, v := range input.Parameters {
		params[k] = v
	}
	if input.LeadID != "" {
		params["leadId"] = input.LeadID
	}
	if input.ConversationID != "" {
		params["conversationId"] = input.ConversationID
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.db, input.QueryType, params)
	if err != nil {
		if errors.Is(err, queries.ErrUnknownQueryType) {
			return nil, commonerrors.NewInvalidQueryTypeError(input.QueryType)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewQueryTimeoutError(input.QueryType)
		}
		return nil, commonerrors.NewQueryExecutionFailedError(input.QueryType, err)
	}

	h.logger.Info("query completed", map[string]interface{}{
		"queryType":          input.QueryType,
		"rowCount":           rowCount,
		"queryExecutionTime": execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
