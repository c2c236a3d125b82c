// internal/workers/lead-extraction/extract-property-records/handler.go
package extractpropertyrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/dedupe"
	"dealflow-workers/internal/models"
	"dealflow-workers/internal/parse"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-property-records"
)

var (
	ErrDedupeTrackerFailed = errors.New("DEDUPE_TRACKER_FAILED")
)

type Handler struct {
	config  *Config
	tracker dedupe.Tracker
	logger  logger.Logger
}

func NewHandler(config *Config, tracker dedupe.Tracker, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		tracker: tracker,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrDedupeTrackerFailed) {
			errorCode = "DEDUPE_TRACKER_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute runs the full pipeline: segment the message into property blocks,
// split each block into sections, normalize to records, then drop records
// whose lead key was already shown in this session.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	blocks := parse.Segment(input.MessageText)
	if len(blocks) == 0 {
		// No property indicators at all: the message is plain chat.
		return &Output{
			Properties: []models.PropertyRecord{},
			LeadKeys:   []string{},
			PlainText:  true,
		}, nil
	}

	properties := make([]models.PropertyRecord, 0, len(blocks))
	leadKeys := make([]string, 0, len(blocks))
	duplicates := 0

	for _, block := range blocks {
		rec := parse.Normalize(parse.SplitSections(block.Raw), block.Raw)
		key := dedupe.LeadKey(rec, h.config.KeyPolicy, input.ConversationID)

		shown, err := h.tracker.HasShown(ctx, input.SessionID, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDedupeTrackerFailed, err)
		}
		if shown {
			duplicates++
			metrics.LeadsDeduplicated.Inc()
			continue
		}

		properties = append(properties, rec)
		leadKeys = append(leadKeys, key)
		metrics.PropertiesExtracted.WithLabelValues(rec.LeadType).Inc()
	}

	if len(leadKeys) > 0 {
		if err := h.tracker.MarkShown(ctx, input.SessionID, leadKeys...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDedupeTrackerFailed, err)
		}
	}

	h.logger.Info("extraction completed", map[string]interface{}{
		"blocks":     len(blocks),
		"properties": len(properties),
		"duplicates": duplicates,
	})

	return &Output{
		Properties: properties,
		LeadKeys:   leadKeys,
		Count:      len(properties),
		Duplicates: duplicates,
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
