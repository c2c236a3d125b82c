// internal/workers/crm/save-lead/handler.go
package savelead

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/common/validation"
	"dealflow-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "save-lead"
)

// LeadIndexer mirrors database.ElasticsearchClient.IndexDocument; a nil
// indexer disables search indexing.
type LeadIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Handler struct {
	config  *Config
	db      *sql.DB
	indexer LeadIndexer
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, db *sql.DB, indexer LeadIndexer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		db:      db,
		indexer: indexer,
		errors:  commonerrors.NewErrorHandler(scoped),
		logger:  scoped,
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

	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &variables); err != nil {
		h.errors.HandleJobError(ctx, client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		h.errors.HandleJobError(ctx, client, job, commonerrors.NewLeadValidationFailedError(
			fmt.Sprintf("input validation failed: %v", result.GetErrorMessages())))
		return
	}

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
	if err := validateProperty(&input.Property); err != nil {
		return nil, err
	}

	// Duplicate guard on address + owner within the conversation.
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM leads
			WHERE conversation_id = $1 AND address = $2 AND owner_name = $3
		)`, input.ConversationID, input.Property.Address, input.Property.OwnerName).Scan(&exists)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check failed: %w", err))
	}
	if exists {
		return nil, commonerrors.NewDuplicateLeadError(
			fmt.Sprintf("%s in conversation %s", input.Property.Address, input.ConversationID))
	}

	leadID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	propertyJSON, err := json.Marshal(input.Property)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal property: %w", err))
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, conversation_id, address, city, state, zip_code,
			owner_name, lead_type, motivation_score, property_data,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		leadID,
		input.ConversationID,
		input.Property.Address,
		input.Property.City,
		input.Property.State,
		input.Property.ZipCode,
		input.Property.OwnerName,
		input.Property.LeadType,
		input.Property.MotivationScore,
		propertyJSON,
		models.LeadStatusNew,
		createdAt,
	)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("insert failed: %w", err))
	}

	// Search indexing is best-effort; the lead is already durable in Postgres.
	if h.indexer != nil && h.config.LeadIndex != "" {
		doc := map[string]interface{}{
			"leadId":          leadID,
			"conversationId":  input.ConversationID,
			"address":         input.Property.Address,
			"city":            input.Property.City,
			"state":           input.Property.State,
			"zipCode":         input.Property.ZipCode,
			"ownerName":       input.Property.OwnerName,
			"leadType":        input.Property.LeadType,
			"motivationScore": input.Property.MotivationScore,
			"status":          models.LeadStatusNew,
			"createdAt":       createdAt,
		}
		if err := h.indexer.IndexDocument(ctx, h.config.LeadIndex, leadID, doc); err != nil {
			h.logger.Warn("lead index write failed", map[string]interface{}{
				"leadId": leadID,
				"index":  h.config.LeadIndex,
				"error":  err,
			})
		}
	}

	h.logger.Info("lead saved", map[string]interface{}{
		"leadId":          leadID,
		"conversationId":  input.ConversationID,
		"address":         input.Property.Address,
		"leadType":        input.Property.LeadType,
		"motivationScore": input.Property.MotivationScore,
	})

	return &Output{
		LeadID:     leadID,
		LeadStatus: models.LeadStatusNew,
		CreatedAt:  createdAt,
	}, nil
}

// validateProperty enforces the minimum persistable record: address, city and
// state must all be present.
func validateProperty(p *models.PropertyRecord) error {
	var missing []string
	if p.Address == "" {
		missing = append(missing, "address")
	}
	if p.City == "" {
		missing = append(missing, "city")
	}
	if p.State == "" {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return commonerrors.NewLeadValidationFailedError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
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
