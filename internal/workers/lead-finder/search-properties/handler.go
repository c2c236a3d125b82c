// internal/workers/lead-finder/search-properties/handler.go
package searchproperties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/common/propertydata"
	"dealflow-workers/internal/dedupe"
	"dealflow-workers/internal/models"
	"dealflow-workers/internal/session"
)

const (
	TaskType = "search-properties"
)

var (
	ErrPropertyAPIFailed   = errors.New("PROPERTY_API_FAILED")
	ErrPropertyAPITimeout  = errors.New("PROPERTY_API_TIMEOUT")
	ErrDedupeTrackerFailed = errors.New("DEDUPE_TRACKER_FAILED")
)

// PropertySearcher is the slice of the property-data client this worker needs.
type PropertySearcher interface {
	Search(ctx context.Context, criteria propertydata.SearchCriteria) ([]propertydata.SearchResult, error)
}

type Handler struct {
	config   *Config
	searcher PropertySearcher
	tracker  dedupe.Tracker
	sessions session.Store
	logger   logger.Logger
}

func NewHandler(config *Config, searcher PropertySearcher, tracker dedupe.Tracker, sessions session.Store, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		searcher: searcher,
		tracker:  tracker,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, h.mapErrorToCode(err), err.Error(), h.getRetryCount(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.New("sessionId is required")
	}

	excluded, err := h.tracker.AllShown(ctx, providerScope(input.SessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDedupeTrackerFailed, err)
	}

	criteria := propertydata.SearchCriteria{
		City:         input.City,
		State:        input.State,
		ZipCodes:     input.ZipCodes,
		MinEquity:    input.MinEquity,
		MaxPrice:     input.MaxPrice,
		LeadTypes:    input.LeadTypes,
		AbsenteeOnly: input.AbsenteeOnly,
		Limit:        input.Limit,
	}

	// A follow-up like "find 5 more" arrives without criteria; continue from
	// the last search this session ran.
	if criteriaEmpty(criteria) {
		if prev := h.loadLastCriteria(ctx, input.SessionID); prev != nil {
			criteria = *prev
		}
	}

	if criteria.Limit <= 0 {
		criteria.Limit = h.config.DefaultLimit
	}
	criteria.ExcludedIDs = excluded
	criteria.SessionState = input.SessionState
	criteria.ConversationID = input.ConversationID

	results, err := h.searcher.Search(ctx, criteria)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrPropertyAPITimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrPropertyAPIFailed, err)
	}

	output := &Output{
		Properties:   []models.PropertyRecord{},
		PropertyIDs:  []string{},
		SessionState: input.SessionState,
	}

	leadKeys := make([]string, 0, len(results))
	for _, res := range results {
		output.Properties = append(output.Properties, res.Property)
		output.PropertyIDs = append(output.PropertyIDs, res.PropertyID)
		leadKeys = append(leadKeys, dedupe.LeadKey(res.Property, h.config.KeyPolicy, input.ConversationID))
	}
	output.Count = len(output.Properties)
	output.Message = buildAssistantMessage(output.Properties, criteria.City)

	if len(output.PropertyIDs) > 0 {
		// Provider IDs feed the upstream API's own exclusion; lead keys go
		// into the session set the extraction worker checks against.
		if err := h.tracker.MarkShown(ctx, providerScope(input.SessionID), output.PropertyIDs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDedupeTrackerFailed, err)
		}
		if err := h.tracker.MarkShown(ctx, input.SessionID, leadKeys...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDedupeTrackerFailed, err)
		}
	}

	h.saveLastCriteria(ctx, input.SessionID, criteria)

	h.logger.Info("property search completed", map[string]interface{}{
		"sessionId": input.SessionID,
		"count":     output.Count,
		"excluded":  len(excluded),
	})

	return output, nil
}

// providerScope keys the tracker set of upstream property IDs. Those IDs only
// mean something to the data provider, so they live apart from the lead keys.
func providerScope(sessionID string) string {
	return sessionID + ":provider"
}

func criteriaEmpty(c propertydata.SearchCriteria) bool {
	return c.City == "" && c.State == "" && len(c.ZipCodes) == 0 &&
		c.MinEquity == 0 && c.MaxPrice == 0 && len(c.LeadTypes) == 0 && !c.AbsenteeOnly
}

// loadLastCriteria returns the previous search criteria for the session, or
// nil when there is none. Session-store failures degrade to a fresh search.
func (h *Handler) loadLastCriteria(ctx context.Context, sessionID string) *propertydata.SearchCriteria {
	if h.sessions == nil {
		return nil
	}

	sess, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		h.logger.Warn("session load failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
		return nil
	}
	if sess == nil || len(sess.LastSearchCriteria) == 0 {
		return nil
	}

	data, err := json.Marshal(sess.LastSearchCriteria)
	if err != nil {
		return nil
	}
	var criteria propertydata.SearchCriteria
	if err := json.Unmarshal(data, &criteria); err != nil {
		return nil
	}
	return &criteria
}

func (h *Handler) saveLastCriteria(ctx context.Context, sessionID string, criteria propertydata.SearchCriteria) {
	if h.sessions == nil {
		return
	}

	// Exclusions are rebuilt from the tracker on every search, and the
	// state/conversation fields belong to the job, not the session.
	criteria.ExcludedIDs = nil
	criteria.SessionState = ""
	criteria.ConversationID = ""

	data, err := json.Marshal(criteria)
	if err != nil {
		return
	}
	var criteriaMap map[string]interface{}
	if err := json.Unmarshal(data, &criteriaMap); err != nil {
		return
	}

	if err := h.sessions.Save(ctx, &models.Session{
		ID:                 sessionID,
		LastSearchCriteria: criteriaMap,
	}); err != nil {
		h.logger.Warn("session save failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
	}
}

// buildAssistantMessage renders the API payload as a numbered chat listing.
func buildAssistantMessage(properties []models.PropertyRecord, city string) string {
	if len(properties) == 0 {
		area := city
		if area == "" {
			area = "that area"
		}
		return fmt.Sprintf("I couldn't find any new properties in %s matching your criteria. "+
			"Try widening the search area or lowering the minimum equity.", area)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d propert", len(properties))
	if len(properties) == 1 {
		sb.WriteString("y")
	} else {
		sb.WriteString("ies")
	}
	sb.WriteString(" matching your criteria:\n")

	for i, p := range properties {
		fmt.Fprintf(&sb, "\n%d. **PROPERTY DETAILS:**\n", i+1)
		fmt.Fprintf(&sb, "Address: %s\n", p.Address)
		if p.City != "" {
			fmt.Fprintf(&sb, "City: %s, %s %s\n", p.City, p.State, p.ZipCode)
		}
		if p.ARV != "" && p.ARV != "0" {
			fmt.Fprintf(&sb, "ARV: $%s\n", p.ARV)
		}
		if p.EquityPercentage > 0 {
			fmt.Fprintf(&sb, "Equity: %d%%\n", p.EquityPercentage)
		}
		if p.MotivationScore > 0 {
			fmt.Fprintf(&sb, "Motivation Score: %d\n", p.MotivationScore)
		}
		if p.OwnerName != "" {
			fmt.Fprintf(&sb, "Owner: %s\n", p.OwnerName)
		}
		if p.LeadType != "" {
			fmt.Fprintf(&sb, "Lead Type: %s\n", p.LeadType)
		}
	}

	sb.WriteString("\nSay \"find 5 more\" to see fresh results, or ask me to analyze any of these deals.")
	return sb.String()
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

func (h *Handler) mapErrorToCode(err error) string {
	switch {
	case errors.Is(err, ErrPropertyAPITimeout):
		return "PROPERTY_API_TIMEOUT"
	case errors.Is(err, ErrPropertyAPIFailed):
		return "PROPERTY_API_FAILED"
	case errors.Is(err, ErrDedupeTrackerFailed):
		return "DEDUPE_TRACKER_FAILED"
	}
	return "UNKNOWN_ERROR"
}

func (h *Handler) getRetryCount(err error) int32 {
	switch {
	case errors.Is(err, ErrPropertyAPIFailed), errors.Is(err, ErrDedupeTrackerFailed):
		return 3
	case errors.Is(err, ErrPropertyAPITimeout):
		return 2
	}
	return 0
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
