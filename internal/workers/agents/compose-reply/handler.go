// internal/workers/agents/compose-reply/handler.go
package composereply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/models"
)

const (
	TaskType = "compose-reply"
)

var (
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")
)

// Persona system prompts. Each agent keeps a distinct voice; all of them are
// anchored to wholesaling and refuse to stray into legal or lending advice.
var personaPrompts = map[string]string{
	models.AgentLeadFinder: "You are a real-estate lead finding assistant for wholesalers. " +
		"Present distressed-property leads clearly, one per numbered entry, and always " +
		"surface the owner's motivation indicators. When the user asks for more leads, " +
		"acknowledge which criteria carry over.",
	models.AgentDealAnalyzer: "You are a deal analysis assistant for real-estate wholesalers. " +
		"Walk through ARV, repair estimates, the 70% rule max offer and the assignment " +
		"spread. Be direct about deals that don't pencil out.",
	models.AgentNegotiation: "You are a negotiation coach for real-estate wholesalers. " +
		"Suggest opening offers below the max offer ceiling, anticipate seller objections, " +
		"and script empathetic responses for distressed owners. Never pressure tactics.",
	models.AgentClosing: "You are a closing assistant for real-estate wholesalers. " +
		"Explain assignment contracts, earnest money, title work and closing timelines in " +
		"plain language. Remind the user to involve a licensed attorney for contract review.",
}

const defaultPersonaPrompt = "You are a helpful real-estate wholesaling assistant. " +
	"Answer concisely and stay within the user's question."

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		// No client timeout; the job context bounds the call.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrLLMTimeout) || errors.Is(err, ErrLLMSynthesisFailed) {
			retries = 1
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if strings.TrimSpace(input.UserMessage) == "" {
		return nil, fmt.Errorf("%w: empty user message", ErrLLMSynthesisFailed)
	}

	agent := input.Agent
	if _, ok := personaPrompts[agent]; !ok {
		agent = models.AgentLeadFinder
	}

	requestBody := map[string]interface{}{
		"prompt":      h.buildPrompt(agent, input),
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}
	if len(input.Context) > 0 {
		requestBody["context"] = input.Context
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.GenAIBaseURL+"/api/ai/generate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		resp, lastErr = h.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrLLMTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrLLMTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrLLMSynthesisFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrLLMSynthesisFailed, err)
	}

	if strings.TrimSpace(apiResponse.Text) == "" {
		apiResponse.Text = "I don't have enough information to answer that. Could you give me a bit more detail?"
		apiResponse.Confidence = 0.1
	}
	if apiResponse.Confidence < 0.0 || apiResponse.Confidence > 1.0 {
		apiResponse.Confidence = 0.5
	}

	h.logger.Info("reply composed", map[string]interface{}{
		"conversationId": input.ConversationID,
		"agent":          agent,
		"confidence":     apiResponse.Confidence,
	})

	return &Output{
		Reply:      apiResponse.Text,
		Agent:      agent,
		Confidence: apiResponse.Confidence,
	}, nil
}

func (h *Handler) buildPrompt(agent string, input *Input) string {
	var parts []string

	prompt, ok := personaPrompts[agent]
	if !ok {
		prompt = defaultPersonaPrompt
	}
	parts = append(parts, prompt)

	if len(input.History) > 0 {
		parts = append(parts, "\nConversation so far:")
		for _, msg := range input.History {
			parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
		}
	}

	if len(input.Context) > 0 {
		contextJSON, _ := json.MarshalIndent(input.Context, "", "  ")
		parts = append(parts, "\nDeal context:")
		parts = append(parts, string(contextJSON))
	}

	parts = append(parts, fmt.Sprintf("\nUser: %s", input.UserMessage))
	parts = append(parts, "\nAssistant:")

	return strings.Join(parts, "\n")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, ErrLLMTimeout) {
		errorCode = "LLM_TIMEOUT"
	} else if errors.Is(err, ErrLLMSynthesisFailed) {
		errorCode = "LLM_SYNTHESIS_FAILED"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
		"retries":   retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
