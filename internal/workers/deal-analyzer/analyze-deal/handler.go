// internal/workers/deal-analyzer/analyze-deal/handler.go
package analyzedeal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/common/propertydata"
	"dealflow-workers/internal/models"
)

const (
	TaskType = "analyze-deal"
)

var (
	ErrDealAnalysisFailed   = errors.New("DEAL_ANALYSIS_FAILED")
	ErrPropertyLookupFailed = errors.New("PROPERTY_API_FAILED")
)

// PropertyFetcher resolves a provider listing by ID; a nil fetcher disables
// lookups and the job must carry the full record.
type PropertyFetcher interface {
	GetProperty(ctx context.Context, propertyID string) (*propertydata.SearchResult, error)
}

type Handler struct {
	config  *Config
	fetcher PropertyFetcher
	logger  logger.Logger
}

func NewHandler(config *Config, fetcher PropertyFetcher, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		fetcher: fetcher,
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
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "DEAL_ANALYSIS_FAILED"
		if errors.Is(err, ErrPropertyLookupFailed) {
			errorCode = "PROPERTY_API_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	property := input.Property

	// A record with no ARV can still be analyzed when the job references a
	// provider listing.
	if parseAmount(property.ARV) <= 0 && input.PropertyID != "" && h.fetcher != nil {
		res, err := h.fetcher.GetProperty(ctx, input.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup %s: %v", ErrPropertyLookupFailed, input.PropertyID, err)
		}
		property = res.Property
	}

	arv := parseAmount(property.ARV)
	if arv <= 0 {
		return nil, fmt.Errorf("%w: property has no ARV to analyze", ErrDealAnalysisFailed)
	}

	maxOffer := int64(float64(arv)*h.config.MaxOfferRatio) - input.RepairCost
	if maxOffer < 0 {
		maxOffer = 0
	}

	equityAmount := arv * int64(property.EquityPercentage) / 100

	var spread int64
	if input.AskingPrice > 0 {
		spread = maxOffer - input.AskingPrice
	}

	property.MaxOffer = strconv.FormatInt(maxOffer, 10)

	output := &Output{
		Property:     property,
		ARV:          strconv.FormatInt(arv, 10),
		MaxOffer:     property.MaxOffer,
		RepairCost:   input.RepairCost,
		EquityAmount: equityAmount,
		Spread:       spread,
		Message:      buildAnalysisMessage(&property, arv, maxOffer, equityAmount, spread, input),
	}

	h.logger.Info("deal analyzed", map[string]interface{}{
		"conversationId": input.ConversationID,
		"address":        property.Address,
		"arv":            arv,
		"maxOffer":       maxOffer,
	})

	return output, nil
}

func buildAnalysisMessage(p *models.PropertyRecord, arv, maxOffer, equityAmount, spread int64, input *Input) string {
	var sb strings.Builder

	sb.WriteString("**FINANCIAL ANALYSIS:**\n")
	if p.Address != "" {
		fmt.Fprintf(&sb, "Property: %s", p.Address)
		if p.City != "" {
			fmt.Fprintf(&sb, ", %s, %s", p.City, p.State)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "ARV: %s\n", formatMoney(arv))
	if input.RepairCost > 0 {
		fmt.Fprintf(&sb, "Estimated Repairs: %s\n", formatMoney(input.RepairCost))
	}
	fmt.Fprintf(&sb, "Max Offer (70%% rule): %s\n", formatMoney(maxOffer))

	if p.EquityPercentage > 0 {
		fmt.Fprintf(&sb, "Equity: %d%% (%s)\n", p.EquityPercentage, formatMoney(equityAmount))
	}
	if input.AskingPrice > 0 {
		fmt.Fprintf(&sb, "Asking Price: %s\n", formatMoney(input.AskingPrice))
		if spread > 0 {
			fmt.Fprintf(&sb, "Spread: %s under your max offer\n", formatMoney(spread))
		} else {
			fmt.Fprintf(&sb, "Spread: asking exceeds your max offer by %s\n", formatMoney(-spread))
		}
	}
	if p.MotivationScore > 0 {
		fmt.Fprintf(&sb, "Motivation Score: %d/100\n", p.MotivationScore)
	}

	switch {
	case input.AskingPrice > 0 && spread >= 0:
		sb.WriteString("\nThis deal has room. Consider opening below your max offer to leave negotiating margin.")
	case input.AskingPrice > 0:
		sb.WriteString("\nThe numbers don't work at the current asking price. You'd need a significant price reduction.")
	default:
		sb.WriteString("\nNo asking price on record. Use the max offer above as your ceiling when you open negotiations.")
	}

	return sb.String()
}

// parseAmount coerces a decimal string that may carry $ , or stray spaces.
func parseAmount(s string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0
	}
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		cleaned = cleaned[:i]
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatMoney(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "$" + strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
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
