// internal/workers/notification/notify-hot-lead/handler.go
package notifyhotlead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	commonaws "dealflow-workers/internal/common/aws"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/common/validation"
)

const (
	TaskType = "notify-hot-lead"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	ctx := context.Background()

	sesClient, err := commonaws.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}

	snsClient, err := commonaws.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
	}, nil
}

// NewHandlerWithClients wires pre-built SES/SNS clients; used by tests.
func NewHandlerWithClients(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
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
		h.failJob(client, job, "NOTIFICATION_SEND_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	if input.Property.MotivationScore < h.config.MotivationThreshold {
		h.logger.Debug("lead below motivation threshold, skipping", map[string]interface{}{
			"leadId":    input.LeadID,
			"score":     input.Property.MotivationScore,
			"threshold": h.config.MotivationThreshold,
		})
		return &Output{
			NotificationID: notificationID,
			Status:         StatusSkipped,
			SentAt:         sentAt,
		}, nil
	}

	subject, body := buildNotification(input)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && validation.ValidateEmail(h.config.ToEmail) {
		if err := h.sendEmail(ctx, h.config.ToEmail, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": h.config.ToEmail,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		emailSent = true
	}

	highPriority := input.Property.MotivationScore >= h.config.HighPriorityScore
	if h.config.SMSEnabled && validation.ValidatePhone(h.config.PhoneNumber) && highPriority {
		if err := h.sendSMS(ctx, h.config.PhoneNumber, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": h.config.PhoneNumber,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, EmailSent: emailSent, SentAt: sentAt}, nil
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("hot lead notification processed", map[string]interface{}{
		"leadId":    input.LeadID,
		"status":    status,
		"emailSent": emailSent,
		"smsSent":   smsSent,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}, nil
}

func buildNotification(input *Input) (subject, body string) {
	p := &input.Property

	subject = fmt.Sprintf("Hot Lead: %s (motivation %d)", p.Address, p.MotivationScore)

	body = fmt.Sprintf("A new hot lead crossed your motivation threshold.\n\n"+
		"Address: %s\n"+
		"City: %s, %s %s\n"+
		"Motivation Score: %d/100\n",
		p.Address, p.City, p.State, p.ZipCode, p.MotivationScore)

	if p.LeadType != "" {
		body += fmt.Sprintf("Lead Type: %s\n", p.LeadType)
	}
	if p.ARV != "" && p.ARV != "0" {
		body += fmt.Sprintf("ARV: $%s\n", p.ARV)
	}
	if p.EquityPercentage > 0 {
		body += fmt.Sprintf("Equity: %d%%\n", p.EquityPercentage)
	}
	if p.OwnerName != "" {
		body += fmt.Sprintf("Owner: %s", p.OwnerName)
		if p.OwnerPhone != "" {
			body += fmt.Sprintf(" (%s)", p.OwnerPhone)
		}
		body += "\n"
	}
	if input.LeadID != "" {
		body += fmt.Sprintf("\nLead ID: %s\n", input.LeadID)
	}

	return subject, body
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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
