// internal/workers/notification/notify-hot-lead/models.go
package notifyhotlead

import (
	"dealflow-workers/internal/models"
)

type Input struct {
	LeadID         string                `json:"leadId"`
	ConversationID string                `json:"conversationId,omitempty"`
	Property       models.PropertyRecord `json:"property"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "skipped", "disabled"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)
