// internal/workers/crm/save-lead/models.go
package savelead

import "dealflow-workers/internal/models"

type Input struct {
	ConversationID string                `json:"conversationId"`
	Property       models.PropertyRecord `json:"property"`
	LeadKey        string                `json:"leadKey,omitempty"`
}

type Output struct {
	LeadID     string `json:"leadId"`
	LeadStatus string `json:"leadStatus"`
	CreatedAt  string `json:"createdAt"` // ISO 8601
}
