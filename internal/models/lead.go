// internal/models/lead.go
package models

import "time"

// Lead is a persisted property/owner opportunity. Identity is assigned at
// the persistence boundary, never by the parsing pipeline.
type Lead struct {
	ID             string         `json:"id" db:"id"`
	ConversationID string         `json:"conversationId" db:"conversation_id"`
	Property       PropertyRecord `json:"property"`
	Status         string         `json:"status" db:"status"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// Lead pipeline statuses.
const (
	LeadStatusNew           = "new"
	LeadStatusContacted     = "contacted"
	LeadStatusNegotiating   = "negotiating"
	LeadStatusUnderContract = "under_contract"
	LeadStatusClosed        = "closed"
	LeadStatusDead          = "dead"
)
