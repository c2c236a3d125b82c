// internal/workers/lead-finder/search-properties/models.go
package searchproperties

import (
	"dealflow-workers/internal/models"
)

type Input struct {
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`

	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	ZipCodes     []string `json:"zipCodes,omitempty"`
	MinEquity    int      `json:"minEquity,omitempty"`
	MaxPrice     int64    `json:"maxPrice,omitempty"`
	LeadTypes    []string `json:"leadTypes,omitempty"`
	AbsenteeOnly bool     `json:"absenteeOnly,omitempty"`
	Limit        int      `json:"limit,omitempty"`

	// Opaque provider token, passed through untouched.
	SessionState string `json:"sessionState,omitempty"`
}

type Output struct {
	Properties   []models.PropertyRecord `json:"properties"`
	PropertyIDs  []string                `json:"propertyIds"`
	Count        int                     `json:"count"`
	Message      string                  `json:"message"`
	SessionState string                  `json:"sessionState,omitempty"`
}
