// internal/workers/agents/compose-reply/models.go
package composereply

import (
	"dealflow-workers/internal/models"
)

type Input struct {
	ConversationID string `json:"conversationId"`
	Agent          string `json:"agent"`
	UserMessage    string `json:"userMessage"`

	// Prior turns, oldest first, for conversational continuity.
	History []models.Message `json:"history,omitempty"`

	// Structured context assembled by upstream workers (analyzed deal,
	// search results, saved lead) the persona should reference.
	Context map[string]interface{} `json:"context,omitempty"`
}

type Output struct {
	Reply      string  `json:"reply"`
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
}
