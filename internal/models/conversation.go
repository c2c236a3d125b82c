// internal/models/conversation.go
package models

import "time"

// Agent personas the chat UI can address.
const (
	AgentLeadFinder   = "lead_finder"
	AgentDealAnalyzer = "deal_analyzer"
	AgentNegotiation  = "negotiation"
	AgentClosing      = "closing"
)

// Conversation groups the messages exchanged with one agent persona.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"sessionId" db:"session_id"`
	Agent     string    `json:"agent" db:"agent"`
	Title     string    `json:"title,omitempty" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Message is a single chat turn. Content is free-form UTF-8 text; assistant
// messages may carry embedded property blocks the pipeline extracts.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	Role           string    `json:"role" db:"role"` // "user" or "assistant"
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
