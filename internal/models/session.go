// internal/models/session.go
package models

import "time"

// Session tracks one chat session across conversations. LastSearchCriteria
// keeps the criteria of the most recent property search so follow-up requests
// ("show me more") can continue from the same filters.
type Session struct {
	ID                 string                 `json:"id" db:"id"`
	UserID             string                 `json:"userId" db:"user_id"`
	LastSearchCriteria map[string]interface{} `json:"lastSearchCriteria,omitempty"`
	CreatedAt          time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time              `json:"updatedAt" db:"updated_at"`
}
