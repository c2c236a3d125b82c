// internal/workers/lead-extraction/extract-property-records/models.go
package extractpropertyrecords

import "dealflow-workers/internal/models"

type Input struct {
	MessageText    string `json:"messageText"`
	ConversationID string `json:"conversationId"`
	SessionID      string `json:"sessionId"`
}

type Output struct {
	Properties []models.PropertyRecord `json:"properties"`
	LeadKeys   []string                `json:"leadKeys"`
	Count      int                     `json:"count"`
	Duplicates int                     `json:"duplicates"`
	PlainText  bool                    `json:"plainText"`
}
