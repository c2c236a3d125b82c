// internal/workers/crm/query-leads/models.go
package queryleads

type Input struct {
	QueryType      string                 `json:"queryType"`
	LeadID         string                 `json:"leadId,omitempty"`
	ConversationID string                 `json:"conversationId,omitempty"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}
