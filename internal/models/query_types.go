// internal/models/query_types.go
package models

// Query types supported by the query-leads worker.
const (
	QueryLeadByID            = "lead_by_id"
	QueryLeadsByConversation = "leads_by_conversation"
	QueryLeadsByStatus       = "leads_by_status"
	QueryLeadsByCity         = "leads_by_city"
	QueryHotLeads            = "hot_leads"
	QueryLeadCountByLeadType = "lead_count_by_lead_type"
)

// LeadQuery is the request shape for a parameterized lead lookup.
type LeadQuery struct {
	QueryType  string                 `json:"queryType"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
}

// LeadQueryResult carries rows plus metadata for the caller.
type LeadQueryResult struct {
	QueryType string `json:"queryType"`
	Leads     []Lead `json:"leads"`
	Total     int    `json:"total"`
}
