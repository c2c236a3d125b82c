// internal/workers/crm/query-leads/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealflow-workers/internal/models"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[string]QueryFunc{
	models.QueryLeadByID:            LeadByID,
	models.QueryLeadsByConversation: LeadsByConversation,
	models.QueryLeadsByStatus:       LeadsByStatus,
	models.QueryLeadsByCity:         LeadsByCity,
	models.QueryHotLeads:            HotLeads,
	models.QueryLeadCountByLeadType: LeadCountByLeadType,
}

func Execute(ctx context.Context, db *sql.DB, queryType string, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}
