// internal/workers/data-access/search-leads/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// LeadQuery defines the structure of a lead search request
type LeadQuery struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(lq LeadQuery) (*esapi.SearchRequest, error) {
	if lq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch lq.QueryType {
	case "lead_search":
		queryBody = buildLeadSearchQuery(lq)
	case "hot_leads":
		queryBody = buildHotLeadsQuery(lq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, lq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{lq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &lq.Pagination.From,
		Size:  &lq.Pagination.Size,
	}

	return &req, nil
}

// buildLeadSearchQuery builds the main lead search query dynamically
func buildLeadSearchQuery(lq LeadQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Free-text search over address and owner fields
	if keywords, ok := lq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"address^3", "ownerName^2", "city"},
				"type":   "best_fields",
			},
		})
	}

	if city, ok := lq.Filters["city"].(string); ok && city != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"city.keyword": city},
		})
	}

	if leadType, ok := lq.Filters["leadType"].(string); ok && leadType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"leadType": leadType},
		})
	}

	if status, ok := lq.Filters["status"].(string); ok && status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"status": status},
		})
	}

	if minMotivation, ok := toFloat(lq.Filters["minMotivation"]); ok && minMotivation > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"motivationScore": map[string]interface{}{"gte": minMotivation},
			},
		})
	}

	if minEquity, ok := toFloat(lq.Filters["minEquity"]); ok && minEquity > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"equityPercentage": map[string]interface{}{"gte": minEquity},
			},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(mustClauses) > 0 {
		boolQuery["must"] = mustClauses
	} else {
		boolQuery["must"] = []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"motivationScore": map[string]interface{}{"order": "desc"}},
		},
	}
}

// buildHotLeadsQuery finds leads above a motivation threshold, highest first.
func buildHotLeadsQuery(lq LeadQuery) map[string]interface{} {
	threshold := 80.0
	if t, ok := toFloat(lq.Filters["threshold"]); ok && t > 0 {
		threshold = t
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"range": map[string]interface{}{
				"motivationScore": map[string]interface{}{"gte": threshold},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"motivationScore": map[string]interface{}{"order": "desc"}},
		},
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
