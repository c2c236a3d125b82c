// internal/workers/crm/query-leads/queries/lead.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

const leadColumns = `id, conversation_id, address, city, state, zip_code,
	owner_name, lead_type, motivation_score, status, created_at`

func LeadByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok || leadID == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	row := db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1`, leadID)

	lead, err := scanLead(row)
	if err != nil {
		return nil, 0, 0, err
	}

	return lead, 1, time.Since(start).Milliseconds(), nil
}

func LeadsByConversation(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	conversationID, ok := params["conversationId"].(string)
	if !ok || conversationID == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE conversation_id = $1
		ORDER BY created_at DESC`, conversationID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	return collectLeads(rows, start)
}

func LeadsByStatus(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	status, ok := params["status"].(string)
	if !ok || status == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 100`, status)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	return collectLeads(rows, start)
}

func LeadsByCity(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	city, ok := params["city"].(string)
	if !ok || city == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE LOWER(city) = LOWER($1)
		ORDER BY motivation_score DESC
		LIMIT 100`, city)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	return collectLeads(rows, start)
}

// HotLeads returns leads at or above the motivation threshold (default 80).
func HotLeads(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	threshold := 80
	if t, ok := params["threshold"].(float64); ok {
		threshold = int(t)
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE motivation_score >= $1
		ORDER BY motivation_score DESC
		LIMIT 100`, threshold)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	return collectLeads(rows, start)
}

func LeadCountByLeadType(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT lead_type, COUNT(*) AS count
		FROM leads
		GROUP BY lead_type
		ORDER BY count DESC`)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var leadType string
		var count int
		if err := rows.Scan(&leadType, &count); err != nil {
			return nil, 0, 0, err
		}
		counts[leadType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	return counts, len(counts), time.Since(start).Milliseconds(), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (map[string]interface{}, error) {
	var id, conversationID, address, city, state, zipCode string
	var ownerName, leadType, status string
	var motivationScore int
	var createdAt time.Time

	err := row.Scan(
		&id, &conversationID, &address, &city, &state, &zipCode,
		&ownerName, &leadType, &motivationScore, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":              id,
		"conversationId":  conversationID,
		"address":         address,
		"city":            city,
		"state":           state,
		"zipCode":         zipCode,
		"ownerName":       ownerName,
		"leadType":        leadType,
		"motivationScore": motivationScore,
		"status":          status,
		"createdAt":       createdAt.UTC().Format(time.RFC3339),
	}, nil
}

func collectLeads(rows *sql.Rows, start time.Time) (interface{}, int, int64, error) {
	var leads []map[string]interface{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, 0, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	return leads, len(leads), time.Since(start).Milliseconds(), nil
}
