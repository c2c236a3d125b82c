// internal/workers/crm/query-leads/handler_test.go
package queryleads

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "conversation_id", "address", "city", "state", "zip_code",
		"owner_name", "lead_type", "motivation_score", "status", "created_at",
	})
}

func TestHandler_Execute_LeadByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM leads`).
		WithArgs("lead-001").
		WillReturnRows(leadRows().AddRow(
			"lead-001", "conv-001", "123 Main St", "Phoenix", "AZ", "85001",
			"Jane Doe", "preforeclosure", 85, "new", createdAt,
		))

	handler := NewHandler(LoadConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: models.QueryLeadByID,
		LeadID:    "lead-001",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	lead := output.Data.(map[string]interface{})
	assert.Equal(t, "123 Main St", lead["address"])
	assert.Equal(t, 85, lead["motivationScore"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_LeadsByConversation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM leads`).
		WithArgs("conv-001").
		WillReturnRows(leadRows().
			AddRow("lead-001", "conv-001", "123 Main St", "Phoenix", "AZ", "85001",
				"Jane Doe", "preforeclosure", 85, "new", createdAt).
			AddRow("lead-002", "conv-001", "456 Pine Ave", "Mesa", "AZ", "85201",
				"John Roe", "standard", 50, "new", createdAt))

	handler := NewHandler(LoadConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType:      models.QueryLeadsByConversation,
		ConversationID: "conv-001",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_HotLeads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM leads`).
		WithArgs(90).
		WillReturnRows(leadRows().AddRow(
			"lead-001", "conv-001", "123 Main St", "Phoenix", "AZ", "85001",
			"Jane Doe", "preforeclosure", 95, "new", createdAt,
		))

	handler := NewHandler(LoadConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType:  models.QueryHotLeads,
		Parameters: map[string]interface{}{"threshold": float64(90)},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UnknownQueryType(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: "nonsense",
	})

	assert.Error(t, err)
	var stdErr *commonerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeInvalidQueryType, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Nil(t, output)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM leads`).
		WithArgs("conv-001").
		WillReturnError(errors.New("connection reset"))

	handler := NewHandler(LoadConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType:      models.QueryLeadsByConversation,
		ConversationID: "conv-001",
	})

	assert.Error(t, err)
	var stdErr *commonerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Nil(t, output)
}
