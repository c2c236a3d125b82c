package searchleads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/workers/data-access/search-leads/queries"
)

const testIndex = "leads_test"

func createTestConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		LeadIndex: testIndex,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createRealElasticsearchClient(t *testing.T) *elasticsearch.Client {
	cfg := elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
	}

	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		t.Skipf("Skipping test: Failed to create Elasticsearch client: %v", err)
		return nil
	}

	res, err := esClient.Info()
	if err != nil {
		t.Skipf("Skipping test: Elasticsearch container not responding: %v", err)
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		t.Skipf("Skipping test: Elasticsearch error: %s", res.String())
		return nil
	}

	return esClient
}

func setupRealTestData(t *testing.T, esClient *elasticsearch.Client) {
	esClient.Indices.Delete([]string{testIndex}, esClient.Indices.Delete.WithIgnoreUnavailable(true))

	indexBody := `{
		"mappings": {
			"properties": {
				"address": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
				"ownerName": {"type": "text"},
				"city": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
				"leadType": {"type": "keyword"},
				"status": {"type": "keyword"},
				"motivationScore": {"type": "float"},
				"equityPercentage": {"type": "float"}
			}
		}
	}`

	res, err := esClient.Indices.Create(
		testIndex,
		esClient.Indices.Create.WithBody(strings.NewReader(indexBody)),
	)
	require.NoError(t, err, "Failed to create index")
	res.Body.Close()

	testDocs := []map[string]interface{}{
		{
			"address":          "123 Oak St",
			"ownerName":        "John Smith",
			"city":             "Dallas",
			"leadType":         "pre_foreclosure",
			"status":           "new",
			"motivationScore":  92.0,
			"equityPercentage": 45.0,
		},
		{
			"address":          "456 Pine Ave",
			"ownerName":        "Mary Johnson",
			"city":             "Dallas",
			"leadType":         "absentee_owner",
			"status":           "contacted",
			"motivationScore":  75.0,
			"equityPercentage": 60.0,
		},
		{
			"address":          "789 Maple Dr",
			"ownerName":        "Bob Williams",
			"city":             "Austin",
			"leadType":         "tax_delinquent",
			"status":           "new",
			"motivationScore":  85.0,
			"equityPercentage": 30.0,
		},
		{
			"address":          "321 Cedar Ln",
			"ownerName":        "Sue Davis",
			"city":             "Austin",
			"leadType":         "absentee_owner",
			"status":           "new",
			"motivationScore":  55.0,
			"equityPercentage": 70.0,
		},
	}

	for i, doc := range testDocs {
		docJSON, _ := json.Marshal(doc)
		res, err := esClient.Index(
			testIndex,
			strings.NewReader(string(docJSON)),
			esClient.Index.WithDocumentID(fmt.Sprintf("%d", i+1)),
			esClient.Index.WithRefresh("wait_for"),
		)
		require.NoError(t, err, "Failed to index document %d", i+1)
		res.Body.Close()
	}

	_, err = esClient.Indices.Refresh(esClient.Indices.Refresh.WithIndex(testIndex))
	require.NoError(t, err, "Failed to refresh index")
}

func TestHandler_Execute_Success_RealElasticsearch(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	if esClient == nil {
		return
	}
	setupRealTestData(t, esClient)

	handler := NewHandler(createTestConfig(), esClient, createTestLogger(t))

	tests := []struct {
		name     string
		input    *Input
		validate func(t *testing.T, output *Output)
	}{
		{
			name: "match all leads",
			input: &Input{
				QueryType:  "lead_search",
				Filters:    map[string]interface{}{},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(4), output.TotalHits, "Should find all 4 test documents")
				assert.Equal(t, 4, len(output.Data))
				// Sorted by motivation, highest first
				assert.Equal(t, "123 Oak St", output.Data[0]["address"])
			},
		},
		{
			name: "filter by city",
			input: &Input{
				QueryType: "lead_search",
				Filters: map[string]interface{}{
					"city": "Dallas",
				},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(2), output.TotalHits, "Should find 2 Dallas leads")
				for _, item := range output.Data {
					assert.Equal(t, "Dallas", item["city"])
				}
			},
		},
		{
			name: "filter by lead type",
			input: &Input{
				QueryType: "lead_search",
				Filters: map[string]interface{}{
					"leadType": "absentee_owner",
				},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(2), output.TotalHits, "Should find 2 absentee owner leads")
			},
		},
		{
			name: "keyword search over owner name",
			input: &Input{
				QueryType: "lead_search",
				Filters: map[string]interface{}{
					"keywords": "Smith",
				},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(1), output.TotalHits, "Should find 1 lead owned by Smith")
				if output.TotalHits > 0 {
					assert.Equal(t, "John Smith", output.Data[0]["ownerName"])
				}
			},
		},
		{
			name: "minimum motivation filter",
			input: &Input{
				QueryType: "lead_search",
				Filters: map[string]interface{}{
					"minMotivation": 80,
				},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(2), output.TotalHits, "Should find leads scoring 80 or above")
			},
		},
		{
			name: "hot leads query",
			input: &Input{
				QueryType: "hot_leads",
				Filters: map[string]interface{}{
					"threshold": 80,
				},
				Pagination: &Pagination{From: 0, Size: 10},
			},
			validate: func(t *testing.T, output *Output) {
				assert.Equal(t, int64(2), output.TotalHits)
				assert.Equal(t, "123 Oak St", output.Data[0]["address"], "Highest motivation first")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.execute(context.Background(), tt.input)

			assert.NoError(t, err)
			assert.NotNil(t, output)

			if tt.validate != nil {
				tt.validate(t, output)
			}
		})
	}
}

func TestHandler_Execute_UnknownQueryType_RealElasticsearch(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	if esClient == nil {
		return
	}

	handler := NewHandler(createTestConfig(), esClient, createTestLogger(t))

	input := &Input{
		QueryType: "invalid_query_type",
		Filters:   map[string]interface{}{},
	}

	output, err := handler.execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrSearchQueryFailed))
	assert.Nil(t, output)
}

func TestHandler_ErrorMapping(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"index not found", ErrIndexNotFound, "INDEX_NOT_FOUND"},
		{"search timeout", ErrSearchTimeout, "SEARCH_TIMEOUT"},
		{"search query failed", ErrSearchQueryFailed, "SEARCH_QUERY_FAILED"},
		{"connection failed", ErrElasticsearchConnectionFailed, "ELASTICSEARCH_CONNECTION_FAILED"},
		{"unknown error", errors.New("random error"), "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := handler.mapErrorToCode(tt.err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestHandler_RetryCounts(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	assert.Equal(t, int32(3), handler.getRetryCount(ErrSearchQueryFailed))
	assert.Equal(t, int32(3), handler.getRetryCount(ErrElasticsearchConnectionFailed))
	assert.Equal(t, int32(2), handler.getRetryCount(ErrSearchTimeout))
	assert.Equal(t, int32(0), handler.getRetryCount(ErrIndexNotFound))
}

func TestBuildQuery(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		_, err := queries.BuildQuery(queries.LeadQuery{QueryType: "lead_search"})
		assert.ErrorIs(t, err, queries.ErrMissingIndex)
	})

	t.Run("unknown query type", func(t *testing.T) {
		_, err := queries.BuildQuery(queries.LeadQuery{Index: testIndex, QueryType: "bogus"})
		assert.ErrorIs(t, err, queries.ErrUnknownQueryType)
	})

	t.Run("lead search builds request", func(t *testing.T) {
		lq := queries.LeadQuery{
			Index:     testIndex,
			QueryType: "lead_search",
			Filters: map[string]interface{}{
				"city":     "Dallas",
				"keywords": "Oak",
			},
		}
		lq.Pagination.From = 0
		lq.Pagination.Size = 5

		req, err := queries.BuildQuery(lq)
		require.NoError(t, err)
		assert.Equal(t, []string{testIndex}, req.Index)
		assert.Equal(t, 5, *req.Size)
	})
}

func TestHandler_EdgeCases(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	t.Run("nil input", func(t *testing.T) {
		output, err := handler.execute(context.Background(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be nil")
		assert.Nil(t, output)
	})

	t.Run("empty index name", func(t *testing.T) {
		h := NewHandler(&Config{Timeout: time.Second}, nil, createTestLogger(t))
		output, err := h.execute(context.Background(), &Input{QueryType: "lead_search"})
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrIndexNotFound)
		assert.Nil(t, output)
	})
}
