// Package propertydata wraps the external distressed-property data API used by
// the search-properties worker.
package propertydata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	commonhttp "dealflow-workers/internal/common/http"
	"dealflow-workers/internal/models"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *commonhttp.Client
}

// SearchCriteria describes a property search against the external API.
type SearchCriteria struct {
	City           string   `json:"city,omitempty"`
	State          string   `json:"state,omitempty"`
	ZipCodes       []string `json:"zipCodes,omitempty"`
	MinEquity      int      `json:"minEquity,omitempty"`
	MaxPrice       int64    `json:"maxPrice,omitempty"`
	LeadTypes      []string `json:"leadTypes,omitempty"`
	AbsenteeOnly   bool     `json:"absenteeOnly,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	ExcludedIDs    []string `json:"excludedPropertyIds,omitempty"`
	SessionState   string   `json:"sessionState,omitempty"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// SearchResult is a single property returned by the API.
type SearchResult struct {
	PropertyID string                 `json:"propertyId"`
	Property   models.PropertyRecord  `json:"property"`
	Score      int                    `json:"score,omitempty"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

type searchResponse struct {
	Data  []SearchResult `json:"data"`
	Total int            `json:"total"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: commonhttp.NewClient(timeout),
	}
}

// Search queries the property data API. Already-shown property IDs are passed
// through so the provider can exclude them server-side.
func (c *Client) Search(ctx context.Context, criteria SearchCriteria) ([]SearchResult, error) {
	url := fmt.Sprintf("%s/v1/properties/search", c.baseURL)

	jsonData, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search criteria: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("property search failed (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return searchResp.Data, nil
}

// GetProperty fetches a single property by provider ID.
func (c *Client) GetProperty(ctx context.Context, propertyID string) (*SearchResult, error) {
	url := fmt.Sprintf("%s/v1/properties/%s", c.baseURL, propertyID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("property not found: %s", propertyID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get property (status %d): %s", resp.StatusCode, string(body))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
