// internal/workers/data-access/search-leads/models.go
package searchleads

type Input struct {
	QueryType  string                 `json:"queryType"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	Pagination *Pagination            `json:"pagination,omitempty"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []map[string]interface{} `json:"data"`
	TotalHits int64                    `json:"totalHits"`
	MaxScore  float64                  `json:"maxScore"`
	Took      int64                    `json:"took"` // milliseconds
}
