// internal/models/property.go
package models

// PropertyRecord is the canonical normalized property entity produced by the
// extraction pipeline. Address is the only field guaranteed non-empty after
// normalization; every other field carries a documented default.
type PropertyRecord struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`

	Bedrooms   int `json:"bedrooms,omitempty"`
	Bathrooms  int `json:"bathrooms,omitempty"`
	SquareFeet int `json:"squareFeet,omitempty"`
	YearBuilt  int `json:"yearBuilt,omitempty"`

	// Money amounts are kept as decimal strings to avoid float precision
	// loss between the API, the store and the UI.
	ARV           string `json:"arv"`
	MaxOffer      string `json:"maxOffer"`
	LastSalePrice string `json:"lastSalePrice,omitempty"`

	EquityPercentage int `json:"equityPercentage"`
	MotivationScore  int `json:"motivationScore"`

	OwnerName           string `json:"ownerName"`
	OwnerPhone          string `json:"ownerPhone"`
	OwnerEmail          string `json:"ownerEmail"`
	OwnerMailingAddress string `json:"ownerMailingAddress"`
	OwnerStatus         string `json:"ownerStatus"`

	LeadType            string `json:"leadType"`
	DistressedIndicator string `json:"distressedIndicator,omitempty"`
}

// HasRequiredFields reports whether the record can be persisted as a lead.
// The store rejects records missing any of address, city or state.
func (p *PropertyRecord) HasRequiredFields() bool {
	return p.Address != "" && p.City != "" && p.State != ""
}
