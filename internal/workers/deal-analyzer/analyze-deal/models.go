// internal/workers/deal-analyzer/analyze-deal/models.go
package analyzedeal

import (
	"dealflow-workers/internal/models"
)

type Input struct {
	ConversationID string                `json:"conversationId"`
	Property       models.PropertyRecord `json:"property"`

	// PropertyID lets the process reference a provider listing instead of
	// shipping the full record through job variables.
	PropertyID string `json:"propertyId,omitempty"`

	AskingPrice int64 `json:"askingPrice,omitempty"`
	RepairCost  int64 `json:"repairCost,omitempty"`
}

type Output struct {
	Property models.PropertyRecord `json:"property"`

	ARV          string `json:"arv"`
	MaxOffer     string `json:"maxOffer"`
	RepairCost   int64  `json:"repairCost"`
	EquityAmount int64  `json:"equityAmount"`
	Spread       int64  `json:"spread"`

	Message string `json:"message"`
}
