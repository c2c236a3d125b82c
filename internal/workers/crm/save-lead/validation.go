// internal/workers/crm/save-lead/validation.go
package savelead

import "dealflow-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"property"},
		Properties: map[string]validation.Property{
			"conversationId": {
				Type:        "string",
				Description: "Conversation the lead was surfaced in",
				MaxLength:   intPtr(255),
			},
			"property": {
				Type:        "object",
				Description: "Property record to persist as a lead",
			},
			"leadKey": {
				Type:        "string",
				Description: "De-duplication key of the record",
				MaxLength:   intPtr(512),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"leadId": {
				Type:        "string",
				Description: "Assigned lead identifier",
			},
			"leadStatus": {
				Type:        "string",
				Description: "Initial lead status",
			},
			"createdAt": {
				Type:        "string",
				Description: "Timestamp the lead was persisted",
			},
		},
		AdditionalProperties: false,
	}
}

func intPtr(i int) *int {
	return &i
}
