package savelead

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dealflow-workers/internal/common/validation"
)

func TestGetInputSchema(t *testing.T) {
	schema := GetInputSchema()

	result := validation.ValidateInput(map[string]interface{}{
		"conversationId": "conv-1",
		"property":       map[string]interface{}{"address": "123 Oak St"},
	}, schema)
	assert.True(t, result.Valid)

	result = validation.ValidateInput(map[string]interface{}{
		"conversationId": "conv-1",
	}, schema)
	assert.False(t, result.Valid, "property is required")
	assert.NotEmpty(t, result.GetErrorsForField("property"))

	result = validation.ValidateInput(map[string]interface{}{
		"property": "not-an-object",
	}, schema)
	assert.False(t, result.Valid)
}
