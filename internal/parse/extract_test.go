package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractField(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		labels   []string
		expected string
	}{
		{
			name:     "simple label with colon",
			text:     "Address: 123 Main St",
			labels:   []string{"Address"},
			expected: "123 Main St",
		},
		{
			name:     "label without colon",
			text:     "ARV $350,000",
			labels:   []string{"ARV"},
			expected: "$350,000",
		},
		{
			name:     "case insensitive",
			text:     "address: 99 Elm Ave",
			labels:   []string{"Address"},
			expected: "99 Elm Ave",
		},
		{
			name:     "first synonym wins",
			text:     "Owner Name: Sam Lee\nOwner: wrong",
			labels:   []string{"Owner Name", "Owner"},
			expected: "Sam Lee",
		},
		{
			name:     "falls through to second synonym",
			text:     "Owner: Jane Doe",
			labels:   []string{"Owner Name", "Owner"},
			expected: "Jane Doe",
		},
		{
			name:     "bulleted line",
			text:     "- Price: $200,000",
			labels:   []string{"Price"},
			expected: "$200,000",
		},
		{
			name:     "value stops at end of line",
			text:     "City: Phoenix\nState: AZ",
			labels:   []string{"City"},
			expected: "Phoenix",
		},
		{
			name:     "empty text",
			text:     "",
			labels:   []string{"Address"},
			expected: "",
		},
		{
			name:     "no match",
			text:     "Just checking in",
			labels:   []string{"Address", "Owner"},
			expected: "",
		},
		{
			name:     "label with empty value skipped for next synonym",
			text:     "Owner Name:\nOwner: Jane Doe",
			labels:   []string{"Owner Name", "Owner"},
			expected: "Jane Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractField(tt.text, tt.labels))
		})
	}
}

// Pins the documented ambiguity: overlapping labels are disambiguated purely
// by synonym order, not by semantic priority.
func TestExtractField_LabelOrder(t *testing.T) {
	text := "Owner Name: Sam Lee"

	// Specific-first ordering resolves correctly.
	assert.Equal(t, "Sam Lee", ExtractField(text, []string{"Owner Name", "Owner"}))

	// Generic-first ordering captures the tail of the longer label. This is
	// existing behavior that callers depend on ordering to avoid.
	assert.Equal(t, "Name: Sam Lee", ExtractField(text, []string{"Owner", "Owner Name"}))
}
