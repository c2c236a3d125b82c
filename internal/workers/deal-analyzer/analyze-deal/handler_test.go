package analyzedeal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/propertydata"
	"dealflow-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxOfferRatio: 0.70,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func TestHandler_Execute_SeventyPercentRule(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	input := &Input{
		ConversationID: "conv-1",
		Property: models.PropertyRecord{
			Address:          "123 Oak St",
			City:             "Dallas",
			State:            "TX",
			ARV:              "350000",
			EquityPercentage: 40,
			MotivationScore:  85,
		},
		RepairCost: 25000,
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	// 350000 * 0.70 - 25000 = 220000
	assert.Equal(t, "220000", output.MaxOffer)
	assert.Equal(t, "350000", output.ARV)
	assert.Equal(t, int64(140000), output.EquityAmount)
	assert.Equal(t, "220000", output.Property.MaxOffer, "max offer written back to the record")
}

func TestHandler_Execute_MaxOfferNeverExceedsARV(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	tests := []struct {
		name       string
		arv        string
		repairCost int64
	}{
		{"no repairs", "100000", 0},
		{"modest repairs", "250000", 40000},
		{"repairs exceed offer", "100000", 90000},
		{"formatted currency input", "$1,250,000", 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{
				Property:   models.PropertyRecord{Address: "1 Test St", ARV: tt.arv},
				RepairCost: tt.repairCost,
			})
			require.NoError(t, err)

			arv := parseAmount(output.ARV)
			maxOffer := parseAmount(output.MaxOffer)
			assert.LessOrEqual(t, maxOffer, arv)
			assert.GreaterOrEqual(t, maxOffer, int64(0))
		})
	}
}

func TestHandler_Execute_SpreadAgainstAskingPrice(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	t.Run("deal has room", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			Property:    models.PropertyRecord{Address: "1 Test St", ARV: "400000"},
			AskingPrice: 250000,
		})
		require.NoError(t, err)
		// 400000 * 0.70 = 280000; spread = 30000
		assert.Equal(t, int64(30000), output.Spread)
		assert.Contains(t, output.Message, "This deal has room")
	})

	t.Run("asking too high", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			Property:    models.PropertyRecord{Address: "1 Test St", ARV: "300000"},
			AskingPrice: 280000,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(-70000), output.Spread)
		assert.Contains(t, output.Message, "don't work at the current asking price")
	})

	t.Run("no asking price", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			Property: models.PropertyRecord{Address: "1 Test St", ARV: "300000"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), output.Spread)
		assert.Contains(t, output.Message, "No asking price on record")
	})
}

func TestHandler_Execute_MessageFormat(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Property: models.PropertyRecord{
			Address:          "123 Oak St",
			City:             "Dallas",
			State:            "TX",
			ARV:              "350000",
			EquityPercentage: 40,
			MotivationScore:  85,
		},
		RepairCost:  25000,
		AskingPrice: 200000,
	})

	require.NoError(t, err)
	assert.Contains(t, output.Message, "**FINANCIAL ANALYSIS:**")
	assert.Contains(t, output.Message, "Property: 123 Oak St, Dallas, TX")
	assert.Contains(t, output.Message, "ARV: $350,000")
	assert.Contains(t, output.Message, "Estimated Repairs: $25,000")
	assert.Contains(t, output.Message, "Max Offer (70% rule): $220,000")
	assert.Contains(t, output.Message, "Equity: 40% ($140,000)")
	assert.Contains(t, output.Message, "Motivation Score: 85/100")
}

func TestHandler_Execute_NoARV(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Property: models.PropertyRecord{Address: "1 Test St"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDealAnalysisFailed))
	assert.Nil(t, output)
}

type stubFetcher struct {
	result *propertydata.SearchResult
	err    error
	lastID string
	calls  int
}

func (s *stubFetcher) GetProperty(_ context.Context, propertyID string) (*propertydata.SearchResult, error) {
	s.calls++
	s.lastID = propertyID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestHandler_Execute_FetchesPropertyByID(t *testing.T) {
	fetcher := &stubFetcher{result: &propertydata.SearchResult{
		PropertyID: "prop-9",
		Property: models.PropertyRecord{
			Address:          "789 Elm St",
			City:             "Mesa",
			State:            "AZ",
			ARV:              "200000",
			EquityPercentage: 50,
		},
	}}
	handler := NewHandler(createTestConfig(), fetcher, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		ConversationID: "conv-1",
		PropertyID:     "prop-9",
		RepairCost:     10000,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "prop-9", fetcher.lastID)
	// 200000 * 0.70 - 10000 = 130000
	assert.Equal(t, "130000", output.MaxOffer)
	assert.Equal(t, "789 Elm St", output.Property.Address)
}

func TestHandler_Execute_InlineRecordSkipsLookup(t *testing.T) {
	fetcher := &stubFetcher{}
	handler := NewHandler(createTestConfig(), fetcher, createTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		Property:   models.PropertyRecord{Address: "1 Test St", ARV: "300000"},
		PropertyID: "prop-9",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.calls, "records carrying an ARV do not hit the provider")
}

func TestHandler_Execute_LookupFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream 502")}
	handler := NewHandler(createTestConfig(), fetcher, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{PropertyID: "prop-9"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPropertyLookupFailed))
	assert.Nil(t, output)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		expected int64
	}{
		{"350000", 350000},
		{"$350,000", 350000},
		{"$1,250,000.50", 1250000},
		{"", 0},
		{"N/A", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseAmount(tt.in), "parseAmount(%q)", tt.in)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$350,000", formatMoney(350000))
	assert.Equal(t, "$1,250,000", formatMoney(1250000))
	assert.Equal(t, "$500", formatMoney(500))
	assert.Equal(t, "-$70,000", formatMoney(-70000))
}
