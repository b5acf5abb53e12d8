package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewly/renewly/internal/store"
)

func TestDetectPriceChange_AdobeIncrease(t *testing.T) {
	previous := &store.Subscription{Provider: "adobe", Price: price(49.99)}
	detected := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	candidate := Candidate{
		Provider:   "adobe",
		Price:      price(52.99),
		Frequency:  FrequencyMonthly,
		DetectedAt: detected,
	}

	pc := DetectPriceChange(previous, candidate)

	require.NotNil(t, pc)
	assert.Equal(t, "adobe", pc.Provider)
	assert.InDelta(t, 49.99, pc.OldPrice, 0.001)
	assert.InDelta(t, 52.99, pc.NewPrice, 0.001)
	assert.InDelta(t, 3.00, pc.Change, 0.01)
	assert.InDelta(t, 6.0, pc.PercentageChange, 0.01)
	assert.Equal(t, 1, pc.FrequencyMonths)
	assert.Equal(t, detected.AddDate(0, 1, 0), pc.NextRenewalDate)
}

func TestDetectPriceChange_Decrease(t *testing.T) {
	previous := &store.Subscription{Provider: "netflix", Price: price(17.99)}
	candidate := Candidate{Provider: "netflix", Price: price(15.49), Frequency: FrequencyMonthly}

	pc := DetectPriceChange(previous, candidate)

	require.NotNil(t, pc)
	assert.InDelta(t, -2.50, pc.Change, 0.01)
	assert.Less(t, pc.PercentageChange, 0.0)
}

func TestDetectPriceChange_YearlyFrequency(t *testing.T) {
	previous := &store.Subscription{Provider: "adobe", Price: price(549.99)}
	detected := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candidate := Candidate{
		Provider:   "adobe",
		Price:      price(599.88),
		Frequency:  FrequencyYearly,
		DetectedAt: detected,
	}

	pc := DetectPriceChange(previous, candidate)

	require.NotNil(t, pc)
	assert.Equal(t, 12, pc.FrequencyMonths)
	assert.Equal(t, detected.AddDate(1, 0, 0), pc.NextRenewalDate)
}

func TestDetectPriceChange_NoChangeCases(t *testing.T) {
	tests := []struct {
		name      string
		previous  *store.Subscription
		candidate Candidate
	}{
		{
			name:      "first-ever detection",
			previous:  nil,
			candidate: Candidate{Provider: "netflix", Price: price(15.99)},
		},
		{
			name:      "previous price unknown",
			previous:  &store.Subscription{Provider: "netflix"},
			candidate: Candidate{Provider: "netflix", Price: price(15.99)},
		},
		{
			name:      "new price unknown",
			previous:  &store.Subscription{Provider: "netflix", Price: price(15.99)},
			candidate: Candidate{Provider: "netflix"},
		},
		{
			name:      "identical price",
			previous:  &store.Subscription{Provider: "netflix", Price: price(15.99)},
			candidate: Candidate{Provider: "netflix", Price: price(15.99)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, DetectPriceChange(tt.previous, tt.candidate))
		})
	}
}
