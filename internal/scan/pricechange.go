package scan

import (
	"math"

	"github.com/renewly/renewly/internal/store"
)

// DetectPriceChange compares a candidate's price to the previously stored
// record for the same (user, provider) pair. It returns nil when there is no
// previous record, either price is absent, or the prices are equal. The
// comparison happens before the same-scan upsert so the previous price is the
// one the user last saw.
func DetectPriceChange(previous *store.Subscription, c Candidate) *PriceChange {
	if previous == nil || previous.Price == nil || c.Price == nil {
		return nil
	}

	oldPrice, newPrice := *previous.Price, *c.Price
	if oldPrice == newPrice {
		return nil
	}

	change := round2(newPrice - oldPrice)

	months := 1
	if c.Frequency == FrequencyYearly {
		months = 12
	}

	return &PriceChange{
		Provider:         c.Provider,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		Change:           change,
		PercentageChange: round2(change / oldPrice * 100),
		FrequencyMonths:  months,
		NextRenewalDate:  c.DetectedAt.AddDate(0, months, 0),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
