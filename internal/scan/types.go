package scan

import (
	"time"

	"github.com/renewly/renewly/internal/store"
)

// CandidateType classifies which heuristic pattern identified a message.
type CandidateType string

// Candidate types, in classification order.
const (
	TypeSubscription CandidateType = "subscription"
	TypeRecurring    CandidateType = "recurring"
	TypePrice        CandidateType = "price"
	TypeConfirmation CandidateType = "confirmation"
)

// Frequency is the billing cadence inferred from a message.
type Frequency string

// Billing cadences. Monthly is the default when no keyword matches.
const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Candidate is a scan-local inference of a subscription from one message.
// It is ephemeral until deduplication and persistence.
type Candidate struct {
	Provider        string
	Type            CandidateType // empty when no pattern matched
	Price           *float64
	Frequency       Frequency
	DetectedAt      time.Time
	SourceMessageID string
}

// PriceChange is the diff between a newly observed price and the previously
// stored price for the same (user, provider) pair.
type PriceChange struct {
	Provider         string    `json:"provider"`
	OldPrice         float64   `json:"oldPrice"`
	NewPrice         float64   `json:"newPrice"`
	Change           float64   `json:"change"`
	PercentageChange float64   `json:"percentageChange"`
	FrequencyMonths  int       `json:"frequencyMonths"`
	NextRenewalDate  time.Time `json:"nextRenewalDate"`
}

// Result is what one scan returns to the caller.
type Result struct {
	Subscriptions []store.Subscription `json:"subscriptions"`
	Count         int                  `json:"count"`
	PriceChanges  []PriceChange        `json:"priceChanges"`
}
