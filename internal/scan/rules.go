package scan

import "regexp"

// Alias maps a substring found in a sender domain or message text to a
// canonical provider name. Aliases are an ordered list so resolution is
// deterministic.
type Alias struct {
	Match    string
	Provider string
}

// RuleSet is the versioned heuristic configuration for a scan. The tables are
// configuration data rather than inline literals so the heuristics stay
// unit-testable against fixed fixtures and the lists can evolve without code
// changes elsewhere.
type RuleSet struct {
	// Version identifies the rule revision for logs and diagnostics.
	Version string

	// SubjectKeywords feed the subject side of the mailbox search query.
	SubjectKeywords []string

	// ProviderDomains feed the sender side of the mailbox search query.
	ProviderDomains []string

	// Aliases resolve sender domains and subjects to provider names.
	Aliases []Alias

	// Classification patterns, applied in order: the first match sets the
	// candidate type.
	Subscription *regexp.Regexp
	Recurring    *regexp.Regexp
	Price        *regexp.Regexp
	Confirmation *regexp.Regexp

	// Billing cadence patterns.
	Yearly  *regexp.Regexp
	Monthly *regexp.Regexp
}

// DefaultRules returns the built-in rule revision. The provider and domain
// lists are fixed rather than user-supplied to bound the false-positive rate.
func DefaultRules() RuleSet {
	return RuleSet{
		Version: "2025-08",

		SubjectKeywords: []string{
			"subscription", "payment", "receipt", "invoice", "billing",
			"netflix", "spotify", "hulu", "disney", "adobe",
			"dropbox", "github", "notion", "icloud",
		},

		ProviderDomains: []string{
			"netflix.com", "spotify.com", "hulu.com", "disneyplus.com",
			"adobe.com", "dropbox.com", "github.com", "notion.so",
			"apple.com", "amazon.com",
		},

		Aliases: []Alias{
			{Match: "netflix", Provider: "netflix"},
			{Match: "spotify", Provider: "spotify"},
			{Match: "hulu", Provider: "hulu"},
			{Match: "disney", Provider: "disney"},
			{Match: "adobe", Provider: "adobe"},
			{Match: "dropbox", Provider: "dropbox"},
			{Match: "github", Provider: "github"},
			{Match: "notion", Provider: "notion"},
			{Match: "icloud", Provider: "icloud"},
			{Match: "apple", Provider: "apple"},
			{Match: "amazon", Provider: "amazon"},
		},

		Subscription: regexp.MustCompile(`(?i)subscri(?:ption|bed|ber)`),
		Recurring:    regexp.MustCompile(`(?i)recurring|auto[- ]?renew|billing|payment|invoice|receipt`),
		Price:        regexp.MustCompile(`(?i)(?:[$€£]|usd|eur|gbp)\s*(\d+(?:[.,]\d{1,2})?)`),
		Confirmation: regexp.MustCompile(`(?i)confirm(?:ation|ed)?|welcome|thank you`),

		Yearly:  regexp.MustCompile(`(?i)\b(?:yearly|annual(?:ly)?|per year)\b|/y(?:ea)?r\b`),
		Monthly: regexp.MustCompile(`(?i)\b(?:monthly|per month)\b|/mo(?:nth)?\b`),
	}
}
