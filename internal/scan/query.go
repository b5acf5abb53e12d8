package scan

import "strings"

// BuildQuery constructs the Gmail search expression for a rule set: subject
// contains any of the configured keywords, or the sender matches one of the
// configured provider domains. Pure function, no network or state.
func BuildQuery(rules RuleSet) string {
	var b strings.Builder

	b.WriteString("subject:(")
	b.WriteString(strings.Join(rules.SubjectKeywords, " OR "))
	b.WriteString(")")

	if len(rules.ProviderDomains) > 0 {
		b.WriteString(" OR from:(")
		b.WriteString(strings.Join(rules.ProviderDomains, " OR "))
		b.WriteString(")")
	}

	return b.String()
}
