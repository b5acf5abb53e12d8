package scan

// Dedupe collapses multiple candidates for the same provider into one,
// first-detected-wins. Input order must equal the mailbox listing order, so
// the outcome is deterministic given the same upstream listing.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	result := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if seen[c.Provider] {
			continue
		}
		seen[c.Provider] = true
		result = append(result, c)
	}

	return result
}
