package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_FirstDetectedWins(t *testing.T) {
	candidates := []Candidate{
		{Provider: "netflix", Price: price(15.99), SourceMessageID: "m1"},
		{Provider: "spotify", SourceMessageID: "m2"},
		{Provider: "netflix", Price: price(17.99), SourceMessageID: "m3"},
		{Provider: "spotify", SourceMessageID: "m4"},
	}

	got := Dedupe(candidates)

	require.Len(t, got, 2)
	// Later candidates for the same provider are dropped, not merged.
	assert.Equal(t, "m1", got[0].SourceMessageID)
	assert.InDelta(t, 15.99, *got[0].Price, 0.001)
	assert.Equal(t, "m2", got[1].SourceMessageID)
}

func TestDedupe_PreservesInputOrder(t *testing.T) {
	candidates := []Candidate{
		{Provider: "c"}, {Provider: "a"}, {Provider: "b"}, {Provider: "a"},
	}

	got := Dedupe(candidates)

	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Provider)
	assert.Equal(t, "a", got[1].Provider)
	assert.Equal(t, "b", got[2].Provider)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
