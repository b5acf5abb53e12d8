package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeUser(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "regular id", id: "user-123"},
		{name: "email-shaped id", id: "someone@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeUser(tt.id)
			assert.True(t, strings.HasPrefix(got, "user:"))
			assert.NotContains(t, got, tt.id)
			// Deterministic so log entries can be correlated.
			assert.Equal(t, got, AnonymizeUser(tt.id))
		})
	}
}

func TestAnonymizeUser_Empty(t *testing.T) {
	assert.Equal(t, "", AnonymizeUser(""))
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	got := SanitizeToken("ya29.secret-token")
	assert.NotContains(t, got, "secret")
	assert.Equal(t, "[token:17 chars]", got)
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"billing@netflix.com", "netflix.com"},
		{"no-at-sign", ""},
		{"", ""},
		{"two@at@signs", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDomain(tt.email), "email %q", tt.email)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	// nil errors produce an omittable empty group
	attr = Err(nil)
	assert.Equal(t, "", attr.Key)
}

func TestWithOperation(t *testing.T) {
	logger := WithOperation(slog.Default(), "scan")
	assert.NotNil(t, logger)
}
