package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewly/renewly/internal/gmail"
)

// fakeMailbox serves canned message details and can fail specific IDs.
type fakeMailbox struct {
	mu       sync.Mutex
	refs     []gmail.MessageRef
	details  map[string]*gmail.MessageDetail
	failIDs  map[string]bool
	listErr  error
	inFlight int
	maxSeen  int
	getCalls int
}

func (f *fakeMailbox) ListMessageRefs(_ context.Context, _ string, max int64) ([]gmail.MessageRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	refs := f.refs
	if int64(len(refs)) > max {
		refs = refs[:max]
	}
	return refs, nil
}

func (f *fakeMailbox) GetMessageDetail(_ context.Context, id string) (*gmail.MessageDetail, error) {
	f.mu.Lock()
	f.getCalls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	// Let concurrent fetches within a batch overlap.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.failIDs[id] {
		return nil, errors.New("permanent fetch error")
	}
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("no such message")
	}
	return d, nil
}

func refsFor(details ...*gmail.MessageDetail) ([]gmail.MessageRef, map[string]*gmail.MessageDetail) {
	refs := make([]gmail.MessageRef, len(details))
	byID := make(map[string]*gmail.MessageDetail, len(details))
	for i, d := range details {
		refs[i] = gmail.MessageRef{ID: d.ID}
		byID[d.ID] = d
	}
	return refs, byID
}

func TestExtract_NetflixReceipt(t *testing.T) {
	detail := &gmail.MessageDetail{
		ID:      "m1",
		Subject: "Your Netflix subscription receipt — $15.99",
		From:    "billing@netflix.com",
		Date:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	refs, byID := refsFor(detail)
	mb := &fakeMailbox{details: byID}

	e := NewExtractor(mb, DefaultRules(), nil, nil)
	candidates := e.Extract(context.Background(), refs)

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "netflix", c.Provider)
	assert.Equal(t, TypeSubscription, c.Type)
	require.NotNil(t, c.Price)
	assert.InDelta(t, 15.99, *c.Price, 0.001)
	assert.Equal(t, FrequencyMonthly, c.Frequency)
	assert.Equal(t, "m1", c.SourceMessageID)
	assert.Equal(t, detail.Date, c.DetectedAt)
}

func TestExtract_Heuristics(t *testing.T) {
	tests := []struct {
		name          string
		subject       string
		from          string
		snippet       string
		wantProvider  string
		wantType      CandidateType
		wantPrice     *float64
		wantFrequency Frequency
		wantDropped   bool
	}{
		{
			name:          "yearly adobe invoice",
			subject:       "Adobe Creative Cloud annual invoice",
			from:          "mail@adobe.com",
			snippet:       "Amount due: $599.88 for your annual plan",
			wantProvider:  "adobe",
			wantType:      TypeRecurring, // "invoice" is not a subscription keyword
			wantPrice:     price(599.88),
			wantFrequency: FrequencyYearly,
		},
		{
			name:          "recurring payment without price",
			subject:       "Recurring payment scheduled",
			from:          "no-reply@spotify.com",
			wantProvider:  "spotify",
			wantType:      TypeRecurring,
			wantFrequency: FrequencyMonthly,
		},
		{
			name:          "price only",
			subject:       "€9,99 due next week",
			from:          "billing@dropbox.com",
			wantProvider:  "dropbox",
			wantType:      TypePrice,
			wantPrice:     price(9.99),
			wantFrequency: FrequencyMonthly,
		},
		{
			name:          "confirmation only",
			subject:       "Welcome! Your account is confirmed",
			from:          "hello@notion.so",
			wantProvider:  "notion",
			wantType:      TypeConfirmation,
			wantFrequency: FrequencyMonthly,
		},
		{
			name:          "unknown sender falls back to first domain label",
			subject:       "Your subscription is active",
			from:          "billing@acme.com",
			wantProvider:  "acme",
			wantType:      TypeSubscription,
			wantFrequency: FrequencyMonthly,
		},
		{
			name:          "display-name sender address is parsed",
			subject:       "Monthly subscription payment",
			from:          "Netflix <info@mailer.netflix.com>",
			wantProvider:  "netflix",
			wantType:      TypeSubscription,
			wantFrequency: FrequencyMonthly,
		},
		{
			name:          "no sender, subject alias resolves provider",
			subject:       "Your Spotify Premium payment",
			from:          "",
			wantProvider:  "spotify",
			wantType:      TypeSubscription, // "premium" snippet mentions subscription below
			snippet:       "subscription renews soon",
			wantFrequency: FrequencyMonthly,
		},
		{
			name:        "no provider resolvable",
			subject:     "Lunch on Friday?",
			from:        "",
			wantDropped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := &gmail.MessageDetail{
				ID:      "m1",
				Subject: tt.subject,
				From:    tt.from,
				Snippet: tt.snippet,
				Date:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			}
			refs, byID := refsFor(detail)
			e := NewExtractor(&fakeMailbox{details: byID}, DefaultRules(), nil, nil)

			candidates := e.Extract(context.Background(), refs)

			if tt.wantDropped {
				assert.Empty(t, candidates)
				return
			}
			require.Len(t, candidates, 1)
			c := candidates[0]
			assert.Equal(t, tt.wantProvider, c.Provider)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantFrequency, c.Frequency)
			if tt.wantPrice == nil {
				assert.Nil(t, c.Price)
			} else {
				require.NotNil(t, c.Price)
				assert.InDelta(t, *tt.wantPrice, *c.Price, 0.001)
			}
		})
	}
}

func TestExtract_BatchIsolation(t *testing.T) {
	// Message 7 of a 10-message batch fails; the other 9 still produce
	// candidates.
	var details []*gmail.MessageDetail
	for i := 1; i <= 10; i++ {
		details = append(details, &gmail.MessageDetail{
			ID:      fmt.Sprintf("m%d", i),
			Subject: fmt.Sprintf("Subscription receipt %d", i),
			From:    fmt.Sprintf("billing@provider%d.com", i),
		})
	}
	refs, byID := refsFor(details...)
	mb := &fakeMailbox{details: byID, failIDs: map[string]bool{"m7": true}}

	e := NewExtractor(mb, DefaultRules(), nil, nil)
	candidates := e.Extract(context.Background(), refs)

	require.Len(t, candidates, 9)
	for _, c := range candidates {
		assert.NotEqual(t, "m7", c.SourceMessageID)
	}
}

func TestExtract_ResultsKeepListingOrder(t *testing.T) {
	// 25 messages, three batches; despite concurrent fetches the candidate
	// order must equal the listing order.
	var details []*gmail.MessageDetail
	for i := 0; i < 25; i++ {
		details = append(details, &gmail.MessageDetail{
			ID:      fmt.Sprintf("m%02d", i),
			Subject: "Subscription",
			From:    fmt.Sprintf("billing@provider%02d.com", i),
		})
	}
	refs, byID := refsFor(details...)
	mb := &fakeMailbox{details: byID}

	e := NewExtractor(mb, DefaultRules(), nil, nil)
	candidates := e.Extract(context.Background(), refs)

	require.Len(t, candidates, 25)
	for i, c := range candidates {
		assert.Equal(t, fmt.Sprintf("m%02d", i), c.SourceMessageID)
	}
	assert.LessOrEqual(t, mb.maxSeen, batchSize, "concurrent fetches must stay within one batch")
}

func TestSenderDomain(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"billing@netflix.com", "netflix.com"},
		{"Netflix <info@mailer.netflix.com>", "mailer.netflix.com"},
		{"UPPER@CASE.COM", "case.com"},
		{"not-an-address", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, senderDomain(tt.from), "from %q", tt.from)
	}
}

func price(v float64) *float64 { return &v }
