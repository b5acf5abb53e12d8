package scan

import (
	"context"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/renewly/renewly/internal/gmail"
	"github.com/renewly/renewly/internal/instrumentation"
)

// batchSize bounds the number of concurrent message-detail fetches. Batch N+1
// does not start until every fetch of batch N has resolved.
const batchSize = 10

// Mailbox is the provider surface the extraction pipeline depends on.
// Implemented by gmail.Client; tests substitute a fake.
type Mailbox interface {
	ListMessageRefs(ctx context.Context, query string, max int64) ([]gmail.MessageRef, error)
	GetMessageDetail(ctx context.Context, id string) (*gmail.MessageDetail, error)
}

// Extractor fetches message details in bounded batches and applies the
// heuristic rule set to each message.
type Extractor struct {
	mailbox Mailbox
	rules   RuleSet
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// now is a clock seam for messages without a usable date.
	now func() time.Time
}

// NewExtractor creates an Extractor over the given mailbox and rules.
func NewExtractor(mailbox Mailbox, rules RuleSet, logger *slog.Logger, metrics *instrumentation.Metrics) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		mailbox: mailbox,
		rules:   rules,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Extract processes message refs in fixed-size batches. Within a batch all
// detail fetches run concurrently; the results are reassembled into listing
// order so that downstream deduplication stays deterministic. A failure
// fetching or parsing a single message is logged and that message is skipped;
// it never aborts the batch or the scan.
func (e *Extractor) Extract(ctx context.Context, refs []gmail.MessageRef) []Candidate {
	var candidates []Candidate

	for start := 0; start < len(refs); start += batchSize {
		end := start + batchSize
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		details := make([]*gmail.MessageDetail, len(batch))
		var wg sync.WaitGroup
		for i, ref := range batch {
			wg.Add(1)
			go func(i int, ref gmail.MessageRef) {
				defer wg.Done()
				d, err := e.mailbox.GetMessageDetail(ctx, ref.ID)
				if err != nil {
					e.logger.Warn("skipping message after fetch failure",
						"message_id", ref.ID, "error", err)
					e.metrics.RecordExtractionFailure(ctx)
					return
				}
				details[i] = d
			}(i, ref)
		}
		wg.Wait()

		for _, d := range details {
			if d == nil {
				continue
			}
			if c := e.extractCandidate(d); c != nil {
				candidates = append(candidates, *c)
			}
		}
	}

	return candidates
}

// extractCandidate applies the heuristics to one message. A message that
// resolves to no provider produces no candidate.
func (e *Extractor) extractCandidate(d *gmail.MessageDetail) *Candidate {
	text := strings.ToLower(d.Subject + " " + d.Snippet)

	provider := e.resolveProvider(d.From, text)
	if provider == "" {
		return nil
	}

	detectedAt := d.Date
	if detectedAt.IsZero() {
		detectedAt = e.now()
	}

	c := &Candidate{
		Provider:        provider,
		Frequency:       FrequencyMonthly,
		DetectedAt:      detectedAt,
		SourceMessageID: d.ID,
	}

	// First matching pattern sets the type.
	switch {
	case e.rules.Subscription.MatchString(text):
		c.Type = TypeSubscription
	case e.rules.Recurring.MatchString(text):
		c.Type = TypeRecurring
	case e.rules.Price.MatchString(text):
		c.Type = TypePrice
	case e.rules.Confirmation.MatchString(text):
		c.Type = TypeConfirmation
	}

	// A price match sets the price regardless of the type outcome.
	if m := e.rules.Price.FindStringSubmatch(text); m != nil {
		if v, err := parsePrice(m[1]); err == nil {
			c.Price = &v
		}
	}

	switch {
	case e.rules.Yearly.MatchString(text):
		c.Frequency = FrequencyYearly
	case e.rules.Monthly.MatchString(text):
		c.Frequency = FrequencyMonthly
	}

	return c
}

// resolveProvider resolves the provider name, in order: known-domain alias
// match, first label of the sender's domain, subject alias match when the
// sender yielded nothing.
func (e *Extractor) resolveProvider(from, text string) string {
	domain := senderDomain(from)
	if domain != "" {
		for _, a := range e.rules.Aliases {
			if strings.Contains(domain, a.Match) {
				return a.Provider
			}
		}
		if label, _, ok := strings.Cut(domain, "."); ok && label != "" {
			return label
		}
		return domain
	}

	for _, a := range e.rules.Aliases {
		if strings.Contains(text, a.Match) {
			return a.Provider
		}
	}
	return ""
}

// senderDomain extracts the lowercase domain of a From header value.
func senderDomain(from string) string {
	if from == "" {
		return ""
	}
	addr := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		addr = parsed.Address
	}
	_, domain, ok := strings.Cut(addr, "@")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}

// parsePrice parses the numeric part of a currency-amount match.
func parsePrice(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}
