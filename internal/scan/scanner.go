package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/renewly/renewly/internal/gmail"
	"github.com/renewly/renewly/internal/google"
	"github.com/renewly/renewly/internal/instrumentation"
	"github.com/renewly/renewly/internal/logging"
	"github.com/renewly/renewly/internal/store"
)

// MaxMessages is the hard ceiling on messages processed per scan. It bounds
// worst-case scan latency and API cost, not data validity.
const MaxMessages = 500

// MailboxFactory builds a Mailbox from a validated access token.
type MailboxFactory func(ctx context.Context, token *oauth2.Token) (Mailbox, error)

// Config assembles a Scanner's collaborators. The scanner holds no
// package-level mutable state; everything it needs is constructed by the
// caller and passed in here.
type Config struct {
	Guard *google.Guard
	Store store.Repository

	// Rules defaults to DefaultRules() when the zero value.
	Rules RuleSet

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// NewMailbox defaults to the Gmail client. Tests substitute a fake.
	NewMailbox MailboxFactory
}

// Scanner runs the end-to-end subscription detection pipeline for one user at
// a time.
type Scanner struct {
	guard      *google.Guard
	store      store.Repository
	rules      RuleSet
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	newMailbox MailboxFactory
}

// NewScanner creates a Scanner from the given configuration.
func NewScanner(cfg Config) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := cfg.Rules
	if rules.Version == "" {
		rules = DefaultRules()
	}
	newMailbox := cfg.NewMailbox
	if newMailbox == nil {
		newMailbox = func(ctx context.Context, token *oauth2.Token) (Mailbox, error) {
			return gmail.NewClient(ctx, token, logger)
		}
	}
	return &Scanner{
		guard:      cfg.Guard,
		store:      cfg.Store,
		rules:      rules,
		logger:     logger,
		metrics:    cfg.Metrics,
		newMailbox: newMailbox,
	}
}

// Scan executes one scan for the given user. It returns the persisted
// subscription set and the price changes this scan detected, or exactly one
// classified error: google.ErrAuthExpired (re-consent required), ErrFetch or
// ErrStore (manual retry is safe).
func (s *Scanner) Scan(ctx context.Context, userID string, token *oauth2.Token) (*Result, error) {
	start := time.Now()
	logger := s.logger.With(logging.ScanID(uuid.NewString()), logging.UserHash(userID))
	logger.Info("starting mailbox scan", "rules_version", s.rules.Version)

	result, err := s.scan(ctx, logger, userID, token)
	if err != nil {
		s.metrics.RecordScan(ctx, logging.StatusError, time.Since(start))
		return nil, err
	}

	s.metrics.RecordScan(ctx, logging.StatusSuccess, time.Since(start))
	logger.Info("mailbox scan completed",
		"subscriptions", len(result.Subscriptions),
		"written", result.Count,
		"price_changes", len(result.PriceChanges),
		logging.KeyDuration, time.Since(start))
	return result, nil
}

func (s *Scanner) scan(ctx context.Context, logger *slog.Logger, userID string, token *oauth2.Token) (*Result, error) {
	// Auth errors halt the scan immediately, no retry.
	token, err := s.guard.EnsureValid(ctx, token)
	if err != nil {
		return nil, err
	}

	mailbox, err := s.newMailbox(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	query := BuildQuery(s.rules)
	refs, err := mailbox.ListMessageRefs(ctx, query, MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	logger.Debug("listed matching messages", "count", len(refs))

	extractor := NewExtractor(mailbox, s.rules, logger, s.metrics)
	candidates := Dedupe(extractor.Extract(ctx, refs))
	s.metrics.RecordMessagesProcessed(ctx, len(refs))

	// Read previous prices before the same-scan upsert so the comparison
	// baseline is the state the user last saw.
	previous, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	prevByProvider := make(map[string]store.Subscription, len(previous))
	for _, p := range previous {
		prevByProvider[p.Provider] = p
	}

	var changes []PriceChange
	for _, c := range candidates {
		if prev, ok := prevByProvider[c.Provider]; ok {
			if pc := DetectPriceChange(&prev, c); pc != nil {
				logger.Info("price change detected",
					logging.Provider(pc.Provider),
					"old_price", pc.OldPrice, "new_price", pc.NewPrice)
				changes = append(changes, *pc)
			}
		}
	}
	s.metrics.RecordPriceChanges(ctx, len(changes))

	count, err := s.store.Upsert(ctx, toRows(userID, candidates))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	subscriptions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return &Result{
		Subscriptions: subscriptions,
		Count:         count,
		PriceChanges:  changes,
	}, nil
}

// toRows converts deduplicated candidates into store rows for one user.
func toRows(userID string, candidates []Candidate) []store.Subscription {
	rows := make([]store.Subscription, len(candidates))
	for i, c := range candidates {
		rows[i] = store.Subscription{
			UserID:           userID,
			Provider:         c.Provider,
			Price:            c.Price,
			Frequency:        string(c.Frequency),
			LastDetectedDate: c.DetectedAt,
		}
	}
	return rows
}
