package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Frequency values stored on a subscription row.
const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// ErrNotFound is returned when no row exists for a (user, provider) pair.
var ErrNotFound = errors.New("store: subscription not found")

// Subscription is a persisted subscription record. There is exactly one row
// per (UserID, Provider); the row is created on first detection, mutated on
// every later detection and never deleted by the scanner.
type Subscription struct {
	UserID           string
	Provider         string
	Price            *float64
	Frequency        string
	LastDetectedDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository is the persistence contract the scan pipeline depends on.
type Repository interface {
	// Upsert writes the subscriptions in fixed-size batches. On conflict of
	// (UserID, Provider) the existing row's price, frequency and detection
	// date are overwritten; CreatedAt is preserved. Returns the number of
	// rows written before the first failing batch.
	Upsert(ctx context.Context, subs []Subscription) (int, error)

	// ListByUser returns all subscription rows for a user, ordered by
	// provider.
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)

	// Get returns the row for a (user, provider) pair, or ErrNotFound.
	Get(ctx context.Context, userID, provider string) (*Subscription, error)
}

// DBTX is the subset of database/sql used by the PostgreSQL repository.
// Satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
