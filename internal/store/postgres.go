package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/renewly/renewly/internal/store/migrations"
)

const (
	// upsertBatchSize bounds the number of rows written per statement.
	upsertBatchSize = 50

	retryAttempts = 3
	retryDelay    = 2 * time.Second
)

// PostgresRepository implements Repository over a DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db DBTX, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Open opens a pgx-backed database handle for the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Upsert writes subscriptions in batches of upsertBatchSize. Each batch is
// retried with backoff; retrying is safe because the conflict-key upsert is
// idempotent for the same rows. A batch that still fails aborts the remaining
// batches. Already-written batches stand.
func (r *PostgresRepository) Upsert(ctx context.Context, subs []Subscription) (int, error) {
	written := 0
	for start := 0; start < len(subs); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(subs) {
			end = len(subs)
		}
		batch := subs[start:end]

		err := retry.Do(
			func() error {
				return r.upsertBatch(ctx, batch)
			},
			retry.Attempts(retryAttempts),
			retry.Delay(retryDelay),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				r.logger.Warn("retrying subscription batch upsert", "attempt", n, "batch_start", start, "error", err)
			}),
		)
		if err != nil {
			return written, fmt.Errorf("failed to upsert batch starting at %d: %w", start, err)
		}
		written += len(batch)
	}
	return written, nil
}

func (r *PostgresRepository) upsertBatch(ctx context.Context, batch []Subscription) error {
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*5)
	for i, s := range batch {
		base := i * 5
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, s.UserID, s.Provider, s.Price, s.Frequency, s.LastDetectedDate)
	}

	query := `
		INSERT INTO subscriptions (user_id, provider, price, frequency, last_detected_date)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			price = EXCLUDED.price,
			frequency = EXCLUDED.frequency,
			last_detected_date = EXCLUDED.last_detected_date,
			updated_at = now();
	`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns all subscription rows for a user ordered by provider.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Subscription, error) {
	query := `
		SELECT user_id, provider, price, frequency, last_detected_date, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY provider;
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subscriptions: %w", err)
	}
	defer rows.Close()

	var result []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the row for a (user, provider) pair, or ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID, provider string) (*Subscription, error) {
	query := `
		SELECT user_id, provider, price, frequency, last_detected_date, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND provider = $2;
	`
	row := r.db.QueryRowContext(ctx, query, userID, provider)

	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanSubscription.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var (
		s     Subscription
		price sql.NullFloat64
	)
	if err := row.Scan(&s.UserID, &s.Provider, &price, &s.Frequency,
		&s.LastDetectedDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	if price.Valid {
		s.Price = &price.Float64
	}
	return &s, nil
}
