package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/renewly/renewly/internal/google"
	"github.com/renewly/renewly/internal/instrumentation"
	"github.com/renewly/renewly/internal/scan"
	"github.com/renewly/renewly/internal/store"
)

func newScanCmd() *cobra.Command {
	var (
		userID       string
		accessToken  string
		refreshToken string
		databaseURL  string
		dryRun       bool
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one subscription scan for a user",
		Long: `Scan the user's Gmail mailbox for recurring-payment signals and upsert the
detected subscriptions into the store.

The access and refresh tokens may be passed via flags, the RENEWLY_ACCESS_TOKEN
and RENEWLY_REFRESH_TOKEN environment variables, or the CLI token cache. With
--dry-run the results are written to an in-memory store and only printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel)
			slog.SetDefault(logger)

			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			token, err := resolveToken(accessToken, refreshToken)
			if err != nil {
				return err
			}

			repo, cleanup, err := openStore(databaseURL, dryRun, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			metrics, err := instrumentation.Default()
			if err != nil {
				return fmt.Errorf("failed to initialize metrics: %w", err)
			}

			scanner := scan.NewScanner(scan.Config{
				Guard:   google.NewGuard(google.OAuthConfig(), logger),
				Store:   repo,
				Logger:  logger,
				Metrics: metrics,
			})

			result, err := scanner.Scan(cmd.Context(), userID, token)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user identifier the subscriptions belong to")
	cmd.Flags().StringVar(&accessToken, "access-token", os.Getenv("RENEWLY_ACCESS_TOKEN"), "delegated Gmail access token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", os.Getenv("RENEWLY_REFRESH_TOKEN"), "OAuth refresh token")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL DSN for the subscription store")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use an in-memory store and only print results")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// resolveToken assembles the token pair from flags, falling back to the CLI
// token cache.
func resolveToken(accessToken, refreshToken string) (*oauth2.Token, error) {
	if accessToken == "" && refreshToken == "" {
		if !google.HasToken() {
			return nil, fmt.Errorf("no token supplied and no cached token found; pass --access-token/--refresh-token")
		}
		return google.LoadToken()
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
	}
	if accessToken != "" {
		// An access token passed in from outside is assumed fresh; the
		// guard refreshes it on the first 401-shaped expiry anyway.
		token.Expiry = time.Now().Add(30 * time.Minute)
	}
	return token, nil
}

// openStore opens the configured repository. The returned cleanup closes the
// underlying database handle when one was opened.
func openStore(databaseURL string, dryRun bool, logger *slog.Logger) (store.Repository, func(), error) {
	if dryRun {
		return store.NewMemoryRepository(), func() {}, nil
	}
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("--database-url (or DATABASE_URL) is required unless --dry-run is set")
	}

	db, err := store.Open(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewPostgresRepository(db, logger), func() { db.Close() }, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
