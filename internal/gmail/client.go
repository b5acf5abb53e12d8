package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	// callTimeout bounds every single outbound Gmail API call.
	callTimeout = 30 * time.Second

	// maxPageSize is the largest page the Gmail list endpoint accepts.
	maxPageSize = 100

	// retryAttempts and retryDelay configure the backoff applied to
	// outbound calls. A timed-out call counts as a failed attempt.
	retryAttempts = 3
	retryDelay    = 2 * time.Second
	retryMaxDelay = 30 * time.Second
)

// metadataHeaders are the only message headers the scan pipeline needs.
var metadataHeaders = []string{"Subject", "From", "Date"}

// Client wraps the Gmail Users service for read-only scanning.
type Client struct {
	svc    *gmail.UsersService
	logger *slog.Logger
}

// NewClient creates a Gmail client authenticated with the given access token.
// The token must already be validated; the client does not refresh it.
func NewClient(ctx context.Context, token *oauth2.Token, logger *slog.Logger) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return newClient(svc, logger), nil
}

// NewClientWithOptions creates a client with raw client options. Used by tests
// to point the service at a local server.
func NewClientWithOptions(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return newClient(svc, logger), nil
}

func newClient(svc *gmail.Service, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:    svc.Users,
		logger: logger,
	}
}

// ListMessageRefs lists IDs of messages matching the query with pagination.
// It keeps requesting pages until the provider returns no next-page token or
// the cumulative count reaches max. The ceiling bounds worst-case scan
// latency, not data validity. A listing failure after retry exhaustion
// propagates to the caller; no partial results are silently dropped here.
func (c *Client) ListMessageRefs(ctx context.Context, query string, max int64) ([]MessageRef, error) {
	var refs []MessageRef
	pageToken := ""

	for {
		remaining := max - int64(len(refs))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		var res *gmail.ListMessagesResponse
		err := retry.Do(
			func() error {
				tctx, cancel := context.WithTimeout(ctx, callTimeout)
				defer cancel()

				req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize)
				if pageToken != "" {
					req = req.PageToken(pageToken)
				}

				var callErr error
				res, callErr = req.Context(tctx).Do()
				return callErr
			},
			retry.Attempts(retryAttempts),
			retry.Delay(retryDelay),
			retry.MaxDelay(retryMaxDelay),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				c.logger.Warn("retrying message listing", "attempt", n, "error", err)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range res.Messages {
			refs = append(refs, MessageRef{ID: m.Id, PageToken: pageToken})
		}

		if res.NextPageToken == "" || int64(len(refs)) >= max {
			break
		}
		pageToken = res.NextPageToken
	}

	// Trim to the exact ceiling if the last page overshot
	if int64(len(refs)) > max {
		refs = refs[:max]
	}

	return refs, nil
}

// GetMessageDetail fetches the metadata projection of a single message.
func (c *Client) GetMessageDetail(ctx context.Context, id string) (*MessageDetail, error) {
	var msg *gmail.Message
	err := retry.Do(
		func() error {
			tctx, cancel := context.WithTimeout(ctx, callTimeout)
			defer cancel()

			var callErr error
			msg, callErr = c.svc.Messages.Get("me", id).
				Format("metadata").
				MetadataHeaders(metadataHeaders...).
				Context(tctx).Do()
			return callErr
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying message fetch", "message_id", id, "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return detailFromMessage(msg), nil
}
