package scan

import "errors"

// Scan error taxonomy. An auth failure surfaces as google.ErrAuthExpired and
// is never wrapped in either of these.
var (
	// ErrFetch indicates the mailbox listing failed after retry
	// exhaustion. The scan aborts; a manual retry is safe.
	ErrFetch = errors.New("scan: mailbox fetch failed")

	// ErrStore indicates a store write or read failed. Write batches that
	// completed before the failure are not rolled back.
	ErrStore = errors.New("scan: subscription store failed")
)
