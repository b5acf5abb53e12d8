// Package scan implements the subscription detection pipeline.
//
// A scan is one end-to-end execution for one user: validate the access token,
// build the mailbox search query, list matching message IDs, fetch message
// metadata in bounded batches, extract subscription candidates with the
// heuristic rule set, deduplicate by provider, detect price changes against
// previously stored records and upsert the surviving candidates.
//
// Failure handling follows a strict taxonomy: an expired authorization halts
// the scan immediately (google.ErrAuthExpired), a listing failure aborts the
// scan after retry exhaustion (ErrFetch), a store failure aborts remaining
// write batches without undoing earlier ones (ErrStore), and a failure on any
// individual message is logged and skipped, never escalated.
package scan
