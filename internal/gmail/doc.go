// Package gmail provides a read-only client for the Gmail API used by the
// subscription scan pipeline.
//
// The client offers exactly the two calls the pipeline needs:
//   - ListMessageRefs: paginated message-ID listing for a search query,
//     bounded by a caller-supplied ceiling
//   - GetMessageDetail: a small metadata projection of a single message
//     (subject, sender, date, snippet)
//
// All outbound calls carry a per-call timeout and are wrapped in an
// exponential-backoff retry. Listing failures propagate to the caller after
// the retry budget is exhausted; deciding what to do about a failed individual
// message is left to the extraction layer.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, token, logger)
//	if err != nil {
//	    return err
//	}
//	refs, err := client.ListMessageRefs(ctx, "subject:(subscription)", 500)
package gmail
