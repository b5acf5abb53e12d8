package gmail

import (
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

// MessageRef identifies a single message in a paginated listing.
// Refs are transient: produced by ListMessageRefs and consumed once by the
// extraction layer.
type MessageRef struct {
	ID        string
	PageToken string // listing page the ref came from, opaque
}

// MessageDetail is the per-message metadata projection the extraction
// heuristics operate on. It is never persisted directly.
type MessageDetail struct {
	ID      string
	Subject string
	From    string
	Date    time.Time
	Snippet string
}

// HeaderValue extracts a header value from a Gmail message payload.
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if mph.Name == header {
			return mph.Value
		}
	}
	return ""
}

// messageDate converts the Gmail internal timestamp (epoch millis) to a
// time.Time, falling back to the zero value when absent.
func messageDate(m *gmail.Message) time.Time {
	if m.InternalDate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.InternalDate).UTC()
}

// detailFromMessage builds the metadata projection for a fetched message.
func detailFromMessage(m *gmail.Message) *MessageDetail {
	return &MessageDetail{
		ID:      m.Id,
		Subject: HeaderValue(m, "Subject"),
		From:    HeaderValue(m, "From"),
		Date:    messageDate(m),
		Snippet: m.Snippet,
	}
}
