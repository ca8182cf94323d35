// Package mail defines the mailbox boundary consumed by the ingestion
// pipeline. Only the contract lives here; the Gmail transport is in the
// gmail subpackage.
package mail

import (
	"context"
	"fmt"
)

type (
	// Header is a single message header.
	Header struct {
		Name  string
		Value string
	}

	// Part is a MIME body part. Data carries the part body encoded with
	// the URL-safe base64 variant, exactly as the provider returns it.
	Part struct {
		MimeType string
		Data     string
	}

	// Message is a transport-agnostic mailbox message.
	Message struct {
		ID      string
		Headers []Header
		Parts   []Part
	}

	// Source is the mailbox contract: query, fetch, and the durable
	// synced-state label used for dedup.
	Source interface {
		// Search returns the IDs of every message matching query,
		// following pagination until exhausted.
		Search(ctx context.Context, query string) ([]string, error)

		// Fetch returns the full message including headers and body parts.
		Fetch(ctx context.Context, id string) (Message, error)

		// EnsureLabel returns the ID of the label with the given name,
		// creating it when absent. A creation race that reports the label
		// already exists is resolved by listing labels. Any other failure
		// is a *LabelError.
		EnsureLabel(ctx context.Context, name string) (string, error)

		// ApplyLabel adds the label to every message in ids with a single
		// batch call.
		ApplyLabel(ctx context.Context, ids []string, labelID string) error
	}
)

// Subject returns the message's Subject header, if present.
func (m Message) Subject() (string, bool) {
	for _, h := range m.Headers {
		if h.Name == "Subject" {
			return h.Value, true
		}
	}
	return "", false
}

// LabelError signals that the sync label could not be resolved. The
// pipeline treats it as fatal for the whole run: without a working
// dedup marker no message may be ingested.
type LabelError struct {
	Name string
	Err  error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("resolve label %q: %v", e.Name, e.Err)
}

func (e *LabelError) Unwrap() error {
	return e.Err
}
