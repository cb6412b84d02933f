// Package persistence records the edit history of documents.
package persistence

import (
	"context"
	"errors"
	"time"
)

// Entry is one command applied (or skipped) in an editing session.
type Entry struct {
	ID          int64     `json:"id"`
	Document    string    `json:"document"`
	Command     string    `json:"command"`
	NodeID      string    `json:"nodeId"`
	FocusID     string    `json:"focusId,omitempty"`
	Applied     bool      `json:"applied"`
	Fingerprint uint64    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Journal stores entries per document.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	// History returns the newest limit entries of document, oldest first. A
	// limit of zero or less returns everything.
	History(ctx context.Context, document string, limit int) ([]Entry, error)
	Close() error
}

var errDocumentRequired = errors.New("document required")

func validate(entry *Entry) error {
	if entry.Document == "" {
		return errDocumentRequired
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return nil
}

func tail(entries []Entry, limit int) []Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}
