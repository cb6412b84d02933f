package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// FileJournal keeps one JSON file of entries per document.
type FileJournal struct {
	root string
	mu   sync.RWMutex
}

// NewFileJournal builds a journal in the provided root directory.
func NewFileJournal(root string) (*FileJournal, error) {
	if root == "" {
		return nil, errors.New("journal root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileJournal{root: root}, nil
}

func (j *FileJournal) pathFor(document string) string {
	base := strings.TrimSuffix(filepath.Base(document), ".ast.json")
	sum := xxhash.Sum64String(document)
	return filepath.Join(j.root, base+"-"+strconv.FormatUint(sum, 16)+".journal.json")
}

// Record appends entry to the document's file.
func (j *FileJournal) Record(ctx context.Context, entry Entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := validate(&entry); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	existing, err := j.read(entry.Document)
	if err != nil {
		return err
	}
	entry.ID = int64(len(existing) + 1)
	existing = append(existing, entry)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.pathFor(entry.Document), data, 0o644)
}

// History returns the newest limit entries of document, oldest first.
func (j *FileJournal) History(ctx context.Context, document string, limit int) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	entries, err := j.read(document)
	if err != nil {
		return nil, err
	}
	return tail(entries, limit), nil
}

// Close is a no-op; every Record is flushed.
func (j *FileJournal) Close() error {
	return nil
}

func (j *FileJournal) read(document string) ([]Entry, error) {
	data, err := os.ReadFile(j.pathFor(document))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
