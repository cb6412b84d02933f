package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal keeps the journal in a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens/creates the database at dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS edits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL,
		command TEXT NOT NULL,
		node_id TEXT,
		focus_id TEXT,
		applied BOOLEAN,
		fingerprint TEXT,
		created_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS edits_document ON edits(document, id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (j *SQLiteJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends entry.
func (j *SQLiteJournal) Record(ctx context.Context, entry Entry) error {
	if err := validate(&entry); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO edits (document, command, node_id, focus_id, applied, fingerprint, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Document,
		entry.Command,
		entry.NodeID,
		entry.FocusID,
		entry.Applied,
		strconv.FormatUint(entry.Fingerprint, 16),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", entry.Command, err)
	}
	return nil
}

// History returns the newest limit entries of document, oldest first.
func (j *SQLiteJournal) History(ctx context.Context, document string, limit int) ([]Entry, error) {
	query := `
	SELECT id, document, command, node_id, focus_id, applied, fingerprint, created_at
	FROM edits WHERE document = ? ORDER BY id DESC`
	args := []interface{}{document}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for l, r := 0, len(entries)-1; l < r; l, r = l+1, r-1 {
		entries[l], entries[r] = entries[r], entries[l]
	}
	return entries, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			nodeID      sql.NullString
			focusID     sql.NullString
			fingerprint sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Document, &e.Command, &nodeID, &focusID, &e.Applied, &fingerprint, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.NodeID = nodeID.String
		e.FocusID = focusID.String
		if fingerprint.Valid {
			fp, err := strconv.ParseUint(fingerprint.String, 16, 64)
			if err != nil {
				return nil, fmt.Errorf("fingerprint %q: %w", fingerprint.String, err)
			}
			e.Fingerprint = fp
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
