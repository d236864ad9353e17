package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the library in a SQLite table. Every save rewrites the
// whole table inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS prompts (
		position  INTEGER PRIMARY KEY,
		title     TEXT NOT NULL,
		prompt    TEXT NOT NULL,
		tags      TEXT NOT NULL DEFAULT '[]',
		timestamp TEXT NOT NULL
	);`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns all entries in saved order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, prompt, tags, timestamp FROM prompts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query prompts: %v", ErrDataIntegrity, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var tags string
		if err := rows.Scan(&e.Title, &e.Prompt, &tags, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan prompt: %v", ErrDataIntegrity, err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("%w: tags of %q: %v", ErrDataIntegrity, e.Title, err)
		}
		if e.Tags == nil {
			e.Tags = []string{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	return entries, nil
}

// Save replaces the table contents with entries.
func (s *SQLiteStore) Save(ctx context.Context, entries []Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM prompts`); err != nil {
		return fmt.Errorf("failed to clear prompts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO prompts (position, title, prompt, tags, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		var encoded []byte
		encoded, err = json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		if _, err = stmt.ExecContext(ctx, i, e.Title, e.Prompt, string(encoded), e.Timestamp); err != nil {
			return fmt.Errorf("failed to insert prompt %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prompts: %w", err)
	}
	return nil
}
