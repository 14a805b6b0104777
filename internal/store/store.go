// Package store keeps a local SQLite history of performed actions and of
// tweets returned by search.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/twium/twium/internal/types"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Sessions run concurrently; serialize writers instead of failing
	// with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		kind TEXT NOT NULL,
		target TEXT,
		result TEXT,
		error TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		author_handle TEXT,
		author_name TEXT,
		content TEXT NOT NULL,
		timestamp DATETIME,
		original_url TEXT,
		query TEXT,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at);
	CREATE INDEX IF NOT EXISTS idx_actions_account ON actions(account);
	CREATE INDEX IF NOT EXISTS idx_tweets_query ON tweets(query);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordAction inserts an action, filling in ID and CreatedAt when unset
func (s *Store) RecordAction(ctx context.Context, a *types.Action) error {
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, account, kind, target, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Account, string(a.Kind), a.Target, a.Result, a.Error, a.CreatedAt)

	return err
}

// RecentActions returns the newest actions first. An empty account matches
// every account.
func (s *Store) RecentActions(ctx context.Context, account string, limit int) ([]types.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account, kind, target, result, error, created_at
		FROM actions
		WHERE ? = '' OR account = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, account, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []types.Action
	for rows.Next() {
		var a types.Action
		var kind string
		if err := rows.Scan(&a.ID, &a.Account, &kind, &a.Target, &a.Result, &a.Error, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = types.ActionKind(kind)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// SaveTweets inserts or updates tweets in a single transaction
func (s *Store) SaveTweets(ctx context.Context, tweets []types.Tweet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tweets (id, author_handle, author_name, content, timestamp,
			original_url, query, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			query = excluded.query,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tweets {
		if _, err := stmt.ExecContext(ctx, t.ID, t.AuthorHandle, t.AuthorName, t.Content,
			t.Timestamp, t.OriginalURL, t.Query, t.FetchedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTweet returns a stored tweet by ID
func (s *Store) GetTweet(ctx context.Context, id string) (types.Tweet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, author_handle, author_name, content, timestamp, original_url, query, fetched_at
		FROM tweets WHERE id = ?
	`, id)

	var t types.Tweet
	err := row.Scan(&t.ID, &t.AuthorHandle, &t.AuthorName, &t.Content, &t.Timestamp,
		&t.OriginalURL, &t.Query, &t.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Tweet{}, ErrNotFound
	}
	return t, err
}
