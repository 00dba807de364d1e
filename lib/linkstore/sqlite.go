// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linkstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
	category   TEXT NOT NULL,
	id         TEXT NOT NULL,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (category, id)
);
`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// SQLiteConfig contains the database settings.
type SQLiteConfig struct {
	Path     string
	PoolSize int
	Logger   *slog.Logger
}

// OpenSQLite opens (creating if needed) the link database.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   schema,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening link store: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Find implements Store.
func (s *SQLiteStore) Find(ctx context.Context, category link.Category, filter Filter) ([]Record, error) {
	query := "SELECT id, document FROM links WHERE category = ? ORDER BY id"
	args := []any{string(category)}
	if filter.ID != "" {
		query = "SELECT id, document FROM links WHERE category = ? AND id = ?"
		args = append(args, filter.ID)
	}

	var records []Record
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, Record{
					ID:       stmt.ColumnText(0),
					Document: json.RawMessage(stmt.ColumnText(1)),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("finding %s records: %w", category, err)
	}
	return records, nil
}

// Upsert implements Store.
func (s *SQLiteStore) Upsert(ctx context.Context, category link.Category, id string, document json.RawMessage) error {
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO links (category, id, document) VALUES (?, ?, ?)
			ON CONFLICT (category, id) DO UPDATE SET
				document = excluded.document,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
			&sqlitex.ExecOptions{Args: []any{string(category), id, string(document)}})
	})
	if err != nil {
		return fmt.Errorf("writing %s record %s: %w", category, id, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, category link.Category, id string) error {
	var changes int
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM links WHERE category = ? AND id = ?",
			&sqlitex.ExecOptions{Args: []any{string(category), id}})
		changes = conn.Changes()
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting %s record %s: %w", category, id, err)
	}
	if changes == 0 {
		return fmt.Errorf("deleting %s record %s: %w", category, id, ErrNotFound)
	}
	return nil
}

// Close closes the underlying pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}
