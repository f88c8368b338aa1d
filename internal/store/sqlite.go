// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// SQLiteStore keeps metadata in a local SQLite file. Unlike Postgres it
// creates its table, since local runs start from an empty file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating directory for %s: %v", types.ErrPersistence, path, err)
		}
		dsn = path + "?_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", types.ErrPersistence, err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", types.ErrPersistence, err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS article_metadata (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hash_value TEXT NOT NULL,
			journal_name TEXT,
			doi TEXT,
			authors TEXT,
			author_email TEXT,
			title TEXT,
			source_url TEXT,
			keywords TEXT,
			topic TEXT,
			publisher_name TEXT,
			year INTEGER,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_article_metadata_hash ON article_metadata(hash_value)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Exists implements Store.
func (s *SQLiteStore) Exists(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM article_metadata WHERE hash_value = ?`, hash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, row types.MetadataRow) error {
	var year any
	if row.Year != nil {
		year = *row.Year
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO article_metadata
		(hash_value, journal_name, doi, authors, author_email, title, source_url, keywords, topic, publisher_name, year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.HashValue, row.JournalName, row.DOI, row.Authors, row.AuthorEmail, row.Title,
		row.SourceURL, row.Keywords, row.Topic, row.PublisherName, year)
	return err
}

// Count returns the number of stored rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM article_metadata`).Scan(&n)
	return n, err
}

// Rows returns every stored row in insertion order.
func (s *SQLiteStore) Rows(ctx context.Context) ([]types.MetadataRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash_value, journal_name, doi, authors, author_email,
		title, source_url, keywords, topic, publisher_name, year FROM article_metadata ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.MetadataRow
	for rows.Next() {
		var r types.MetadataRow
		var year sql.NullInt64
		if err := rows.Scan(&r.HashValue, &r.JournalName, &r.DOI, &r.Authors, &r.AuthorEmail,
			&r.Title, &r.SourceURL, &r.Keywords, &r.Topic, &r.PublisherName, &year); err != nil {
			return nil, err
		}
		if year.Valid {
			y := int(year.Int64)
			r.Year = &y
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
