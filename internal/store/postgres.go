// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// articleMetadata maps the article_metadata table. The table is managed
// outside this program; it is never migrated here.
type articleMetadata struct {
	ID            uint      `gorm:"primaryKey"`
	HashValue     string    `gorm:"column:hash_value;index"`
	JournalName   string    `gorm:"column:journal_name"`
	DOI           string    `gorm:"column:doi"`
	Authors       string    `gorm:"column:authors"`
	AuthorEmail   string    `gorm:"column:author_email"`
	Title         string    `gorm:"column:title"`
	SourceURL     string    `gorm:"column:source_url"`
	Keywords      string    `gorm:"column:keywords"`
	Topic         string    `gorm:"column:topic"`
	PublisherName string    `gorm:"column:publisher_name"`
	Year          *int      `gorm:"column:year"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (articleMetadata) TableName() string { return TableName }

func fromRow(row types.MetadataRow) articleMetadata {
	return articleMetadata{
		HashValue:     row.HashValue,
		JournalName:   row.JournalName,
		DOI:           row.DOI,
		Authors:       row.Authors,
		AuthorEmail:   row.AuthorEmail,
		Title:         row.Title,
		SourceURL:     row.SourceURL,
		Keywords:      row.Keywords,
		Topic:         row.Topic,
		PublisherName: row.PublisherName,
		Year:          row.Year,
	}
}

// PostgresStore keeps metadata in Postgres through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres prepares a store for params. No connection is made until the
// first query, so an unreachable server shows up as per-record errors.
func OpenPostgres(params types.DBParams) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(params.DSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", types.ErrPersistence, params.Redacted(), err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing gorm handle.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	}
}

// Exists implements Store.
func (s *PostgresStore) Exists(ctx context.Context, hash string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&articleMetadata{}).Where("hash_value = ?", hash).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, row types.MetadataRow) error {
	m := fromRow(row)
	return s.db.WithContext(ctx).Create(&m).Error
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
