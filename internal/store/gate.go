// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvested article metadata behind a hash-based
// duplicate check. The check and the insert are separate statements; two
// concurrent runs can both insert the same hash.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// TableName is the metadata table shared by every backend.
const TableName = "article_metadata"

// Store is a metadata backend.
type Store interface {
	// Exists reports whether a row with hash is already stored.
	Exists(ctx context.Context, hash string) (bool, error)

	// Insert stores row.
	Insert(ctx context.Context, row types.MetadataRow) error

	Close() error
}

// Outcome describes what Submit did with a row.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
	OutcomeNoDOI
	OutcomeNoEmail
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNoDOI:
		return "no-doi"
	case OutcomeNoEmail:
		return "no-email"
	default:
		return "failed"
	}
}

// Gate inserts rows whose hash is not yet stored.
type Gate struct {
	Store Store

	// RequireEmail skips rows without an author email.
	RequireEmail bool

	Logger *zap.Logger
}

// Submit checks row against the store and inserts it when new. The hash is
// recomputed from the row's DOI and title. Store failures are returned
// wrapped in types.ErrPersistence with OutcomeFailed.
func (g *Gate) Submit(ctx context.Context, row types.MetadataRow) (Outcome, error) {
	log := g.logger().With(zap.String("doi", row.DOI), zap.String("stage", "persist"))

	if row.DOI == "" {
		log.Warn("record has no DOI, not persisted", zap.String("title", row.Title))
		return OutcomeNoDOI, nil
	}
	if g.RequireEmail && row.AuthorEmail == "" {
		log.Info("no author email found, not persisted")
		return OutcomeNoEmail, nil
	}

	row.HashValue = types.DedupHash(row.DOI, row.Title)

	exists, err := g.Store.Exists(ctx, row.HashValue)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: checking hash %s: %v", types.ErrPersistence, row.HashValue, err)
	}
	if exists {
		log.Info("duplicate, not inserted", zap.String("hash", row.HashValue))
		return OutcomeDuplicate, nil
	}

	if err := g.Store.Insert(ctx, row); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: inserting %s: %v", types.ErrPersistence, row.DOI, err)
	}
	log.Info("inserted", zap.String("hash", row.HashValue))
	return OutcomeInserted, nil
}

func (g *Gate) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
