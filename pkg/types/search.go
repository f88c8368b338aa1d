// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the oa-harvester pipeline:
// the search query, normalized records, downloaded artifacts, extraction
// results, persisted metadata rows, configuration, and the error taxonomy.
package types

import (
	"fmt"
	"strings"
)

// MaxRecordsPerPage is the largest page size the SRU endpoint honours.
const MaxRecordsPerPage = 20

// SearchQuery describes one page request against the search endpoint.
// A query value is not mutated while a page is fetched; WithCursor returns
// an advanced copy.
type SearchQuery struct {
	// Keywords lists the search terms in the order given on the command line.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Cursor is the 1-based start record position of the page.
	Cursor int `json:"cursor" yaml:"cursor"`

	// BatchSize is the number of records requested per page.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxItems caps the number of processed records for a run. Zero means unbounded.
	MaxItems int `json:"max_items" yaml:"max_items"`
}

// NewSearchQuery trims and validates keywords and returns a query positioned
// at the first record of startPage. Pages are counted in wire-sized pages,
// so a batch size above MaxRecordsPerPage does not skip records. Blank keywords are dropped; an empty
// result is a configuration error.
func NewSearchQuery(keywords []string, startPage, batchSize, maxItems int) (SearchQuery, error) {
	var kws []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		return SearchQuery{}, fmt.Errorf("%w: at least one non-empty keyword is required", ErrConfiguration)
	}
	if batchSize <= 0 {
		return SearchQuery{}, fmt.Errorf("%w: batch size must be positive, got %d", ErrConfiguration, batchSize)
	}
	if maxItems < 0 {
		return SearchQuery{}, fmt.Errorf("%w: max items must not be negative, got %d", ErrConfiguration, maxItems)
	}
	return SearchQuery{
		Keywords:  kws,
		Cursor:    StartRecord(startPage, min(batchSize, MaxRecordsPerPage)),
		BatchSize: batchSize,
		MaxItems:  maxItems,
	}, nil
}

// StartRecord maps a 1-based page of pageSize records to the SRU start
// record position. Pages below 1 are treated as page 1.
func StartRecord(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page-1)*pageSize + 1
}

// WithCursor returns a copy of q positioned at cursor.
func (q SearchQuery) WithCursor(cursor int) SearchQuery {
	q.Keywords = append([]string(nil), q.Keywords...)
	q.Cursor = cursor
	return q
}

// PageSize returns the number of records to request on the wire.
func (q SearchQuery) PageSize() int {
	return min(q.BatchSize, MaxRecordsPerPage)
}

// PageBudget returns the maximum number of pages a run may fetch, or 0 when
// MaxItems is unbounded.
func (q SearchQuery) PageBudget() int {
	if q.MaxItems <= 0 {
		return 0
	}
	size := q.PageSize()
	return (q.MaxItems + size - 1) / size
}

// Namespace returns the keywords joined with underscores and lowercased, used
// to namespace download paths. It returns "all" for an empty keyword list.
func (q SearchQuery) Namespace() string {
	return KeywordNamespace(q.Keywords)
}

// KeywordNamespace joins keywords with underscores and lowercases the result.
func KeywordNamespace(keywords []string) string {
	if len(keywords) == 0 {
		return "all"
	}
	parts := make([]string, len(keywords))
	for i, kw := range keywords {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(kw)), "-")
	}
	return strings.Join(parts, "_")
}
