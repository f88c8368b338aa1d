// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery(t *testing.T) {
	q, err := NewSearchQuery([]string{" climate ", "", "action"}, 3, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"climate", "action"}, q.Keywords)
	assert.Equal(t, 41, q.Cursor)
	assert.Equal(t, 5, q.PageBudget())
}

func TestNewSearchQuery_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		batch    int
		max      int
	}{
		{"nil keywords", nil, 20, 10},
		{"blank keywords", []string{" ", ""}, 20, 10},
		{"zero batch", []string{"a"}, 0, 10},
		{"negative max", []string{"a"}, 20, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchQuery(tt.keywords, 1, tt.batch, tt.max)
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}

func TestStartRecord(t *testing.T) {
	assert.Equal(t, 1, StartRecord(1, 20))
	assert.Equal(t, 1, StartRecord(0, 20))
	assert.Equal(t, 1, StartRecord(-4, 20))
	assert.Equal(t, 21, StartRecord(2, 20))
	assert.Equal(t, 11, StartRecord(3, 5))
}

func TestPageBudget(t *testing.T) {
	tests := []struct {
		batch, max, want int
	}{
		{20, 0, 0},
		{20, 1, 1},
		{20, 20, 1},
		{20, 21, 2},
		{5, 12, 3},
		{50, 45, 3}, // wire page size caps at 20
	}
	for _, tt := range tests {
		q := SearchQuery{Keywords: []string{"k"}, BatchSize: tt.batch, MaxItems: tt.max}
		assert.Equal(t, tt.want, q.PageBudget(), "batch=%d max=%d", tt.batch, tt.max)
	}
}

func TestWithCursorDoesNotShareKeywords(t *testing.T) {
	q := SearchQuery{Keywords: []string{"a", "b"}, Cursor: 1, BatchSize: 10}
	next := q.WithCursor(11)
	next.Keywords[0] = "changed"
	assert.Equal(t, "a", q.Keywords[0])
	assert.Equal(t, 1, q.Cursor)
	assert.Equal(t, 11, next.Cursor)
}

func TestKeywordNamespace(t *testing.T) {
	assert.Equal(t, "climate_action", KeywordNamespace([]string{"Climate", "action"}))
	assert.Equal(t, "sea-level_rise", KeywordNamespace([]string{"sea level", "RISE"}))
	assert.Equal(t, "all", KeywordNamespace(nil))
}

func TestDedupHash(t *testing.T) {
	// sha256("10.1002/xyz A Title")
	h := DedupHash("10.1002/xyz", "A Title")
	assert.Len(t, h, 64)
	assert.Equal(t, h, DedupHash("10.1002/xyz", "A Title"))

	assert.NotEqual(t, h, DedupHash("10.1002/xyz", "A title"))
	assert.NotEqual(t, h, DedupHash("10.1002/xyz", "A Title "))
	assert.NotEqual(t, h, DedupHash("10.1002/xyZ", "A Title"))
}

func TestDedupHash_KnownValue(t *testing.T) {
	// sha256 of the single space produced by an empty DOI and title.
	assert.Equal(t, "36a9e7f1c95b82ffb99743e0c5c4ce95d83c9a430aac59f84ef3cbfab6145068", DedupHash("", ""))
}

func TestNewMetadataRow(t *testing.T) {
	author, email := "Jane Doe", "jane@example.org"
	rec := &NormalizedRecord{
		DOI:      "10.1002/xyz",
		Title:    "A Title",
		Subjects: []string{"Climate", "Policy"},
		Authors:  []string{"Doe Jane"},
		PDFURL:   "https://example.org/pdf",
		Year:     2023,
	}
	art := &DownloadedArtifact{SourceURL: "https://example.org/final.pdf"}
	row := NewMetadataRow(rec, ExtractionResult{Author: &author, Email: &email}, art, []string{"climate", "action"}, "WileyLibrary")

	assert.Equal(t, DedupHash("10.1002/xyz", "A Title"), row.HashValue)
	assert.Equal(t, "WileyLibrary", row.JournalName)
	assert.Equal(t, "WileyLibrary", row.PublisherName)
	assert.Equal(t, "Jane Doe", row.Authors)
	assert.Equal(t, "jane@example.org", row.AuthorEmail)
	assert.Equal(t, "climate,action", row.Keywords)
	assert.Equal(t, "Climate", row.Topic)
	assert.Equal(t, "https://example.org/final.pdf", row.SourceURL)
	require.NotNil(t, row.Year)
	assert.Equal(t, 2023, *row.Year)
}

func TestNewMetadataRow_Fallbacks(t *testing.T) {
	rec := &NormalizedRecord{DOI: "10.1/a", Title: "T", Journal: "Geophysical Research Letters", Authors: []string{"Doe Jane"}, PDFURL: "https://x/pdf"}
	row := NewMetadataRow(rec, ExtractionResult{}, nil, []string{"k"}, "WileyLibrary")

	assert.Equal(t, "Geophysical Research Letters", row.JournalName)
	assert.Equal(t, "Doe Jane", row.Authors)
	assert.Empty(t, row.AuthorEmail)
	assert.Equal(t, "https://x/pdf", row.SourceURL)
	assert.Nil(t, row.Year)
}

func TestDBParams(t *testing.T) {
	p := DBParams{Host: "db", Name: "papers", User: "harvester"}
	assert.False(t, p.Complete())
	p.Password = "s3cret"
	assert.True(t, p.Complete())
	assert.Equal(t, "host=db user=harvester password=s3cret dbname=papers port=5432 sslmode=disable", p.DSN())
	assert.Equal(t, "postgres://harvester@db:5432/papers", p.Redacted())
}

func TestNewSearchQuery_BatchAboveWirePage(t *testing.T) {
	// The server returns at most 20 records per page, so page 2 starts at
	// record 21 whatever the batch size.
	q, err := NewSearchQuery([]string{"climate"}, 2, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, q.PageSize())
	assert.Equal(t, 21, q.Cursor)

	q, err = NewSearchQuery([]string{"climate"}, 3, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 11, q.Cursor)
}
