// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MetadataRow is the persisted form of a harvested article.
// HashValue is an advisory dedup key; the store does not enforce uniqueness.
type MetadataRow struct {
	HashValue     string `json:"hash_value" yaml:"hash_value"`
	JournalName   string `json:"journal_name" yaml:"journal_name"`
	DOI           string `json:"doi" yaml:"doi"`
	Authors       string `json:"authors" yaml:"authors"`
	AuthorEmail   string `json:"author_email" yaml:"author_email"`
	Title         string `json:"title" yaml:"title"`
	SourceURL     string `json:"source_url" yaml:"source_url"`
	Keywords      string `json:"keywords" yaml:"keywords"`
	Topic         string `json:"topic" yaml:"topic"`
	PublisherName string `json:"publisher_name" yaml:"publisher_name"`
	Year          *int   `json:"year,omitempty" yaml:"year,omitempty"`
}

// DedupHash returns the lowercase hex SHA-256 of "doi title". Neither part is
// normalized, so any change to either string changes the hash.
func DedupHash(doi, title string) string {
	sum := sha256.Sum256([]byte(doi + " " + title))
	return hex.EncodeToString(sum[:])
}

// NewMetadataRow assembles the row for a processed record. The author falls
// back to the first contributor when extraction found none, and the journal
// falls back to the publisher label.
func NewMetadataRow(rec *NormalizedRecord, ext ExtractionResult, art *DownloadedArtifact, keywords []string, publisher string) MetadataRow {
	row := MetadataRow{
		HashValue:     DedupHash(rec.DOI, rec.Title),
		JournalName:   rec.Journal,
		DOI:           rec.DOI,
		AuthorEmail:   ext.EmailOr(""),
		Title:         rec.Title,
		Keywords:      strings.Join(keywords, ","),
		Topic:         rec.Topic(),
		PublisherName: publisher,
	}
	if row.JournalName == "" {
		row.JournalName = publisher
	}
	fallback := ""
	if len(rec.Authors) > 0 {
		fallback = rec.Authors[0]
	}
	row.Authors = ext.AuthorOr(fallback)
	if art != nil {
		row.SourceURL = art.SourceURL
	}
	if row.SourceURL == "" {
		row.SourceURL = rec.PDFURL
	}
	if rec.Year > 0 {
		y := rec.Year
		row.Year = &y
	}
	return row
}
