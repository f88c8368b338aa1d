// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sru talks to the Wiley Online Library SRU (Search/Retrieve via URL)
// endpoint: it builds CQL queries, fetches result pages, and normalizes the
// Dublin Core records they contain.
package sru

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Request parameters fixed by the endpoint.
const (
	operation    = "searchRetrieve"
	sruVersion   = "2.0"
	recordSchema = "info:srw/cql-context-set/11/prism-v2.1"

	articleClause = "dc.type=article"
)

// cqlEscaper escapes backslashes before quotes so an escaped quote cannot be
// undone by a trailing backslash in the keyword.
var cqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// BuildCQL returns a CQL expression matching any keyword in the title or
// description. Blank keywords are ignored; if none remain the result is a
// configuration error.
func BuildCQL(keywords []string, articlesOnly bool) (string, error) {
	var parts []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		esc := cqlEscaper.Replace(kw)
		parts = append(parts,
			fmt.Sprintf(`dc.title="%s"`, esc),
			fmt.Sprintf(`dc.description="%s"`, esc),
		)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty keyword list", types.ErrConfiguration)
	}

	cql := "(" + strings.Join(parts, " OR ") + ")"
	if articlesOnly {
		cql += " AND " + articleClause
	}
	return cql, nil
}

// BuildParams returns the searchRetrieve parameters for one page of q.
func BuildParams(q types.SearchQuery, articlesOnly bool) (url.Values, error) {
	cql, err := BuildCQL(q.Keywords, articlesOnly)
	if err != nil {
		return nil, err
	}
	if q.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", types.ErrConfiguration)
	}
	start := q.Cursor
	if start < 1 {
		start = 1
	}

	v := url.Values{}
	v.Set("operation", operation)
	v.Set("version", sruVersion)
	v.Set("recordSchema", recordSchema)
	v.Set("query", cql)
	v.Set("startRecord", strconv.Itoa(start))
	v.Set("maximumRecords", strconv.Itoa(q.PageSize()))
	return v, nil
}
