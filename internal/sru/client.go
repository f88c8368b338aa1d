// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sru

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/internal/httputil"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// DefaultBaseURL is the Wiley SRU endpoint.
const DefaultBaseURL = "https://onlinelibrary.wiley.com/action/sru"

// diagOutOfRange is the SRU diagnostic for a start record past the end of
// the result set. It ends pagination instead of failing the run.
const diagOutOfRange = "info:srw/diagnostic/1/61"

// Page is one decoded searchRetrieve response.
type Page struct {
	// Records holds the Dublin Core records in response order.
	Records []RawRecord

	// Next is the start record of the following page, or nil on the last page.
	Next *int

	// Total is the server's numberOfRecords for the whole query.
	Total int
}

// Client fetches result pages from an SRU endpoint.
type Client struct {
	// HTTP sends the requests. Its transport is expected to add browser
	// headers; see httputil.NewClient.
	HTTP *http.Client

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// ArticlesOnly restricts results to dc.type=article.
	ArticlesOnly bool

	// Pacer spaces consecutive page requests. Nil disables pacing.
	Pacer *httputil.Pacer

	Logger *zap.Logger
}

// FetchPage requests the page of q starting at q.Cursor. Network failures,
// non-2xx responses, undecodable bodies and SRU diagnostics are returned
// wrapped in types.ErrFetch.
func (c *Client) FetchPage(ctx context.Context, q types.SearchQuery) (*Page, error) {
	params, err := BuildParams(q, c.ArticlesOnly)
	if err != nil {
		return nil, err
	}

	if err := c.Pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting to fetch page at %d: %v", types.ErrFetch, q.Cursor, err)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	reqURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", types.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	c.logger().Debug("fetching SRU page",
		zap.Int("start_record", q.Cursor),
		zap.Int("maximum_records", q.PageSize()))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: SRU request: %v", types.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("%w: SRU endpoint returned HTTP %d", types.ErrFetch, resp.StatusCode)
	}

	var sr searchRetrieveResponse
	if err := xml.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parsing SRU response: %v", types.ErrFetch, err)
	}

	if len(sr.Diagnostics) > 0 {
		d := sr.Diagnostics[0]
		if strings.TrimSpace(d.URI) == diagOutOfRange {
			c.logger().Info("start record past end of results", zap.Int("start_record", q.Cursor))
			return &Page{Total: atoiOrZero(sr.NumberOfRecords)}, nil
		}
		return nil, fmt.Errorf("%w: SRU diagnostic %s: %s %s", types.ErrFetch,
			strings.TrimSpace(d.URI), strings.TrimSpace(d.Message), strings.TrimSpace(d.Details))
	}

	page := &Page{Total: atoiOrZero(sr.NumberOfRecords)}
	for _, r := range sr.Records {
		if r.Data == nil {
			continue
		}
		page.Records = append(page.Records, *r.Data)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(sr.NextRecordPosition)); err == nil {
		page.Next = &n
	}
	return page, nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// SRU 2.0 response structures. Elements are matched by local name so the
// zs:, dc:, dcterms: and prism: prefixes need no namespace bookkeeping.
type searchRetrieveResponse struct {
	NumberOfRecords    string          `xml:"numberOfRecords"`
	Records            []sruRecord     `xml:"records>record"`
	NextRecordPosition string          `xml:"nextRecordPosition"`
	Diagnostics        []sruDiagnostic `xml:"diagnostics>diagnostic"`
}

type sruRecord struct {
	Position string     `xml:"recordPosition"`
	Data     *RawRecord `xml:"recordData>dc"`
}

type sruDiagnostic struct {
	URI     string `xml:"uri"`
	Details string `xml:"details"`
	Message string `xml:"message"`
}

// RawRecord is the Dublin Core payload of one SRU record, as returned.
// Each field keeps every occurrence of its element in document order.
type RawRecord struct {
	Identifiers  []string `xml:"identifier"`
	DOIs         []string `xml:"doi"`
	Titles       []string `xml:"title"`
	Descriptions []string `xml:"description"`
	Contributors []string `xml:"contributor"`
	Creators     []string `xml:"creator"`
	Dates        []string `xml:"date"`
	Issued       []string `xml:"issued"`
	IsPartOf     []string `xml:"isPartOf"`
	Publishers   []string `xml:"publisher"`
	Subjects     []string `xml:"subject"`
	Types        []string `xml:"type"`
	Rights       []string `xml:"rights"`
	AccessRights []string `xml:"accessRights"`
	URLs         []string `xml:"url"`
}
