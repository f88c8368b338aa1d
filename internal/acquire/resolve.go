// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// DefaultPDFBase is the Wiley endpoint that serves a PDF directly for a DOI.
const DefaultPDFBase = "https://onlinelibrary.wiley.com/doi/pdfdirect/"

// unsafeChars matches anything not allowed in a PDF file name.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// PDFDirectURL returns the pdfdirect download URL for doi under base.
func PDFDirectURL(base, doi string) string {
	if base == "" {
		base = DefaultPDFBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + doi + "?download=true"
}

// ResolvePDFURL returns the direct PDF URL for rec, or "" when the record
// has no DOI. The landing page is not a PDF URL; it is only a download
// fallback, see Candidates.
func ResolvePDFURL(base string, rec *types.NormalizedRecord) string {
	if !rec.HasDOI() {
		return ""
	}
	return PDFDirectURL(base, rec.DOI)
}

// Candidates lists the URLs tried for a download, in order: the resolved PDF
// URL, the landing page, and the landing page with a download flag.
// Duplicates and empty entries are dropped.
func Candidates(rec *types.NormalizedRecord) []string {
	var urls []string
	add := func(u string) {
		if u == "" {
			return
		}
		for _, existing := range urls {
			if existing == u {
				return
			}
		}
		urls = append(urls, u)
	}

	add(rec.PDFURL)
	if rec.LandingURL != "" {
		add(rec.LandingURL)
		sep := "?"
		if strings.Contains(rec.LandingURL, "?") {
			sep = "&"
		}
		add(rec.LandingURL + sep + "download=true")
	}
	return urls
}

// Slug returns a filesystem-safe file stem for doi:
// "10.1029/2023GL100001" becomes "10.1029_2023GL100001".
func Slug(doi string) string {
	return unsafeChars.ReplaceAllString(strings.TrimSpace(doi), "_")
}

// ContentSlug names a file by content when no DOI is available.
func ContentSlug(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + hex.EncodeToString(sum[:])[:16]
}

var pdfMagic = []byte("%PDF")

// IsPDF reports whether a response looks like a PDF, by content type or by
// the leading magic bytes.
func IsPDF(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return len(body) >= len(pdfMagic) && string(body[:len(pdfMagic)]) == string(pdfMagic)
}
