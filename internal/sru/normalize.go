// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sru

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// doiPattern matches a bare DOI: "10.1002/2017GL076101".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixes are stripped from identifiers before matching.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
	"DOI:",
}

// Access wording. A statement that negates open access is closed outright;
// a statement with both open and closed wording is left unknown so the
// probe decides. Closed words are matched whole: "unrestricted use" in a
// Creative Commons licence is not a restriction.
var (
	openMarkers = []string{"open access", "open-access", "openaccess", "creative commons", "creativecommons", "cc by", "cc-by", "free to read"}

	negatedOpen = regexp.MustCompile(`\b(?:not|non|no longer)[\s-]+(?:an?\s+|available\s+(?:as\s+(?:an?\s+)?|under\s+(?:an?|the)\s+)?)?(?:open[\s-]?access|creative\s+commons|cc[\s-]?by|free(?:ly)?\s+(?:to\s+read|available))`)

	closedWords = regexp.MustCompile(`\b(?:subscription|subscribers?|restricted|closed[\s-]access|paywall(?:ed)?)\b`)
)

// Normalize maps a raw record to the pipeline's uniform view. Missing fields
// map to empty values; a record without a DOI is still returned.
func Normalize(raw RawRecord) types.NormalizedRecord {
	rawDOI := pickDOI(append(append([]string(nil), raw.DOIs...), raw.Identifiers...))
	rec := types.NormalizedRecord{
		RawDOI:     rawDOI,
		DOI:        CleanDOI(rawDOI),
		Title:      first(raw.Titles),
		Abstract:   strings.Join(nonEmpty(raw.Descriptions), " "),
		Journal:    first(raw.IsPartOf),
		Publisher:  first(raw.Publishers),
		LandingURL: first(raw.URLs),
		Subjects:   dedupe(raw.Subjects),
		Year:       year(raw.Dates, raw.Issued),
		Access:     accessFlag(append(append([]string(nil), raw.Rights...), raw.AccessRights...)),
	}
	for _, name := range append(nonEmpty(raw.Contributors), nonEmpty(raw.Creators)...) {
		rec.Authors = append(rec.Authors, FormatAuthor(name))
	}
	return rec
}

// CleanDOI strips resolver prefixes and any "@" suffix from a DOI:
// "10.1002/abc@v1" becomes "10.1002/abc".
func CleanDOI(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// FormatAuthor rewrites "Last, First" as "Last First".
func FormatAuthor(name string) string {
	last, firstName, ok := strings.Cut(name, ",")
	if !ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(strings.TrimSpace(last) + " " + strings.TrimSpace(firstName))
}

// pickDOI returns the first DOI-shaped value, else the first non-empty one.
func pickDOI(ids []string) string {
	for _, id := range ids {
		if doiPattern.MatchString(CleanDOI(id)) {
			return strings.TrimSpace(id)
		}
	}
	return first(ids)
}

func year(dates, issued []string) int {
	for _, src := range [][]string{dates, issued} {
		for _, d := range src {
			d = strings.TrimSpace(d)
			if len(d) < 4 {
				continue
			}
			if y, err := strconv.Atoi(d[:4]); err == nil && y > 0 {
				return y
			}
		}
	}
	return 0
}

func accessFlag(statements []string) types.AccessFlag {
	text := strings.ToLower(strings.Join(statements, " "))
	if text == "" {
		return types.AccessUnknown
	}
	if negatedOpen.MatchString(text) {
		return types.AccessClosed
	}

	open := false
	for _, m := range openMarkers {
		if strings.Contains(text, m) {
			open = true
			break
		}
	}
	closed := closedWords.MatchString(text)

	switch {
	case open && closed:
		return types.AccessUnknown
	case open:
		return types.AccessOpen
	case closed:
		return types.AccessClosed
	default:
		return types.AccessUnknown
	}
}

func first(vals []string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(vals []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range nonEmpty(vals) {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
