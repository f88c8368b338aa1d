// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AccessFlag records what the source metadata says about open access.
// The zero value is AccessUnknown.
type AccessFlag int

const (
	AccessUnknown AccessFlag = iota
	AccessOpen
	AccessClosed
)

func (f AccessFlag) String() string {
	switch f {
	case AccessOpen:
		return "open"
	case AccessClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalYAML writes the flag by name in metadata sidecars.
func (f AccessFlag) MarshalYAML() (any, error) {
	return f.String(), nil
}

// UnmarshalYAML reads a flag written by MarshalYAML. Unrecognized names
// decode as AccessUnknown.
func (f *AccessFlag) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "open":
		*f = AccessOpen
	case "closed":
		*f = AccessClosed
	default:
		*f = AccessUnknown
	}
	return nil
}

// NormalizedRecord is the uniform view of one search result. It lives for
// the duration of per-record processing only.
type NormalizedRecord struct {
	// DOI is the cleaned article DOI. Empty when the source gave none.
	DOI string `json:"doi" yaml:"doi"`

	// RawDOI is the identifier as returned by the source, before cleaning.
	RawDOI string `json:"raw_doi,omitempty" yaml:"raw_doi,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists contributors in source order, "Last, First" rewritten
	// as "Last First".
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Journal is the containing publication (dcterms:isPartOf).
	Journal   string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`

	// LandingURL is the article landing page.
	LandingURL string `json:"landing_url,omitempty" yaml:"landing_url,omitempty"`

	// PDFURL is empty until resolved from the DOI or landing page.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	Access AccessFlag `json:"access" yaml:"access"`
}

// HasDOI reports whether the record carries a usable DOI.
func (r *NormalizedRecord) HasDOI() bool {
	return r.DOI != ""
}

// Topic returns the first subject, or an empty string.
func (r *NormalizedRecord) Topic() string {
	if len(r.Subjects) == 0 {
		return ""
	}
	return r.Subjects[0]
}

// DownloadedArtifact describes a PDF written to the local filesystem.
// It is written once and never modified afterwards.
type DownloadedArtifact struct {
	Path      string `json:"path" yaml:"path"`
	Size      int64  `json:"size" yaml:"size"`
	DOI       string `json:"doi" yaml:"doi"`
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Skipped is set when the file already existed and no download happened.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// ExtractionResult holds the heuristic author and email guess for one PDF.
// A nil field means nothing was found.
type ExtractionResult struct {
	Author *string `json:"author,omitempty" yaml:"author,omitempty"`
	Email  *string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Found reports whether an email was found.
func (e ExtractionResult) Found() bool {
	return e.Email != nil
}

// AuthorOr returns the author name or fallback.
func (e ExtractionResult) AuthorOr(fallback string) string {
	if e.Author == nil {
		return fallback
	}
	return *e.Author
}

// EmailOr returns the email or fallback.
func (e ExtractionResult) EmailOr(fallback string) string {
	if e.Email == nil {
		return fallback
	}
	return *e.Email
}
