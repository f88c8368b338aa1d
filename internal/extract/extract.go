// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract guesses a principal author name and contact email from the
// first page of a downloaded PDF.
package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Extractor reads PDFs from disk and applies Guess to their first page.
type Extractor struct {
	Logger *zap.Logger
}

// Extract returns the author/email guess for the PDF at path. An unreadable
// PDF is reported as types.ErrExtraction; a PDF without an email yields an
// empty result and no error.
func (e *Extractor) Extract(path string) (types.ExtractionResult, error) {
	text, err := FirstPageText(path)
	if err != nil {
		return types.ExtractionResult{}, err
	}
	author, email := Guess(text)
	if e.Logger != nil {
		e.Logger.Debug("first page scanned",
			zap.String("path", path),
			zap.Int("chars", len(text)),
			zap.Bool("email_found", email != nil))
	}
	return types.ExtractionResult{Author: author, Email: email}, nil
}

// FirstPageText returns the plain text of page 1 only. The parser can panic
// on malformed input, so panics are reported as extraction errors too.
func FirstPageText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: parsing %s: %v", types.ErrExtraction, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", types.ErrExtraction, path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return "", fmt.Errorf("%w: %s has no pages", types.ErrExtraction, path)
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return "", fmt.Errorf("%w: %s: page 1 is missing", types.ErrExtraction, path)
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: reading text from %s: %v", types.ErrExtraction, path, err)
	}
	return text, nil
}
