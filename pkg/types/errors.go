// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy. Components wrap these with fmt.Errorf("%w: ...") and the
// harvest driver classifies them with errors.Is.
//
// ErrConfiguration and ErrFetch abort a run. ErrDownload, ErrExtraction and
// ErrPersistence are scoped to one record and never abort the batch.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrDownload      = errors.New("download error")
	ErrExtraction    = errors.New("extraction error")
	ErrPersistence   = errors.New("persistence error")
)
