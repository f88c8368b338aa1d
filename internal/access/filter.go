// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package access decides whether a search record is open access and may be
// downloaded. Source metadata is trusted when it states an access status;
// otherwise the candidate PDF URL can be probed.
package access

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Verdict reasons, also used as metric labels.
const (
	ReasonOpenMetadata   = "open-metadata"
	ReasonClosedMetadata = "closed-metadata"
	ReasonProbeDisabled  = "probe-disabled"
	ReasonNoPDFURL       = "no-pdf-url"
	ReasonHeadPDF        = "probe-head-pdf"
	ReasonGetPDF         = "probe-get-pdf"
	ReasonNotPDF         = "probe-not-pdf"
	ReasonForbidden      = "probe-forbidden"
	ReasonProbeError     = "probe-error"
	ReasonTooLarge       = "probe-too-large"
)

// MaxProbeBody caps the bytes kept from a GET probe.
var MaxProbeBody int64 = 100 << 20

// Verdict is the filter's decision for one record.
type Verdict struct {
	Pass   bool
	Reason string

	// Body holds the PDF bytes when a GET probe fetched them, so the
	// downloader does not request the same file twice.
	Body []byte
}

// Filter applies the access decision table.
type Filter struct {
	HTTP *http.Client

	// Probe enables HEAD/GET probing of records with unknown access.
	Probe bool

	Logger *zap.Logger
}

// Decide evaluates rec. Records whose metadata says they are closed never
// pass, and a record whose access stays unknown is excluded.
func (f *Filter) Decide(ctx context.Context, rec *types.NormalizedRecord) Verdict {
	switch rec.Access {
	case types.AccessOpen:
		return Verdict{Pass: true, Reason: ReasonOpenMetadata}
	case types.AccessClosed:
		return Verdict{Reason: ReasonClosedMetadata}
	}

	if !f.Probe {
		return Verdict{Reason: ReasonProbeDisabled}
	}
	if rec.PDFURL == "" {
		return Verdict{Reason: ReasonNoPDFURL}
	}
	return f.probe(ctx, rec.PDFURL)
}

func (f *Filter) probe(ctx context.Context, pdfURL string) Verdict {
	log := f.logger().With(zap.String("url", pdfURL), zap.String("stage", "access"))

	status, ctype, err := f.head(ctx, pdfURL)
	if err != nil {
		log.Warn("HEAD probe failed", zap.Error(err))
		return Verdict{Reason: ReasonProbeError}
	}
	if status == http.StatusOK && isPDFType(ctype) {
		return Verdict{Pass: true, Reason: ReasonHeadPDF}
	}

	// Some servers refuse HEAD or omit the content type; one GET settles it.
	if status == http.StatusForbidden || status == http.StatusNotFound ||
		status == http.StatusMethodNotAllowed || ctype == "" {
		return f.get(ctx, pdfURL, log)
	}

	log.Debug("probe found no PDF", zap.Int("status", status), zap.String("content_type", ctype))
	return Verdict{Reason: ReasonNotPDF}
}

func (f *Filter) head(ctx context.Context, pdfURL string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pdfURL, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return 0, "", err
	}
	resp.Body.Close()
	return resp.StatusCode, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

func (f *Filter) get(ctx context.Context, pdfURL string, log *zap.Logger) Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		log.Warn("building GET probe", zap.Error(err))
		return Verdict{Reason: ReasonProbeError}
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		log.Warn("GET probe failed", zap.Error(err))
		return Verdict{Reason: ReasonProbeError}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return Verdict{Reason: ReasonForbidden}
	}
	if resp.StatusCode != http.StatusOK {
		log.Debug("GET probe found no PDF", zap.Int("status", resp.StatusCode))
		return Verdict{Reason: ReasonNotPDF}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxProbeBody+1))
	if err != nil {
		log.Warn("reading GET probe body", zap.Error(err))
		return Verdict{Reason: ReasonProbeError}
	}
	if int64(len(body)) > MaxProbeBody {
		log.Warn("GET probe body too large", zap.Int64("limit", MaxProbeBody))
		return Verdict{Reason: ReasonTooLarge}
	}
	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if !isPDFType(ctype) && !bytes.HasPrefix(body, pdfMagic) {
		return Verdict{Reason: ReasonNotPDF}
	}
	return Verdict{Pass: true, Reason: ReasonGetPDF, Body: body}
}

func (f *Filter) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

var pdfMagic = []byte("%PDF")

func isPDFType(ctype string) bool {
	return strings.Contains(ctype, "pdf")
}
