// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves PDF URLs for search records, downloads the PDFs
// into a publisher and keyword namespaced tree, and writes metadata sidecars.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// MaxPDFBytes caps the size of a single download.
var MaxPDFBytes int64 = 100 << 20

// Downloader fetches PDFs for normalized records.
type Downloader struct {
	HTTP *http.Client

	// Root is the download root directory.
	Root string

	// Publisher is the first path component under Root.
	Publisher string

	Logger *zap.Logger
}

// Dir returns the directory PDFs for keywords are written to.
func (d *Downloader) Dir(keywords []string) string {
	return filepath.Join(d.Root, d.Publisher, types.KeywordNamespace(keywords))
}

// PathFor returns the destination of rec's PDF, or "" when the record has
// no DOI and the name depends on the content.
func (d *Downloader) PathFor(rec *types.NormalizedRecord, keywords []string) string {
	if !rec.HasDOI() {
		return ""
	}
	return filepath.Join(d.Dir(keywords), Slug(rec.DOI)+".pdf")
}

// Download writes rec's PDF under the keyword directory and returns the
// artifact. If the file already exists it is not fetched again and the
// artifact is marked Skipped. When prefetched holds PDF bytes from the
// access probe they are written without another request. Failures are
// wrapped in types.ErrDownload.
func (d *Downloader) Download(ctx context.Context, rec *types.NormalizedRecord, keywords []string, prefetched []byte) (*types.DownloadedArtifact, error) {
	log := d.logger().With(zap.String("doi", rec.DOI), zap.String("stage", "download"))

	dir := d.Dir(keywords)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory %s: %v", types.ErrDownload, dir, err)
	}

	if path := d.PathFor(rec, keywords); path != "" {
		if art, ok := existing(path, rec); ok {
			log.Info("skipped: already exists", zap.String("path", path))
			return art, nil
		}
	}

	data, source, err := d.fetch(ctx, rec, prefetched, log)
	if err != nil {
		return nil, err
	}

	path := d.PathFor(rec, keywords)
	if path == "" {
		path = filepath.Join(dir, ContentSlug(data)+".pdf")
		if art, ok := existing(path, rec); ok {
			art.SourceURL = source
			log.Info("skipped: identical content already exists", zap.String("path", path))
			return art, nil
		}
	}

	if err := writeFile(path, data); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDownload, err)
	}
	log.Info("downloaded", zap.String("path", path), zap.Int("bytes", len(data)), zap.String("url", source))

	return &types.DownloadedArtifact{
		Path:      path,
		Size:      int64(len(data)),
		DOI:       rec.DOI,
		SourceURL: source,
	}, nil
}

// fetch returns the PDF bytes and the URL they came from.
func (d *Downloader) fetch(ctx context.Context, rec *types.NormalizedRecord, prefetched []byte, log *zap.Logger) ([]byte, string, error) {
	if len(prefetched) > 0 && IsPDF("", prefetched) {
		return prefetched, rec.PDFURL, nil
	}

	candidates := Candidates(rec)
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("%w: no candidate URL", types.ErrDownload)
	}

	var errs []error
	for _, u := range candidates {
		data, err := d.get(ctx, u)
		if err == nil {
			return data, u, nil
		}
		log.Debug("candidate failed", zap.String("url", u), zap.Error(err))
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", fmt.Errorf("%w: %v", types.ErrDownload, errors.Join(errs...))
}

// get performs one GET and returns the body when it is a PDF.
func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", url, err)
	}
	if int64(len(data)) > MaxPDFBytes {
		return nil, fmt.Errorf("body from %s exceeds %d bytes", url, MaxPDFBytes)
	}
	if !IsPDF(resp.Header.Get("Content-Type"), data) {
		return nil, fmt.Errorf("not a PDF from %s (content type %q)", url, resp.Header.Get("Content-Type"))
	}
	return data, nil
}

func (d *Downloader) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func existing(path string, rec *types.NormalizedRecord) (*types.DownloadedArtifact, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return &types.DownloadedArtifact{
		Path:      path,
		Size:      info.Size(),
		DOI:       rec.DOI,
		SourceURL: rec.PDFURL,
		Skipped:   true,
	}, true
}

// writeFile writes data to destPath through a temporary file in the same
// directory so a partial download never appears under the final name.
func writeFile(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
