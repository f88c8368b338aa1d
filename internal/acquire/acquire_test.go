// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/internal/httputil"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

var keywords = []string{"climate", "action"}

func newDownloader(t *testing.T) *Downloader {
	t.Helper()
	return &Downloader{
		HTTP:      httputil.NewClient(5*time.Second, ""),
		Root:      t.TempDir(),
		Publisher: "WileyLibrary",
		Logger:    zap.NewNop(),
	}
}

func pdfHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(samplePDF)
}

func TestDownload(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		pdfHandler(w, r)
	}))
	defer srv.Close()

	d := newDownloader(t)
	rec := &types.NormalizedRecord{DOI: "10.1029/2023GL100001"}
	rec.PDFURL = PDFDirectURL(srv.URL+"/doi/pdfdirect/", rec.DOI)

	art, err := d.Download(context.Background(), rec, keywords, nil)
	require.NoError(t, err)

	assert.Equal(t, "/doi/pdfdirect/10.1029/2023GL100001", gotPath)
	assert.Equal(t, "download=true", gotQuery)

	wantPath := filepath.Join(d.Root, "WileyLibrary", "climate_action", "10.1029_2023GL100001.pdf")
	assert.Equal(t, wantPath, art.Path)
	assert.Equal(t, int64(len(samplePDF)), art.Size)
	assert.Equal(t, rec.DOI, art.DOI)
	assert.Equal(t, rec.PDFURL, art.SourceURL)
	assert.False(t, art.Skipped)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)

	// No temp files remain.
	entries, err := os.ReadDir(filepath.Dir(wantPath))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestDownload_SkipExisting(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		pdfHandler(w, r)
	}))
	defer srv.Close()

	d := newDownloader(t)
	rec := &types.NormalizedRecord{DOI: "10.1/abc", PDFURL: srv.URL + "/pdf"}

	path := d.PathFor(rec, keywords)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-old"), 0o644))

	art, err := d.Download(context.Background(), rec, keywords, nil)
	require.NoError(t, err)
	assert.True(t, art.Skipped)
	assert.Equal(t, int64(len("%PDF-old")), art.Size)
	assert.Zero(t, calls, "existing file must not be fetched again")

	data, _ := os.ReadFile(path)
	assert.Equal(t, "%PDF-old", string(data), "existing file is not overwritten")
}

func TestDownload_FallsBackToLanding(t *testing.T) {
	var tried []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tried = append(tried, r.URL.String())
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdfdirect/"):
			w.WriteHeader(http.StatusForbidden)
		case r.URL.Query().Get("download") == "true":
			pdfHandler(w, r)
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>article</html>"))
		}
	}))
	defer srv.Close()

	d := newDownloader(t)
	rec := &types.NormalizedRecord{
		DOI:        "10.1/abc",
		PDFURL:     srv.URL + "/pdfdirect/10.1/abc",
		LandingURL: srv.URL + "/doi/10.1/abc",
	}

	art, err := d.Download(context.Background(), rec, keywords, nil)
	require.NoError(t, err)
	assert.Equal(t, rec.LandingURL+"?download=true", art.SourceURL)
	assert.Equal(t, []string{"/pdfdirect/10.1/abc", "/doi/10.1/abc", "/doi/10.1/abc?download=true"}, tried)
}

func TestDownload_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"html body", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>Sign in</html>"))
		}},
		{"octet stream without magic", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("garbage"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := newDownloader(t)
			rec := &types.NormalizedRecord{DOI: "10.1/abc", PDFURL: srv.URL + "/pdf", LandingURL: srv.URL + "/landing"}

			art, err := d.Download(context.Background(), rec, keywords, nil)
			assert.Nil(t, art)
			assert.True(t, errors.Is(err, types.ErrDownload), "got %v", err)

			_, statErr := os.Stat(d.PathFor(rec, keywords))
			assert.True(t, os.IsNotExist(statErr), "no file is written on failure")
		})
	}
}

func TestDownload_NoCandidates(t *testing.T) {
	d := newDownloader(t)
	_, err := d.Download(context.Background(), &types.NormalizedRecord{DOI: "10.1/abc"}, keywords, nil)
	assert.True(t, errors.Is(err, types.ErrDownload))
}

func TestDownload_UsesPrefetchedBytes(t *testing.T) {
	d := newDownloader(t)
	d.HTTP = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request to %s", r.URL)
		return nil, errors.New("no network")
	})}
	rec := &types.NormalizedRecord{DOI: "10.1/abc", PDFURL: "https://example.org/pdf"}

	art, err := d.Download(context.Background(), rec, keywords, samplePDF)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/pdf", art.SourceURL)
	assert.Equal(t, int64(len(samplePDF)), art.Size)
}

func TestDownload_NoDOIUsesContentHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(pdfHandler))
	defer srv.Close()

	d := newDownloader(t)
	rec := &types.NormalizedRecord{LandingURL: srv.URL + "/landing"}

	art, err := d.Download(context.Background(), rec, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Root, "WileyLibrary", "all", ContentSlug(samplePDF)+".pdf"), art.Path)
	assert.False(t, art.Skipped)

	again, err := d.Download(context.Background(), rec, nil, nil)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, art.Path, again.Path)
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	author, email := "Jane Doe", "jane@example.org"
	art := &types.DownloadedArtifact{Path: filepath.Join(dir, "10.1_abc.pdf"), Size: 42, DOI: "10.1/abc", SourceURL: "https://x/pdf"}
	rec := &types.NormalizedRecord{DOI: "10.1/abc", Title: "A Title", Year: 2024, Access: types.AccessOpen, Subjects: []string{"Climate"}}

	require.NoError(t, WriteSidecar(art, rec, types.ExtractionResult{Author: &author, Email: &email}, keywords))
	assert.FileExists(t, filepath.Join(dir, "10.1_abc.yaml"))

	sc, err := ReadSidecar(art.Path)
	require.NoError(t, err)
	assert.Equal(t, *rec, sc.Record)
	assert.Equal(t, keywords, sc.Keywords)
	assert.Equal(t, "Jane Doe", sc.Author)
	assert.Equal(t, "jane@example.org", sc.Email)
	assert.Equal(t, int64(42), sc.Size)
	assert.False(t, sc.HarvestedAt.IsZero())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDownload_OversizedBodyRejected(t *testing.T) {
	old := MaxPDFBytes
	MaxPDFBytes = int64(len(samplePDF)) - 1
	t.Cleanup(func() { MaxPDFBytes = old })

	srv := httptest.NewServer(http.HandlerFunc(pdfHandler))
	defer srv.Close()

	d := newDownloader(t)
	rec := &types.NormalizedRecord{DOI: "10.1029/2023GL100009", PDFURL: srv.URL + "/big.pdf"}

	_, err := d.Download(context.Background(), rec, keywords, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDownload))
	assert.Contains(t, err.Error(), "exceeds")

	_, statErr := os.Stat(d.PathFor(rec, keywords))
	assert.True(t, os.IsNotExist(statErr), "a truncated PDF must not be written")
}
