// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest drives one run: it pages through search results and takes
// each record through the access filter, the downloader, the extractor and
// the insert gate, one record at a time.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/internal/access"
	"github.com/pdiddy/oa-harvester/internal/acquire"
	"github.com/pdiddy/oa-harvester/internal/metrics"
	"github.com/pdiddy/oa-harvester/internal/sru"
	"github.com/pdiddy/oa-harvester/internal/storage"
	"github.com/pdiddy/oa-harvester/internal/store"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// PageFetcher returns one page of raw search results.
type PageFetcher interface {
	FetchPage(ctx context.Context, q types.SearchQuery) (*sru.Page, error)
}

// AccessDecider decides whether a record may be downloaded.
type AccessDecider interface {
	Decide(ctx context.Context, rec *types.NormalizedRecord) access.Verdict
}

// Downloader writes a record's PDF to disk.
type Downloader interface {
	Download(ctx context.Context, rec *types.NormalizedRecord, keywords []string, prefetched []byte) (*types.DownloadedArtifact, error)
}

// Extractor guesses the author and email of a downloaded PDF.
type Extractor interface {
	Extract(path string) (types.ExtractionResult, error)
}

// Submitter persists metadata rows that are not yet stored.
type Submitter interface {
	Submit(ctx context.Context, row types.MetadataRow) (store.Outcome, error)
}

// Uploader mirrors a downloaded PDF to object storage.
type Uploader interface {
	Upload(ctx context.Context, art *types.DownloadedArtifact, key, publisher string) (string, error)
}

// Harvester wires the stages of a run. Gate and Mirror are optional.
type Harvester struct {
	Pages    PageFetcher
	Filter   AccessDecider
	Download Downloader
	Extract  Extractor

	// Gate persists metadata. Nil disables persistence.
	Gate Submitter

	// Mirror uploads new PDFs. Nil disables mirroring.
	Mirror Uploader

	// PDFBase is the pdfdirect endpoint DOIs are resolved against.
	PDFBase string

	// Publisher labels download paths, object keys and metadata rows.
	Publisher string

	// Metrics is optional.
	Metrics *metrics.Metrics

	Logger *zap.Logger

	// Out receives one status line per record and the final summary.
	Out io.Writer
}

// Run harvests q. It stops when the server reports no further page, when
// the page budget or the item cap is reached, or when ctx is cancelled
// between records. Per-record failures are counted and logged; a page
// fetch failure aborts the run and is returned together with the counts
// gathered so far.
func (h *Harvester) Run(ctx context.Context, q types.SearchQuery) (Summary, error) {
	log := h.logger()
	sum := Summary{PageSize: q.PageSize()}
	seen := make(map[string]bool)
	budget := q.PageBudget()
	cursor := q

	log.Info("harvest starting",
		zap.Strings("keywords", q.Keywords),
		zap.Int("start_record", q.Cursor),
		zap.Int("max_items", q.MaxItems),
		zap.Int("page_budget", budget))

pages:
	for budget == 0 || sum.Pages < budget {
		if ctx.Err() != nil {
			sum.Cancelled = true
			next := cursor.Cursor
			sum.NextCursor = &next
			break
		}

		page, err := h.Pages.FetchPage(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				sum.Cancelled = true
				next := cursor.Cursor
				sum.NextCursor = &next
				break
			}
			log.Error("page fetch failed, aborting", zap.Int("start_record", cursor.Cursor), zap.Error(err))
			sum.Write(h.out())
			return sum, err
		}
		sum.Pages++
		if h.Metrics != nil {
			h.Metrics.Pages.Inc()
		}
		log.Info("page fetched",
			zap.Int("start_record", cursor.Cursor),
			zap.Int("records", len(page.Records)),
			zap.Int("total", page.Total))

		for i, raw := range page.Records {
			if q.MaxItems > 0 && sum.Processed() >= q.MaxItems {
				sum.Capped = true
				next := cursor.Cursor + i
				sum.NextCursor = &next
				break pages
			}
			if ctx.Err() != nil {
				sum.Cancelled = true
				next := cursor.Cursor + i
				sum.NextCursor = &next
				break pages
			}
			h.process(ctx, raw, q.Keywords, seen, &sum)
		}

		if page.Next == nil || *page.Next <= cursor.Cursor {
			sum.NextCursor = nil
			break
		}
		next := *page.Next
		sum.NextCursor = &next
		cursor = cursor.WithCursor(next)
	}

	if q.MaxItems > 0 && sum.Processed() >= q.MaxItems {
		sum.Capped = true
	}
	log.Info("harvest finished",
		zap.Int("pages", sum.Pages),
		zap.Int("downloaded", sum.Downloaded),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Bool("cancelled", sum.Cancelled))
	sum.Write(h.out())
	return sum, nil
}

// process takes one record through every stage. Nothing here aborts the run.
func (h *Harvester) process(ctx context.Context, raw sru.RawRecord, keywords []string, seen map[string]bool, sum *Summary) {
	rec := sru.Normalize(raw)
	rec.PDFURL = acquire.ResolvePDFURL(h.PDFBase, &rec)
	sum.Seen++
	if h.Metrics != nil {
		h.Metrics.Records.Inc()
	}

	label := recordLabel(&rec)
	log := h.logger().With(zap.String("doi", rec.DOI), zap.String("title", rec.Title))
	w := h.out()

	verdict := h.Filter.Decide(ctx, &rec)
	if h.Metrics != nil {
		h.Metrics.Access.WithLabelValues(strconv.FormatBool(verdict.Pass), verdict.Reason).Inc()
	}
	if !verdict.Pass {
		sum.Rejected++
		log.Debug("not open access", zap.String("stage", "access"), zap.String("reason", verdict.Reason))
		fmt.Fprintf(w, "rejected: %s (%s)\n", label, verdict.Reason)
		return
	}

	if rec.HasDOI() {
		hash := types.DedupHash(rec.DOI, rec.Title)
		if seen[hash] {
			sum.RunDuplicates++
			log.Info("already handled in this run", zap.String("hash", hash))
			fmt.Fprintf(w, "skipped: %s (duplicate in run)\n", label)
			return
		}
		seen[hash] = true
	}

	art, err := h.Download.Download(ctx, &rec, keywords, verdict.Body)
	if err != nil {
		sum.Failed++
		h.count(func(m *metrics.Metrics) { m.Downloads.WithLabelValues("failed").Inc() })
		log.Warn("download failed", zap.String("stage", "download"), zap.String("url", rec.PDFURL), zap.Error(err))
		fmt.Fprintf(w, "failed:  %s (%v)\n", label, err)
		return
	}
	if art.Skipped {
		sum.Skipped++
		h.count(func(m *metrics.Metrics) { m.Downloads.WithLabelValues("skipped").Inc() })
		fmt.Fprintf(w, "skipped: %s (already exists)\n", label)
	} else {
		sum.Downloaded++
		h.count(func(m *metrics.Metrics) {
			m.Downloads.WithLabelValues("downloaded").Inc()
			m.DownloadBytes.Add(float64(art.Size))
		})
		fmt.Fprintf(w, "downloaded: %s (%d bytes)\n", label, art.Size)
		h.mirror(ctx, art, keywords, sum, log)
	}

	ext, err := h.Extract.Extract(art.Path)
	switch {
	case err != nil:
		sum.ExtractFailed++
		h.count(func(m *metrics.Metrics) { m.Extractions.WithLabelValues("failed").Inc() })
		log.Warn("extraction failed", zap.String("stage", "extract"), zap.String("path", art.Path), zap.Error(err))
		ext = types.ExtractionResult{}
	case ext.Found():
		sum.EmailsFound++
		h.count(func(m *metrics.Metrics) { m.Extractions.WithLabelValues("found").Inc() })
		log.Info("author contact found", zap.String("author", ext.AuthorOr("")), zap.String("email", ext.EmailOr("")))
	default:
		h.count(func(m *metrics.Metrics) { m.Extractions.WithLabelValues("none").Inc() })
	}

	if err := acquire.WriteSidecar(art, &rec, ext, keywords); err != nil {
		log.Warn("writing metadata sidecar", zap.String("path", art.Path), zap.Error(err))
	}

	if h.Gate == nil {
		return
	}
	row := types.NewMetadataRow(&rec, ext, art, keywords, h.Publisher)
	outcome, err := h.Gate.Submit(ctx, row)
	h.count(func(m *metrics.Metrics) { m.Persist.WithLabelValues(outcome.String()).Inc() })
	switch outcome {
	case store.OutcomeInserted:
		sum.Inserted++
	case store.OutcomeDuplicate:
		sum.Stored++
	case store.OutcomeNoDOI, store.OutcomeNoEmail:
		sum.NotPersisted++
	default:
		sum.PersistFailed++
		log.Error("persisting metadata", zap.String("stage", "persist"), zap.Error(err))
	}
}

func (h *Harvester) mirror(ctx context.Context, art *types.DownloadedArtifact, keywords []string, sum *Summary, log *zap.Logger) {
	if h.Mirror == nil {
		return
	}
	key := storage.ObjectKey(h.Publisher, keywords, art.Path)
	loc, err := h.Mirror.Upload(ctx, art, key, h.Publisher)
	if err != nil {
		sum.MirrorFailed++
		h.count(func(m *metrics.Metrics) { m.Mirror.WithLabelValues("failed").Inc() })
		log.Warn("mirror upload failed", zap.String("stage", "mirror"), zap.String("key", key), zap.Error(err))
		return
	}
	sum.Mirrored++
	h.count(func(m *metrics.Metrics) { m.Mirror.WithLabelValues("uploaded").Inc() })
	log.Debug("mirrored", zap.String("stage", "mirror"), zap.String("location", loc))
}

func (h *Harvester) count(f func(m *metrics.Metrics)) {
	if h.Metrics != nil {
		f(h.Metrics)
	}
}

func (h *Harvester) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Harvester) out() io.Writer {
	if h.Out == nil {
		return io.Discard
	}
	return h.Out
}

// recordLabel names a record in status lines: its DOI, else its title.
func recordLabel(rec *types.NormalizedRecord) string {
	if rec.HasDOI() {
		return rec.DOI
	}
	if rec.Title != "" {
		return fmt.Sprintf("%q", rec.Title)
	}
	return "(untitled record)"
}
