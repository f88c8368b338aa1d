// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/internal/access"
	"github.com/pdiddy/oa-harvester/internal/acquire"
	"github.com/pdiddy/oa-harvester/internal/config"
	"github.com/pdiddy/oa-harvester/internal/extract"
	"github.com/pdiddy/oa-harvester/internal/harvest"
	"github.com/pdiddy/oa-harvester/internal/httputil"
	"github.com/pdiddy/oa-harvester/internal/metrics"
	"github.com/pdiddy/oa-harvester/internal/sru"
	"github.com/pdiddy/oa-harvester/internal/storage"
	"github.com/pdiddy/oa-harvester/internal/store"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// flagKeys maps harvest flags to setting keys.
var flagKeys = map[string]string{
	"batch-size":    config.KeyBatchSize,
	"max-items":     config.KeyMaxItems,
	"page-delay":    config.KeyPageDelay,
	"timeout":       config.KeyTimeout,
	"user-agent":    config.KeyUserAgent,
	"sru-url":       config.KeySRUURL,
	"pdf-base-url":  config.KeyPDFBaseURL,
	"publisher":     config.KeyPublisher,
	"download-dir":  config.KeyDownloadDir,
	"probe":         config.KeyProbe,
	"articles-only": config.KeyArticlesOnly,
	"persist":       config.KeyPersist,
	"store-driver":  config.KeyStoreDriver,
	"sqlite-path":   config.KeySQLitePath,
	"require-email": config.KeyRequireEmail,
	"metrics-file":  config.KeyMetricsFile,
	"secrets-dir":   config.KeySecretsDir,
	"s3-bucket":     config.KeyS3Bucket,
	"s3-endpoint":   config.KeyS3Endpoint,
	"s3-region":     config.KeyS3Region,
}

func init() {
	f := rootCmd.Flags()
	f.StringSlice("keywords", nil, "search keywords (repeatable, comma-separated; trailing arguments are added)")
	f.Int("start-page", 1, "1-based result page to start from")
	f.Int("batch-size", config.DefaultBatchSize, "records per page (the server returns at most 20)")
	f.Int("max-items", config.DefaultMaxItems, "stop after this many PDFs are on disk (0 = no limit)")
	f.Duration("page-delay", config.DefaultPageDelay, "pause between result pages")
	f.Duration("timeout", config.DefaultTimeout, "HTTP request timeout")
	f.String("user-agent", httputil.DefaultUserAgent, "browser User-Agent sent with every request")
	f.String("sru-url", sru.DefaultBaseURL, "SRU search endpoint")
	f.String("pdf-base-url", acquire.DefaultPDFBase, "endpoint DOIs are appended to for direct PDF download")
	f.String("publisher", config.DefaultPublisher, "publisher label for paths and metadata")
	f.String("download-dir", config.DefaultDownloadDir, "root directory for downloaded PDFs")
	f.Bool("probe", true, "probe PDF URLs of records whose access status is not stated")
	f.Bool("articles-only", true, "restrict results to dc.type=article")
	f.Bool("persist", false, "write metadata rows to the store")
	f.String("store-driver", string(types.DriverPostgres), "metadata store: postgres or sqlite")
	f.String("sqlite-path", config.DefaultSQLitePath, "database file for --store-driver sqlite")
	f.Bool("require-email", false, "only persist articles with an extracted author email")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")
	f.String("secrets-dir", config.DefaultSecretsDir, "directory of db-* secret files")
	f.String("s3-bucket", "", "mirror downloaded PDFs to this S3 bucket")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL (path-style addressing)")
	f.String("s3-region", "", "S3 region (default us-east-1)")

	for name, key := range flagKeys {
		viper.BindPFlag(key, f.Lookup(name))
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	keywords = collectKeywords(keywords, args)
	if len(keywords) == 0 {
		return fmt.Errorf("provide one or more keywords, e.g. --keywords climate action")
	}
	startPage, _ := cmd.Flags().GetInt("start-page")

	v := viper.GetViper()
	cfg, err := config.Harvest(v)
	if err != nil {
		return err
	}
	batch := config.BatchSize(v)
	q, err := types.NewSearchQuery(keywords, startPage, batch, config.MaxItems(v))
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	log, err := newLogger(v.GetBool(config.KeyVerbose))
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, closeFn, err := buildHarvester(ctx, cfg, v, log)
	if err != nil {
		log.Error("configuration", zap.Error(err))
		return err
	}
	defer closeFn()

	m := metrics.New()
	h.Metrics = m
	h.Out = os.Stdout

	_, runErr := h.Run(ctx, q)

	if cfg.MetricsFile != "" {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("writing metrics file", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}
	return runErr
}

// collectKeywords merges --keywords values with positional arguments so
// that "--keywords climate action" keeps both words.
func collectKeywords(flagged, args []string) []string {
	var out []string
	for _, k := range append(append([]string(nil), flagged...), args...) {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// buildHarvester wires every stage from cfg. The returned function releases
// the metadata store.
func buildHarvester(ctx context.Context, cfg types.HarvestConfig, v *viper.Viper, log *zap.Logger) (*harvest.Harvester, func(), error) {
	client := httputil.NewClient(cfg.Search.Timeout, cfg.Search.UserAgent)

	h := &harvest.Harvester{
		Pages: &sru.Client{
			HTTP:         client,
			BaseURL:      cfg.Search.BaseURL,
			ArticlesOnly: cfg.Search.ArticlesOnly,
			Pacer:        httputil.NewPacer(cfg.Search.PageDelay),
			Logger:       log,
		},
		Filter: &access.Filter{HTTP: client, Probe: cfg.Access.Probe, Logger: log},
		Download: &acquire.Downloader{
			HTTP:      client,
			Root:      cfg.Acquisition.DownloadDir,
			Publisher: cfg.Acquisition.Publisher,
			Logger:    log,
		},
		Extract:   &extract.Extractor{Logger: log},
		PDFBase:   cfg.Acquisition.PDFBaseURL,
		Publisher: cfg.Acquisition.Publisher,
		Logger:    log,
	}
	closeFn := func() {}

	if cfg.S3.Enabled() {
		mirror, err := storage.NewS3Mirror(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		h.Mirror = mirror
		log.Info("mirroring PDFs", zap.String("bucket", cfg.S3.Bucket))
	}

	if cfg.Store.Enabled {
		s, err := openStore(cfg.Store, v, log)
		if err != nil {
			return nil, nil, err
		}
		h.Gate = &store.Gate{Store: s, RequireEmail: cfg.Store.RequireEmail, Logger: log}
		closeFn = func() {
			if err := s.Close(); err != nil {
				log.Warn("closing metadata store", zap.Error(err))
			}
		}
	}
	return h, closeFn, nil
}

// openStore opens the configured metadata store. Postgres parameters come
// from the environment, then the config file, then the secrets directory.
func openStore(sc types.StoreConfig, v *viper.Viper, log *zap.Logger) (store.Store, error) {
	if sc.Driver == types.DriverSQLite {
		log.Info("persisting metadata", zap.String("driver", "sqlite"), zap.String("path", sc.SQLitePath))
		return store.OpenSQLite(sc.SQLitePath)
	}

	params, from, err := config.ResolveDB(
		config.EnvSource{},
		config.FileSource{Path: v.ConfigFileUsed()},
		config.SecretsSource{Dir: v.GetString(config.KeySecretsDir)},
	)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("%w: persistence is enabled but no database is configured (set DB_HOST, DB_NAME, DB_USER and DB_PASSWORD)", types.ErrConfiguration)
	}
	log.Info("persisting metadata", zap.String("driver", "postgres"), zap.String("db", params.Redacted()), zap.String("source", from))
	return store.OpenPostgres(*params)
}
