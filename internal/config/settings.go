// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvester/internal/acquire"
	"github.com/pdiddy/oa-harvester/internal/httputil"
	"github.com/pdiddy/oa-harvester/internal/sru"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// EnvPrefix namespaces environment overrides: OA_HARVESTER_DOWNLOAD_DIR
// sets download_dir.
const EnvPrefix = "OA_HARVESTER"

// Setting keys.
const (
	KeyBatchSize    = "batch_size"
	KeyMaxItems     = "max_items"
	KeyPageDelay    = "page_delay"
	KeyTimeout      = "timeout"
	KeyUserAgent    = "user_agent"
	KeySRUURL       = "sru_url"
	KeyPDFBaseURL   = "pdf_base_url"
	KeyPublisher    = "publisher"
	KeyDownloadDir  = "download_dir"
	KeyProbe        = "probe"
	KeyArticlesOnly = "articles_only"
	KeyPersist      = "persist"
	KeyStoreDriver  = "store.driver"
	KeySQLitePath   = "store.sqlite_path"
	KeyRequireEmail = "require_email"
	KeyMetricsFile  = "metrics_file"
	KeyVerbose      = "verbose"
	KeyEnvFile      = "env_file"
	KeySecretsDir   = "secrets_dir"
	KeyS3Bucket     = "s3.bucket"
	KeyS3Endpoint   = "s3.endpoint"
	KeyS3Region     = "s3.region"
	KeyS3AccessKey  = "s3.access_key"
	KeyS3SecretKey  = "s3.secret_key"
)

// Defaults for a run.
const (
	DefaultBatchSize   = 20
	DefaultMaxItems    = 100
	DefaultPageDelay   = time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultPublisher   = "WileyLibrary"
	DefaultDownloadDir = "downloads"
	DefaultSQLitePath  = "oa-harvester.db"
	DefaultEnvFile     = ".env"
	DefaultSecretsDir  = ".secrets/"
)

// SetDefaults registers defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBatchSize, DefaultBatchSize)
	v.SetDefault(KeyMaxItems, DefaultMaxItems)
	v.SetDefault(KeyPageDelay, DefaultPageDelay)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyUserAgent, httputil.DefaultUserAgent)
	v.SetDefault(KeySRUURL, sru.DefaultBaseURL)
	v.SetDefault(KeyPDFBaseURL, acquire.DefaultPDFBase)
	v.SetDefault(KeyPublisher, DefaultPublisher)
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeyProbe, true)
	v.SetDefault(KeyArticlesOnly, true)
	v.SetDefault(KeyPersist, false)
	v.SetDefault(KeyStoreDriver, string(types.DriverPostgres))
	v.SetDefault(KeySQLitePath, DefaultSQLitePath)
	v.SetDefault(KeyRequireEmail, false)
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyEnvFile, DefaultEnvFile)
	v.SetDefault(KeySecretsDir, DefaultSecretsDir)
	v.SetDefault(KeyS3Bucket, "")
	v.SetDefault(KeyS3Endpoint, "")
	v.SetDefault(KeyS3Region, "")
	v.SetDefault(KeyS3AccessKey, "")
	v.SetDefault(KeyS3SecretKey, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Harvest builds and validates the run configuration from v.
func Harvest(v *viper.Viper) (types.HarvestConfig, error) {
	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration(KeyTimeout),
		UserAgent: v.GetString(KeyUserAgent),
	}
	cfg := types.HarvestConfig{
		Search: types.SearchConfig{
			HTTPConfig:   httpCfg,
			BaseURL:      v.GetString(KeySRUURL),
			PageDelay:    v.GetDuration(KeyPageDelay),
			ArticlesOnly: v.GetBool(KeyArticlesOnly),
		},
		Access: types.AccessConfig{
			HTTPConfig: httpCfg,
			Probe:      v.GetBool(KeyProbe),
		},
		Acquisition: types.AcquisitionConfig{
			HTTPConfig:  httpCfg,
			DownloadDir: v.GetString(KeyDownloadDir),
			Publisher:   v.GetString(KeyPublisher),
			PDFBaseURL:  v.GetString(KeyPDFBaseURL),
		},
		Store: types.StoreConfig{
			Enabled:      v.GetBool(KeyPersist),
			Driver:       types.StoreDriver(strings.ToLower(v.GetString(KeyStoreDriver))),
			SQLitePath:   v.GetString(KeySQLitePath),
			RequireEmail: v.GetBool(KeyRequireEmail),
		},
		S3: types.S3Config{
			Bucket:    v.GetString(KeyS3Bucket),
			Endpoint:  v.GetString(KeyS3Endpoint),
			Region:    v.GetString(KeyS3Region),
			AccessKey: v.GetString(KeyS3AccessKey),
			SecretKey: v.GetString(KeyS3SecretKey),
		},
		MetricsFile: v.GetString(KeyMetricsFile),
	}
	return cfg, validate(cfg)
}

// BatchSize returns the records-per-page setting. It belongs to the search
// query rather than to a stage, so Harvest does not carry it.
func BatchSize(v *viper.Viper) int {
	return v.GetInt(KeyBatchSize)
}

// MaxItems returns the item cap for a run; 0 means no limit.
func MaxItems(v *viper.Viper) int {
	return v.GetInt(KeyMaxItems)
}

func validate(cfg types.HarvestConfig) error {
	if cfg.Search.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", types.ErrConfiguration)
	}
	if cfg.Search.PageDelay < 0 {
		return fmt.Errorf("%w: page delay must not be negative", types.ErrConfiguration)
	}
	if cfg.Acquisition.DownloadDir == "" {
		return fmt.Errorf("%w: download directory is empty", types.ErrConfiguration)
	}
	if cfg.Acquisition.Publisher == "" {
		return fmt.Errorf("%w: publisher label is empty", types.ErrConfiguration)
	}
	switch cfg.Store.Driver {
	case types.DriverPostgres:
	case types.DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite path is empty", types.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q (want postgres or sqlite)", types.ErrConfiguration, cfg.Store.Driver)
	}
	return nil
}
