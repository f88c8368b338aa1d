// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"net/url"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the browser User-Agent sent with every request. The SRU
	// endpoint rejects obvious bots with HTTP 403.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the SRU page fetcher.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the SRU endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PageDelay is the courtesy pause between consecutive page requests (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// ArticlesOnly appends "AND dc.type=article" to the CQL query.
	ArticlesOnly bool `json:"articles_only" yaml:"articles_only"`
}

// AccessConfig holds settings for the open-access filter.
type AccessConfig struct {
	HTTPConfig `yaml:",inline"`

	// Probe enables the HEAD/GET probe for records whose metadata does not
	// state their access status.
	Probe bool `json:"probe" yaml:"probe"`
}

// AcquisitionConfig holds settings for the PDF downloader.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is the root directory for downloaded PDFs.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// Publisher namespaces download paths and fills publisher_name.
	Publisher string `json:"publisher" yaml:"publisher"`

	// PDFBaseURL is the pdfdirect endpoint a DOI is appended to.
	PDFBaseURL string `json:"pdf_base_url" yaml:"pdf_base_url"`
}

// StoreDriver selects the persistence backend.
type StoreDriver string

const (
	DriverPostgres StoreDriver = "postgres"
	DriverSQLite   StoreDriver = "sqlite"
)

// StoreConfig holds settings for the dedup/insert gate.
type StoreConfig struct {
	// Enabled turns on metadata persistence.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Driver selects postgres or sqlite.
	Driver StoreDriver `json:"driver" yaml:"driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	// RequireEmail skips the insert for records without an extracted email.
	RequireEmail bool `json:"require_email" yaml:"require_email"`
}

// S3Config holds settings for the optional S3-compatible PDF mirror.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Region    string `json:"region" yaml:"region"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// HarvestConfig groups all stage configurations for one run.
type HarvestConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Access      AccessConfig      `json:"access" yaml:"access"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Store       StoreConfig       `json:"store" yaml:"store"`
	S3          S3Config          `json:"s3" yaml:"s3"`

	// MetricsFile, when set, receives the run's Prometheus metrics in text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// DBParams holds Postgres connection parameters.
type DBParams struct {
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	Name     string `yaml:"name" envconfig:"DB_NAME"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	SSLMode  string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
}

// Complete reports whether the parameters are sufficient to connect.
// Port and SSLMode have defaults and are not required.
func (p DBParams) Complete() bool {
	return p.Host != "" && p.Name != "" && p.User != "" && p.Password != ""
}

// WithDefaults fills in the default port and sslmode.
func (p DBParams) WithDefaults() DBParams {
	if p.Port == 0 {
		p.Port = 5432
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
	return p
}

// DSN returns the Postgres keyword/value connection string.
func (p DBParams) DSN() string {
	p = p.WithDefaults()
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode)
}

// Redacted returns a loggable description without the password.
func (p DBParams) Redacted() string {
	p = p.WithDefaults()
	u := url.URL{Scheme: "postgres", User: url.User(p.User), Host: fmt.Sprintf("%s:%d", p.Host, p.Port), Path: "/" + p.Name}
	return u.String()
}
