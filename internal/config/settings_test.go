// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvester/internal/acquire"
	"github.com/pdiddy/oa-harvester/internal/sru"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

func TestHarvest_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Harvest(v)
	require.NoError(t, err)

	assert.Equal(t, 20, BatchSize(v))
	assert.Equal(t, 100, MaxItems(v))
	assert.Equal(t, time.Second, cfg.Search.PageDelay)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, sru.DefaultBaseURL, cfg.Search.BaseURL)
	assert.True(t, cfg.Search.ArticlesOnly)
	assert.True(t, cfg.Access.Probe)
	assert.Equal(t, "downloads", cfg.Acquisition.DownloadDir)
	assert.Equal(t, "WileyLibrary", cfg.Acquisition.Publisher)
	assert.Equal(t, acquire.DefaultPDFBase, cfg.Acquisition.PDFBaseURL)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, types.DriverPostgres, cfg.Store.Driver)
	assert.False(t, cfg.S3.Enabled())
}

func TestHarvest_EnvOverride(t *testing.T) {
	t.Setenv("OA_HARVESTER_DOWNLOAD_DIR", "/data/pdfs")
	t.Setenv("OA_HARVESTER_STORE_DRIVER", "SQLite")
	t.Setenv("OA_HARVESTER_S3_BUCKET", "papers")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Harvest(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/pdfs", cfg.Acquisition.DownloadDir)
	assert.Equal(t, types.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "papers", cfg.S3.Bucket)
}

func TestHarvest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero timeout", KeyTimeout, 0},
		{"negative delay", KeyPageDelay, -time.Second},
		{"empty download dir", KeyDownloadDir, ""},
		{"empty publisher", KeyPublisher, ""},
		{"unknown driver", KeyStoreDriver, "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := Harvest(v)
			assert.True(t, errors.Is(err, types.ErrConfiguration), "got %v", err)
		})
	}
}
