// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves run settings and database connection parameters.
// Database parameters come from an ordered list of sources; the first source
// that yields a complete set wins.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Source yields database parameters. A source with nothing to offer returns
// (nil, nil).
type Source interface {
	Name() string
	Load() (*types.DBParams, error)
}

// ResolveDB tries sources in order and returns the first complete parameter
// set with defaults applied, or nil when no source is complete. A source
// that fails to load is a configuration error.
func ResolveDB(sources ...Source) (*types.DBParams, string, error) {
	for _, src := range sources {
		p, err := src.Load()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %v", types.ErrConfiguration, src.Name(), err)
		}
		if p != nil && p.Complete() {
			resolved := p.WithDefaults()
			return &resolved, src.Name(), nil
		}
	}
	return nil, "", nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: loading %s: %v", types.ErrConfiguration, path, err)
	}
	return nil
}

// EnvSource reads DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD and
// DB_SSLMODE.
type EnvSource struct{}

func (EnvSource) Name() string { return "environment" }

func (EnvSource) Load() (*types.DBParams, error) {
	var p types.DBParams
	if err := envconfig.Process("", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FileSource reads the database section of a YAML config file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "config file " + s.Path }

func (s FileSource) Load() (*types.DBParams, error) {
	if s.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		Database *types.DBParams `yaml:"database"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return doc.Database, nil
}

// Secret file names read by SecretsSource.
const (
	SecretDBHost     = "db-host"
	SecretDBPort     = "db-port"
	SecretDBName     = "db-name"
	SecretDBUser     = "db-user"
	SecretDBPassword = "db-password"
)

// SecretsSource reads one-value files from a secrets directory.
type SecretsSource struct {
	Dir string
}

func (s SecretsSource) Name() string { return "secrets " + s.Dir }

func (s SecretsSource) Load() (*types.DBParams, error) {
	secrets, err := LoadSecrets(s.Dir)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, nil
	}
	p := &types.DBParams{
		Host:     secrets[SecretDBHost],
		Name:     secrets[SecretDBName],
		User:     secrets[SecretDBUser],
		Password: secrets[SecretDBPassword],
	}
	if port, ok := secrets[SecretDBPort]; ok {
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid port %q", SecretDBPort, port)
		}
		p.Port = n
	}
	return p, nil
}
