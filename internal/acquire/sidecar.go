// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Sidecar is the YAML metadata written next to each PDF.
type Sidecar struct {
	Record      types.NormalizedRecord `yaml:"record"`
	Keywords    []string               `yaml:"keywords"`
	Author      string                 `yaml:"author,omitempty"`
	Email       string                 `yaml:"email,omitempty"`
	SourceURL   string                 `yaml:"source_url"`
	Size        int64                  `yaml:"size"`
	HarvestedAt time.Time              `yaml:"harvested_at"`
}

// SidecarPath returns the metadata path for a PDF path.
func SidecarPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, ".pdf") + ".yaml"
}

// WriteSidecar records rec and the extraction result next to art.
func WriteSidecar(art *types.DownloadedArtifact, rec *types.NormalizedRecord, ext types.ExtractionResult, keywords []string) error {
	sc := Sidecar{
		Record:      *rec,
		Keywords:    keywords,
		Author:      ext.AuthorOr(""),
		Email:       ext.EmailOr(""),
		SourceURL:   art.SourceURL,
		Size:        art.Size,
		HarvestedAt: time.Now().UTC(),
	}
	data, err := yaml.Marshal(&sc)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(SidecarPath(art.Path), data, 0o644)
}

// ReadSidecar reads the metadata written for pdfPath.
func ReadSidecar(pdfPath string) (*Sidecar, error) {
	data, err := os.ReadFile(SidecarPath(pdfPath))
	if err != nil {
		return nil, err
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
