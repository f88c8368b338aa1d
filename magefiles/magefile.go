//go:build mage

// Package main contains Mage build targets for oa-harvester developer tooling.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/oa-harvester/internal/acquire"
	"github.com/pdiddy/oa-harvester/internal/config"
	"github.com/pdiddy/oa-harvester/internal/store"
)

const (
	binDir  = "bin"
	binName = "oa-harvester"
	cmdPkg  = "./cmd/oa-harvester"
)

// downloadDir honours the same override the CLI does.
func downloadDir() string {
	if d := os.Getenv("OA_HARVESTER_DOWNLOAD_DIR"); d != "" {
		return d
	}
	return config.DefaultDownloadDir
}

// Init creates the download directory.
func Init() error {
	dir := downloadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	fmt.Println("  ", dir)
	fmt.Println("Download directory initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Harvest builds the binary and runs it with the space-separated keywords
// in HARVEST_KEYWORDS. HARVEST_START_PAGE selects the first page.
func Harvest() error {
	mg.Deps(Init, Build)

	keywords := strings.Fields(os.Getenv("HARVEST_KEYWORDS"))
	if len(keywords) == 0 {
		return fmt.Errorf("set HARVEST_KEYWORDS, e.g. HARVEST_KEYWORDS=\"climate action\" mage harvest")
	}
	args := append([]string{"--keywords"}, keywords...)
	if page := os.Getenv("HARVEST_START_PAGE"); page != "" {
		args = append(args, "--start-page", page)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Stats prints what previous harvests left on disk: PDFs, sidecars with an
// author email, and rows in the local SQLite store if one exists.
func Stats() error {
	root := downloadDir()
	pdfs, withEmail := 0, 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		pdfs++
		if sc, err := acquire.ReadSidecar(path); err == nil && sc.Email != "" {
			withEmail++
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("PDFs (%s):              %d\n", root, pdfs)
	fmt.Printf("PDFs with author email:  %d\n", withEmail)

	dbPath := config.DefaultSQLitePath
	if p := os.Getenv("OA_HARVESTER_STORE_SQLITE_PATH"); p != "" {
		dbPath = p
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	s, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	n, err := s.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Metadata rows (%s): %d\n", dbPath, n)
	return nil
}
