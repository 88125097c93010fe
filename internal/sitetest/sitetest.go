// Package sitetest builds fake site-packages trees for tests.
package sitetest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Dist describes one installed distribution.
type Dist struct {
	Name    string
	Version string

	// TopLevel is written to top_level.txt when non-empty.
	TopLevel []string

	// Record lists installed file paths written to RECORD (or
	// installed-files.txt for eggs).
	Record []string

	// Egg writes an .egg-info directory instead of .dist-info.
	Egg bool
}

// New creates an empty site-packages directory and installs dists into it.
func New(t *testing.T, dists ...Dist) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "site-packages")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	for _, d := range dists {
		Install(t, dir, d)
	}

	return dir
}

// Install writes the metadata directory for d into dir.
func Install(t *testing.T, dir string, d Dist) string {
	t.Helper()

	base := strings.ReplaceAll(d.Name, "-", "_") + "-" + d.Version

	suffix, metaFile, filesFile := ".dist-info", "METADATA", "RECORD"
	if d.Egg {
		suffix, metaFile, filesFile = ".egg-info", "PKG-INFO", "installed-files.txt"
	}

	metaDir := filepath.Join(dir, base+suffix)
	require.NoError(t, os.MkdirAll(metaDir, 0o750))

	meta := fmt.Sprintf("Metadata-Version: 2.1\nName: %s\nVersion: %s\nSummary: test fixture\n\nLong description.\nName: ignored\n",
		d.Name, d.Version)
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, metaFile), []byte(meta), 0o600))

	if len(d.TopLevel) > 0 {
		content := strings.Join(d.TopLevel, "\n") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(metaDir, "top_level.txt"), []byte(content), 0o600))
	}

	if len(d.Record) > 0 {
		var sb strings.Builder

		for _, f := range d.Record {
			if d.Egg {
				sb.WriteString(f + "\n")
			} else {
				sb.WriteString(f + ",sha256=abc,123\n")
			}
		}

		require.NoError(t, os.WriteFile(filepath.Join(metaDir, filesFile), []byte(sb.String()), 0o600))
	}

	return metaDir
}
