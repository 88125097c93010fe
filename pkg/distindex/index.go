// Package distindex builds the read-only module index that maps importable
// Python module names to the installed distributions providing them.
package distindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

// Sentinel errors for index construction.
var (
	// ErrIndexBuild is returned when the index cannot be built.
	ErrIndexBuild = errors.New("build module index")

	// ErrNoSitePackages is returned when no site-packages directory is available.
	ErrNoSitePackages = errors.New("no site-packages directory found")
)

// Distribution is an installed (or aliased) distribution.
type Distribution struct {
	// Name is the canonical name as written in the metadata.
	Name string

	// Version is empty when unknown.
	Version string

	// Path is the metadata directory. Empty for aliases of distributions
	// that are not installed.
	Path string
}

// Key returns the normalized distribution name.
func (d Distribution) Key() string {
	return NormalizeDistribution(d.Name)
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Aliases override scanned metadata, keyed by module name.
	Aliases map[string]Alias

	// DisableBuiltinAliases turns off the built-in alias table. Built-in
	// aliases only apply when their distribution is installed.
	DisableBuiltinAliases bool

	Logger *slog.Logger
}

// Index maps normalized module names to the distributions providing them.
// It is immutable after Build and safe for concurrent reads.
type Index struct {
	modules       map[string][]Distribution
	distributions int
}

// Build scans the metadata directories of every site-packages directory in
// dirs. When the same distribution is installed more than once, the record
// with the highest version wins; on equal versions the earlier directory
// wins.
func Build(ctx context.Context, dirs []string, opts BuildOptions) (*Index, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrIndexBuild, ErrNoSitePackages)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	installed := make(map[string]record)

	for _, dir := range dirs {
		err := scanSitePackages(ctx, dir, installed, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIndexBuild, err)
		}
	}

	idx := &Index{
		modules:       make(map[string][]Distribution),
		distributions: len(installed),
	}

	for _, key := range sortedRecordKeys(installed) {
		rec := installed[key]
		for _, module := range rec.modules {
			idx.add(NormalizeModule(module), rec.dist)
		}
	}

	if !opts.DisableBuiltinAliases {
		for module, alias := range BuiltinAliases() {
			if _, known := idx.modules[module]; known {
				continue
			}

			if rec, ok := installed[NormalizeDistribution(alias.Distribution)]; ok {
				idx.modules[module] = []Distribution{rec.dist}
			}
		}
	}

	for module, alias := range opts.Aliases {
		idx.modules[NormalizeModule(module)] = []Distribution{aliasTarget(alias, installed)}
	}

	for module := range idx.modules {
		sortDistributions(idx.modules[module])
	}

	logger.DebugContext(ctx, "module index built",
		"site_packages", len(dirs),
		"distributions", idx.distributions,
		"modules", len(idx.modules))

	return idx, nil
}

func scanSitePackages(ctx context.Context, dir string, installed map[string]record, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read site-packages %s: %w", dir, err)
	}

	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !entry.IsDir() || !isMetadataDir(entry.Name()) {
			continue
		}

		rec, readErr := readRecord(filepath.Join(dir, entry.Name()))
		if errors.Is(readErr, errNoMetadata) {
			logger.WarnContext(ctx, "skipping metadata directory", "error", readErr)

			continue
		}

		if readErr != nil {
			return readErr
		}

		key := rec.dist.Key()
		if prev, dup := installed[key]; dup {
			if CompareVersions(rec.dist.Version, prev.dist.Version) <= 0 {
				logger.DebugContext(ctx, "duplicate distribution ignored",
					"name", rec.dist.Name, "version", rec.dist.Version, "kept", prev.dist.Version)

				continue
			}
		}

		installed[key] = rec
	}

	return nil
}

func (idx *Index) add(module string, dist Distribution) {
	if module == "" {
		return
	}

	for _, existing := range idx.modules[module] {
		if existing.Key() == dist.Key() {
			return
		}
	}

	idx.modules[module] = append(idx.modules[module], dist)
}

// aliasTarget resolves an alias to the installed record when there is one.
// A version pinned in the alias wins over the installed version.
func aliasTarget(alias Alias, installed map[string]record) Distribution {
	dist := Distribution{Name: alias.Distribution}

	if rec, ok := installed[NormalizeDistribution(alias.Distribution)]; ok {
		dist = rec.dist
	}

	if alias.Version != "" {
		dist.Version = alias.Version
	}

	return dist
}

// sortDistributions orders by normalized name, then raw name, then
// version descending.
func sortDistributions(dists []Distribution) {
	sort.SliceStable(dists, func(i, j int) bool {
		a, b := dists[i], dists[j]
		if ka, kb := a.Key(), b.Key(); ka != kb {
			return ka < kb
		}

		if a.Name != b.Name {
			return a.Name < b.Name
		}

		return CompareVersions(a.Version, b.Version) > 0
	})
}

func sortedRecordKeys(m map[string]record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Lookup returns the distributions providing module, or nil when none is
// known. The returned slice is a copy.
func (idx *Index) Lookup(module string) []Distribution {
	return slices.Clone(idx.modules[NormalizeModule(module)])
}

// Distributions returns the number of distinct installed distributions.
func (idx *Index) Distributions() int {
	return idx.distributions
}

// Modules returns the number of distinct module names the index knows.
func (idx *Index) Modules() int {
	return len(idx.modules)
}
