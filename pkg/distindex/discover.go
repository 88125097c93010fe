package distindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// DefaultPython is the interpreter queried when nothing else locates
// site-packages.
const DefaultPython = "python3"

// sitePackagesScript prints the interpreter's site-packages directories
// and the user site directory as a JSON array.
const sitePackagesScript = `import json, site, sys
dirs = list(getattr(site, "getsitepackages", lambda: [])())
user = getattr(site, "getusersitepackages", lambda: None)()
if user:
    dirs.append(user)
dirs.extend(p for p in sys.path if p.endswith("site-packages") and p not in dirs)
print(json.dumps(dirs))`

// DiscoverOptions lists the places Discover looks, in priority order.
type DiscoverOptions struct {
	// SitePackages are explicit directories. When set, nothing else is tried.
	SitePackages []string

	// VirtualEnv is the root of an active virtual environment
	// (normally $VIRTUAL_ENV).
	VirtualEnv string

	// Python is the interpreter queried as a last resort.
	Python string

	Logger *slog.Logger
}

// Discover locates the site-packages directories to index.
func Discover(ctx context.Context, opts DiscoverOptions) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if len(opts.SitePackages) > 0 {
		return explicitDirs(opts.SitePackages)
	}

	if opts.VirtualEnv != "" {
		dirs := virtualEnvDirs(opts.VirtualEnv)
		if len(dirs) > 0 {
			logger.DebugContext(ctx, "using virtual environment", "root", opts.VirtualEnv, "site_packages", dirs)

			return dirs, nil
		}

		logger.WarnContext(ctx, "virtual environment has no site-packages", "root", opts.VirtualEnv)
	}

	python := opts.Python
	if python == "" {
		python = DefaultPython
	}

	dirs, err := interpreterDirs(ctx, python)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "using interpreter site-packages", "python", python, "site_packages", dirs)

	return dirs, nil
}

func explicitDirs(paths []string) ([]string, error) {
	dirs := make([]string, 0, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoSitePackages, p, err)
		}

		if !isDir(abs) {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrNoSitePackages, p)
		}

		dirs = append(dirs, abs)
	}

	return dirs, nil
}

func virtualEnvDirs(root string) []string {
	candidates, _ := filepath.Glob(filepath.Join(root, "lib", "python*", "site-packages")) //nolint:errcheck // pattern is constant
	candidates = append(candidates, filepath.Join(root, "Lib", "site-packages"))

	var dirs []string

	for _, c := range candidates {
		if isDir(c) {
			dirs = append(dirs, c)
		}
	}

	sort.Strings(dirs)

	return dirs
}

func interpreterDirs(ctx context.Context, python string) ([]string, error) {
	cmd := exec.CommandContext(ctx, python, "-c", sitePackagesScript)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrNoSitePackages, python, err)
	}

	var reported []string

	err = json.Unmarshal(out, &reported)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s output: %w", ErrNoSitePackages, python, err)
	}

	seen := make(map[string]struct{}, len(reported))

	var dirs []string

	for _, dir := range reported {
		if _, dup := seen[dir]; dup || !isDir(dir) {
			continue
		}

		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: %s reported none", ErrNoSitePackages, python)
	}

	return dirs, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)

	return err == nil && info.IsDir()
}
