// Package walker enumerates the Python source files under a set of roots.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/pyscry/pkg/textutil"
)

// ErrRootNotFound is returned when a root path cannot be read.
var ErrRootNotFound = errors.New("root path not readable")

const (
	shebangProbeSize = 256
	languagePython   = "Python"
	venvMarker       = "pyvenv.cfg"
	initStem         = "__init__"
	initFile         = initStem + ".py"
)

// pythonExtensions lists the file suffixes always treated as Python source.
var pythonExtensions = map[string]struct{}{
	".py":  {},
	".pyi": {},
}

// prunedDirs are never descended into.
var prunedDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	"__pycache__":   {},
	"site-packages": {},
}

// Options controls which files Collect returns.
type Options struct {
	// Excludes are fnmatch-style patterns matched against the absolute path,
	// the basename, and the path relative to each directory root.
	Excludes []string

	// SkipVendor prunes vendored directories and virtual environments.
	SkipVendor bool

	// IncludeScripts adds extension-less files whose shebang names Python.
	IncludeScripts bool
}

// Result is the outcome of a walk.
type Result struct {
	// Files are absolute, cleaned, deduplicated and sorted paths.
	Files []string

	// Local are the first-party module names found under the roots: file
	// stems and the directories leading to them.
	Local []string
}

type walkState struct {
	opts     Options
	roots    []string
	matchers []*pattern
	files    map[string]struct{}
	local    map[string]struct{}
}

// Collect walks roots and returns the Python files to scan.
func Collect(ctx context.Context, roots []string, opts Options) (Result, error) {
	absRoots, err := absolutize(roots)
	if err != nil {
		return Result{}, err
	}

	matchers := make([]*pattern, 0, len(opts.Excludes))

	for _, raw := range opts.Excludes {
		matchers = append(matchers, compilePattern(raw))
	}

	state := &walkState{
		opts:     opts,
		roots:    absRoots,
		matchers: matchers,
		files:    make(map[string]struct{}),
		local:    make(map[string]struct{}),
	}

	for _, root := range absRoots {
		walkErr := state.walkRoot(ctx, root)
		if walkErr != nil {
			return Result{}, walkErr
		}
	}

	return state.result(), nil
}

func absolutize(roots []string) ([]string, error) {
	abs := make([]string, 0, len(roots))

	for _, root := range roots {
		p, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
		}

		_, statErr := os.Stat(p)
		if statErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, statErr)
		}

		abs = append(abs, filepath.Clean(p))
	}

	return abs, nil
}

func (ws *walkState) walkRoot(ctx context.Context, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	if !info.IsDir() {
		if ws.isSource(root) && !ws.excluded(root) {
			ws.add(root, filepath.Dir(root))
			ws.addEnclosingPackages(filepath.Dir(root))
		}

		return nil
	}

	ws.addEnclosingPackages(root)

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		skip, skipErr := ws.shouldSkip(root, path, entry, err)
		if skip || skipErr != nil {
			return skipErr
		}

		if ws.isSource(path) && !ws.excluded(path) {
			ws.add(path, root)
		}

		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", root, walkErr)
	}

	return nil
}

// shouldSkip decides whether a walk entry is skipped. Directories are
// never sources themselves, so they always report skip.
func (ws *walkState) shouldSkip(root, path string, entry fs.DirEntry, walkErr error) (bool, error) {
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrPermission) || errors.Is(walkErr, fs.ErrNotExist) {
			if entry != nil && entry.IsDir() {
				return true, filepath.SkipDir
			}

			return true, nil
		}

		return false, walkErr
	}

	if entry == nil {
		return true, nil
	}

	if !entry.IsDir() {
		mode := entry.Type()

		return !mode.IsRegular() && mode&fs.ModeSymlink == 0, nil
	}

	if path == root {
		return true, nil
	}

	if _, pruned := prunedDirs[entry.Name()]; pruned {
		return true, filepath.SkipDir
	}

	if ws.opts.SkipVendor && ws.isVendorDir(root, path) {
		return true, filepath.SkipDir
	}

	return true, nil
}

func (ws *walkState) isVendorDir(root, dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, venvMarker)); err == nil {
		return true
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}

	return enry.IsVendor(filepath.ToSlash(rel) + "/")
}

func (ws *walkState) isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := pythonExtensions[ext]; ok {
		return true
	}

	if !ws.opts.IncludeScripts || ext != "" {
		return false
	}

	return hasPythonShebang(path)
}

func hasPythonShebang(path string) bool {
	head, err := textutil.Head(path, shebangProbeSize)
	if err != nil || !textutil.HasShebang(head) {
		return false
	}

	lang, _ := enry.GetLanguageByShebang(head)

	return lang == languagePython
}

func (ws *walkState) excluded(path string) bool {
	if len(ws.matchers) == 0 {
		return false
	}

	slashPath := filepath.ToSlash(path)
	base := filepath.Base(path)

	for _, m := range ws.matchers {
		if m.match(slashPath) || m.match(base) {
			return true
		}

		for _, root := range ws.roots {
			rel, ok := relativeTo(root, path)
			if ok && m.match(rel) {
				return true
			}
		}
	}

	return false
}

func relativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

// add records a source file and the first-party names it contributes.
func (ws *walkState) add(path, base string) {
	ws.files[path] = struct{}{}

	rel, ok := relativeTo(base, path)
	if !ok {
		return
	}

	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		ws.local[dir] = struct{}{}
	}

	file := parts[len(parts)-1]

	stem := strings.TrimSuffix(file, filepath.Ext(file))
	if stem != "" && stem != initStem {
		ws.local[stem] = struct{}{}
	}
}

// addEnclosingPackages records dir and each parent above it as long as
// they hold an __init__.py, so absolute imports of a scanned package from
// inside itself stay first-party.
func (ws *walkState) addEnclosingPackages(dir string) {
	for {
		if _, err := os.Stat(filepath.Join(dir, initFile)); err != nil {
			return
		}

		ws.local[filepath.Base(dir)] = struct{}{}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}

		dir = parent
	}
}

func (ws *walkState) result() Result {
	return Result{
		Files: sortedKeys(ws.files),
		Local: sortedKeys(ws.local),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
