// Package pyimports extracts the third-party top-level module names that a
// Python source file imports. Sources are parsed with tree-sitter and are
// never executed.
package pyimports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pyscry/pkg/importmodel"
	"github.com/Sumatoshi-tech/pyscry/pkg/textutil"
)

// ErrParse marks a file that could not be statically parsed.
var ErrParse = errors.New("parse python source")

// ErrTooLarge marks a file skipped because it exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// ErrBinary marks a file whose content is not text.
var ErrBinary = errors.New("binary content")

var errSyntax = errors.New("syntax error")

// Tree-sitter node kinds used by the extractor.
const (
	kindImport        = "import_statement"
	kindImportFrom    = "import_from_statement"
	kindFutureImport  = "future_import_statement"
	kindDottedName    = "dotted_name"
	kindAliasedImport = "aliased_import"

	fieldName       = "name"
	fieldModuleName = "module_name"
)

// Options configures which module names the extractor drops.
type Options struct {
	// Local holds first-party module names (files and packages inside the
	// scanned roots). Imports of these are not packaging dependencies.
	Local []string

	// Ignore holds additional module names to drop.
	Ignore []string

	// KeepStdlib disables standard-library filtering.
	KeepStdlib bool

	// MaxFileSize is the largest file ExtractFile reads. Zero means no limit.
	MaxFileSize int64
}

// Extractor finds imported module roots in Python sources.
// It is safe for concurrent use.
type Extractor struct {
	parsers     *parserPool
	skip        map[string]struct{}
	keepStdlib  bool
	maxFileSize int64
}

// NewExtractor creates an Extractor with the given filtering options.
func NewExtractor(opts Options) (*Extractor, error) {
	lang, err := pythonLanguage()
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(opts.Local)+len(opts.Ignore))

	for _, name := range opts.Local {
		skip[name] = struct{}{}
	}

	for _, name := range opts.Ignore {
		skip[name] = struct{}{}
	}

	return &Extractor{
		parsers:     newParserPool(lang),
		skip:        skip,
		keepStdlib:  opts.KeepStdlib,
		maxFileSize: opts.MaxFileSize,
	}, nil
}

// ExtractFile reads and parses the file at path. Failures are reported in
// the returned File rather than as an error so a single bad file never
// aborts a scan.
func (e *Extractor) ExtractFile(ctx context.Context, path string) importmodel.File {
	file := importmodel.File{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		file.Error = fmt.Errorf("%w: %s: %w", ErrParse, path, err)

		return file
	}

	file.Size = info.Size()

	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		file.Error = fmt.Errorf("%w: %s: %w (%d bytes)", ErrParse, path, ErrTooLarge, info.Size())

		return file
	}

	content, err := os.ReadFile(path)
	if err != nil {
		file.Error = fmt.Errorf("%w: %s: %w", ErrParse, path, err)

		return file
	}

	if textutil.IsBinary(content) {
		file.Error = fmt.Errorf("%w: %s: %w", ErrParse, path, ErrBinary)

		return file
	}

	modules, err := e.Extract(ctx, path, content)
	if err != nil {
		file.Error = err

		return file
	}

	file.Modules = modules

	return file
}

// Extract returns the sorted, deduplicated third-party modules imported by
// src. Imports nested in functions or conditional branches are included.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) ([]importmodel.Module, error) {
	var names []string

	err := e.parsers.parse(ctx, src, func(root sitter.Node) error {
		if root.HasError() {
			return errSyntax
		}

		names = collectRoots(root, src)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}

	return e.toModules(path, names), nil
}

func (e *Extractor) toModules(path string, names []string) []importmodel.Module {
	seen := make(map[string]struct{}, len(names))
	modules := make([]importmodel.Module, 0, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}

		if _, skipped := e.skip[name]; skipped {
			continue
		}

		if !e.keepStdlib && IsStdlib(name) {
			continue
		}

		modules = append(modules, importmodel.Module{Name: name, File: path})
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

	return modules
}

// collectRoots walks the whole tree and returns the root segment of every
// absolute import, in source order and possibly with duplicates.
func collectRoots(root sitter.Node, src []byte) []string {
	var roots []string

	var visit func(n sitter.Node)

	visit = func(n sitter.Node) {
		switch n.Type() {
		case kindImport:
			roots = append(roots, importStatementRoots(n, src)...)

			return
		case kindImportFrom:
			if r := importFromRoot(n, src); r != "" {
				roots = append(roots, r)
			}

			return
		case kindFutureImport:
			return
		}

		for idx := range n.NamedChildCount() {
			visit(n.NamedChild(idx))
		}
	}

	visit(root)

	return roots
}

// importStatementRoots handles `import a.b, c as d`.
func importStatementRoots(n sitter.Node, src []byte) []string {
	var roots []string

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case kindDottedName:
			roots = appendRoot(roots, nodeText(child, src))
		case kindAliasedImport:
			if name := child.ChildByFieldName(fieldName); !name.IsNull() {
				roots = appendRoot(roots, nodeText(name, src))
			}
		}
	}

	return roots
}

// importFromRoot handles `from a.b import c`. Relative imports yield "".
func importFromRoot(n sitter.Node, src []byte) string {
	module := n.ChildByFieldName(fieldModuleName)
	if module.IsNull() || module.Type() != kindDottedName {
		return ""
	}

	return rootSegment(nodeText(module, src))
}

func appendRoot(roots []string, dotted string) []string {
	if r := rootSegment(dotted); r != "" {
		return append(roots, r)
	}

	return roots
}

// rootSegment returns "a" for "a.b.c".
func rootSegment(dotted string) string {
	head, _, _ := strings.Cut(dotted, ".")

	return strings.TrimSpace(head)
}

func nodeText(n sitter.Node, src []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(src)) || start > end {
		return ""
	}

	return string(src[start:end])
}
