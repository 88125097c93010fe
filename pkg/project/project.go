// Package project reads the packaging metadata of the project being
// scanned, so that the project never lists itself as a dependency.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project metadata file looked up in each root.
const FileName = "pyproject.toml"

// ErrInvalidPyproject is returned when pyproject.toml cannot be decoded.
var ErrInvalidPyproject = errors.New("invalid pyproject.toml")

type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Name returns the distribution name declared in the pyproject.toml at
// path: PEP 621 [project].name, else [tool.poetry].name. It returns "" when
// neither is set.
func Name(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var doc pyproject

	err = toml.Unmarshal(content, &doc)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidPyproject, path, err)
	}

	if name := strings.TrimSpace(doc.Project.Name); name != "" {
		return name, nil
	}

	return strings.TrimSpace(doc.Tool.Poetry.Name), nil
}

// Names collects the project names declared by the pyproject.toml files
// found directly in roots. Roots that are files contribute the
// pyproject.toml next to them. Missing files are ignored.
func Names(roots []string) ([]string, error) {
	seen := make(map[string]struct{})

	for _, root := range roots {
		dir := root
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			dir = filepath.Dir(root)
		}

		name, err := Name(filepath.Join(dir, FileName))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, err
		}

		if name != "" {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
