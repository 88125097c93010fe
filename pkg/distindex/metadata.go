package distindex

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Metadata directory layouts.
const (
	distInfoSuffix = ".dist-info"
	eggInfoSuffix  = ".egg-info"

	fileMetadata       = "METADATA"
	filePkgInfo        = "PKG-INFO"
	fileTopLevel       = "top_level.txt"
	fileRecord         = "RECORD"
	fileInstalledFiles = "installed-files.txt"

	headerName    = "name"
	headerVersion = "version"

	pipTempPrefix = "~"
	pycacheDir    = "__pycache__"

	maxHeaderLine = 1 << 20
)

// errNoMetadata marks a metadata directory without a metadata file. Such
// leftovers are skipped rather than failing the build.
var errNoMetadata = errors.New("metadata file missing")

// errMissingName marks a metadata file without a Name header.
var errMissingName = errors.New("metadata has no Name")

// moduleSuffixes are stripped from single-file entries to get a module name.
var moduleSuffixes = []string{".py", ".pyc", ".so", ".pyd"}

// record is one distribution as read from disk together with the
// top-level modules it provides.
type record struct {
	dist    Distribution
	modules []string
}

// isMetadataDir reports whether a site-packages entry holds distribution metadata.
func isMetadataDir(name string) bool {
	if strings.HasPrefix(name, pipTempPrefix) {
		return false
	}

	return strings.HasSuffix(name, distInfoSuffix) || strings.HasSuffix(name, eggInfoSuffix)
}

// readRecord loads the distribution described by the metadata directory dir.
func readRecord(dir string) (record, error) {
	metaName := fileMetadata
	if strings.HasSuffix(dir, eggInfoSuffix) {
		metaName = filePkgInfo
	}

	metaPath := filepath.Join(dir, metaName)

	content, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record{}, fmt.Errorf("%w: %s", errNoMetadata, metaPath)
		}

		return record{}, fmt.Errorf("read %s: %w", metaPath, err)
	}

	headers := parseHeaders(content)

	name := headers[headerName]
	if name == "" {
		return record{}, fmt.Errorf("%w: %s", errMissingName, metaPath)
	}

	modules, err := readModules(dir)
	if err != nil {
		return record{}, err
	}

	return record{
		dist: Distribution{
			Name:    name,
			Version: headers[headerVersion],
			Path:    dir,
		},
		modules: modules,
	}, nil
}

// parseHeaders reads the RFC 822 style header block of a core metadata
// file. Keys are lowercased; only the first occurrence of a key is kept.
func parseHeaders(content []byte) map[string]string {
	headers := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(nil, maxHeaderLine)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}

		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		if _, seen := headers[key]; !seen {
			headers[key] = strings.TrimSpace(value)
		}
	}

	return headers
}

// readModules returns the top-level modules of a distribution: the
// declared top_level.txt when present, otherwise names inferred from the
// installed file list.
func readModules(dir string) ([]string, error) {
	declared, err := readLines(filepath.Join(dir, fileTopLevel))
	if err != nil {
		return nil, err
	}

	if len(declared) > 0 {
		return declared, nil
	}

	files, err := installedFiles(dir)
	if err != nil {
		return nil, err
	}

	return inferModules(files), nil
}

func readLines(p string) ([]string, error) {
	content, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	var lines []string

	for line := range strings.Lines(string(content)) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return lines, nil
}

// installedFiles returns the files of a distribution as slash paths
// relative to site-packages.
func installedFiles(dir string) ([]string, error) {
	if strings.HasSuffix(dir, distInfoSuffix) {
		return readRecordFile(filepath.Join(dir, fileRecord))
	}

	lines, err := readLines(filepath.Join(dir, fileInstalledFiles))
	if err != nil {
		return nil, err
	}

	base := filepath.Base(dir)
	files := make([]string, 0, len(lines))

	for _, line := range lines {
		files = append(files, path.Clean(path.Join(base, filepath.ToSlash(line))))
	}

	return files, nil
}

func readRecordFile(p string) ([]string, error) {
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var files []string

	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("parse %s: %w", p, readErr)
		}

		if len(row) > 0 && row[0] != "" {
			files = append(files, row[0])
		}
	}

	return files, nil
}

// inferModules derives importable top-level names from installed files:
// the first segment of nested paths and the module name of top-level
// files. Names containing a dot (metadata dirs, .pth files, "..") are not
// importable and are dropped.
func inferModules(files []string) []string {
	seen := make(map[string]struct{})

	var modules []string

	for _, file := range files {
		name := topLevelName(filepath.ToSlash(file))
		if name == "" || name == pycacheDir || strings.Contains(name, ".") {
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		modules = append(modules, name)
	}

	return modules
}

func topLevelName(file string) string {
	if head, _, nested := strings.Cut(file, "/"); nested {
		return head
	}

	for _, suffix := range moduleSuffixes {
		if stem, ok := strings.CutSuffix(file, suffix); ok {
			// Extension modules carry ABI tags: foo.cpython-311-x86_64-linux-gnu.so.
			if suffix == ".so" || suffix == ".pyd" {
				stem, _, _ = strings.Cut(stem, ".")
			}

			return stem
		}
	}

	return file
}
