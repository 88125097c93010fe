package distindex

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMapping is returned when an alias mapping file cannot be used.
var ErrMapping = errors.New("invalid module mapping")

// Alias maps an importable module to the distribution that provides it.
// Version is optional and pins the version reported when the distribution
// is not installed.
type Alias struct {
	Distribution string
	Version      string
}

// builtinAliases covers well-known modules whose import name differs from
// the distribution name. They only fill gaps left by installed metadata and
// only point at distributions that are installed.
var builtinAliases = map[string]string{
	"bs4":      "beautifulsoup4",
	"crypto":   "pycryptodome",
	"cv2":      "opencv-python",
	"dateutil": "python-dateutil",
	"docx":     "python-docx",
	"dotenv":   "python-dotenv",
	"fitz":     "PyMuPDF",
	"git":      "GitPython",
	"jwt":      "PyJWT",
	"magic":    "python-magic",
	"openssl":  "pyOpenSSL",
	"pil":      "Pillow",
	"serial":   "pyserial",
	"skimage":  "scikit-image",
	"sklearn":  "scikit-learn",
	"usb":      "pyusb",
	"yaml":     "PyYAML",
	"zmq":      "pyzmq",
}

// BuiltinAliases returns a copy of the built-in alias table keyed by
// normalized module name.
func BuiltinAliases() map[string]Alias {
	out := make(map[string]Alias, len(builtinAliases))
	for module, dist := range builtinAliases {
		out[module] = Alias{Distribution: dist}
	}

	return out
}

// LoadMapping reads a YAML document of "module: distribution" or
// "module: distribution==version" pairs. Keys are normalized.
func LoadMapping(path string) (map[string]Alias, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	var raw map[string]string

	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMapping, path, err)
	}

	aliases := make(map[string]Alias, len(raw))

	for module, target := range raw {
		alias, parseErr := parseAlias(target)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: %s: module %q: %w", ErrMapping, path, module, parseErr)
		}

		aliases[NormalizeModule(module)] = alias
	}

	return aliases, nil
}

var errEmptyDistribution = errors.New("empty distribution name")

func parseAlias(target string) (Alias, error) {
	name, version, _ := strings.Cut(target, "==")

	name = strings.TrimSpace(name)
	if name == "" {
		return Alias{}, errEmptyDistribution
	}

	return Alias{Distribution: name, Version: strings.TrimSpace(version)}, nil
}
