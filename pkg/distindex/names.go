package distindex

import (
	"regexp"
	"strings"
)

var distSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeModule returns the lookup key for an importable module name.
func NormalizeModule(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// NormalizeDistribution returns the PEP 503 form of a distribution name:
// lowercase with every run of '-', '_' and '.' collapsed to a single '-'.
func NormalizeDistribution(name string) string {
	return distSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
