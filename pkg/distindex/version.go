package distindex

import (
	"strings"

	"golang.org/x/mod/semver"
)

const semverReleaseParts = 3

// Version classes, lowest first.
const (
	classEmpty = iota
	classOpaque
	classRelease
)

// parsedVersion is a PEP 440 style version split into comparable parts.
// release is the first three release numbers in semver syntax, core adds
// any pre-release or post tag, extra holds release numbers past the third.
type parsedVersion struct {
	epoch   string
	release string
	core    string
	extra   []string
}

// CompareVersions orders two version strings. It returns a negative number
// when a sorts before b, zero when they are equal and a positive number
// otherwise. The order is total: empty versions sort first, then versions
// without a numeric release compared lexically, then release versions
// compared by epoch, release numbers and tag. Distinct spellings of the
// same release ("2.31" and "2.31.0") fall back to a lexical tie-break.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}

	pa, classA := parseVersion(a)
	pb, classB := parseVersion(b)

	if classA != classB {
		return classA - classB
	}

	if classA == classRelease {
		if c := compareRelease(pa, pb); c != 0 {
			return c
		}
	}

	return strings.Compare(a, b)
}

func compareRelease(a, b parsedVersion) int {
	if c := compareNumeric(a.epoch, b.epoch); c != 0 {
		return c
	}

	if c := semver.Compare(a.release, b.release); c != 0 {
		return c
	}

	for i := range max(len(a.extra), len(b.extra)) {
		if c := compareNumeric(partAt(a.extra, i), partAt(b.extra, i)); c != 0 {
			return c
		}
	}

	return semver.Compare(a.core, b.core)
}

func partAt(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}

	return "0"
}

// compareNumeric compares two digit strings of any length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		return len(a) - len(b)
	}

	return strings.Compare(a, b)
}

func parseVersion(v string) (parsedVersion, int) {
	if v == "" {
		return parsedVersion{}, classEmpty
	}

	v = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "v")

	var p parsedVersion

	if epoch, rest, ok := strings.Cut(v, "!"); ok {
		if !isDigits(epoch) {
			return parsedVersion{}, classOpaque
		}

		p.epoch, v = epoch, rest
	}

	core, extra, ok := toSemver(v)
	if !ok {
		return parsedVersion{}, classOpaque
	}

	p.core, p.extra = core, extra
	p.release = core[:strings.IndexAny(core+"-", "-+")]

	return p, classRelease
}

// toSemver maps a PEP 440 style version onto semver syntax. Pre-release
// tags (a1, b2, rc1, dev0) become semver pre-releases and post releases
// become build metadata. Release numbers past the third are returned
// separately.
func toSemver(v string) (string, []string, bool) {
	end := strings.IndexFunc(v, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	if end < 0 {
		end = len(v)
	}

	release, rest := strings.TrimRight(v[:end], "."), v[end:]
	if release == "" {
		return "", nil, false
	}

	parts := strings.Split(release, ".")
	for _, part := range parts {
		if part == "" {
			return "", nil, false
		}
	}

	var extra []string
	if len(parts) > semverReleaseParts {
		parts, extra = parts[:semverReleaseParts], parts[semverReleaseParts:]
	}

	for len(parts) < semverReleaseParts {
		parts = append(parts, "0")
	}

	for i, part := range parts {
		if trimmed := strings.TrimLeft(part, "0"); trimmed != "" {
			parts[i] = trimmed
		} else {
			parts[i] = "0"
		}
	}

	norm := "v" + strings.Join(parts, ".")

	switch {
	case rest == "":
	case strings.HasPrefix(rest, "+"):
		norm += rest
	default:
		tag := strings.TrimLeft(rest, ".-_")
		if strings.HasPrefix(tag, "post") {
			norm += "+" + tag
		} else {
			norm += "-" + tag
		}
	}

	if !semver.IsValid(norm) {
		return "", nil, false
	}

	return norm, extra, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
