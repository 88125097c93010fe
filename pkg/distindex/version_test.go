package distindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "equal", a: "1.0.0", b: "1.0.0", want: 0},
		{name: "numeric not lexical", a: "2.31.0", b: "2.9.0", want: 1},
		{name: "short release padded", a: "2.31", b: "2.31.0", want: -1},
		{name: "prerelease below release", a: "2.0.0rc1", b: "2.0.0", want: -1},
		{name: "alpha below beta", a: "1.0a1", b: "1.0b1", want: -1},
		{name: "post release above release", a: "1.0.post1", b: "1.0", want: 1},
		{name: "empty loses", a: "", b: "0.1", want: -1},
		{name: "version beats empty", a: "0.1", b: "", want: 1},
		{name: "fourth release part numeric", a: "1.2.3.4", b: "1.2.3.10", want: -1},
		{name: "fourth part above padded release", a: "1.2.3.4", b: "1.2.3", want: 1},
		{name: "fourth part below later minor", a: "1.2.3.4", b: "1.10", want: -1},
		{name: "later release beats prerelease with extra part", a: "1.2.3.5rc1", b: "1.2.3.4", want: 1},
		{name: "epoch dominates release", a: "1!1.0", b: "9.0", want: 1},
		{name: "same epoch compares release", a: "1!2.0", b: "1!1.0", want: 1},
		{name: "release beats opaque", a: "0.0.1", b: "latest", want: 1},
		{name: "opaque versions lexical", a: "nightly", b: "latest", want: 1},
		{name: "opaque beats empty", a: "unknown", b: "", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CompareVersions(tt.a, tt.b)

			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestCompareVersions_TotalOrder(t *testing.T) {
	t.Parallel()

	versions := []string{
		"", "1.9", "1.10", "1.5!x", "1.2.3.4", "1.2.3", "2.0rc1", "2.0", "2.0.post1",
		"1!0.1", "latest", "nightly", "01.2", "1.2", "v1.2.0",
	}

	for _, a := range versions {
		assert.Zero(t, CompareVersions(a, a), a)

		for _, b := range versions {
			ab, ba := CompareVersions(a, b), CompareVersions(b, a)
			assert.Equal(t, ab > 0, ba < 0, "antisymmetry %q %q", a, b)
			assert.Equal(t, ab == 0, a == b, "equality %q %q", a, b)

			for _, c := range versions {
				if ab < 0 && CompareVersions(b, c) < 0 {
					assert.Negative(t, CompareVersions(a, c), "transitivity %q < %q < %q", a, b, c)
				}
			}
		}
	}
}

func TestToSemver(t *testing.T) {
	t.Parallel()

	got, extra, ok := toSemver("2.31")
	assert.True(t, ok)
	assert.Equal(t, "v2.31.0", got)
	assert.Empty(t, extra)

	got, _, ok = toSemver("1.2.3rc2")
	assert.True(t, ok)
	assert.Equal(t, "v1.2.3-rc2", got)

	got, extra, ok = toSemver("1.02.3.4.5")
	assert.True(t, ok)
	assert.Equal(t, "v1.2.3", got)
	assert.Equal(t, []string{"4", "5"}, extra)

	_, _, ok = toSemver("latest")
	assert.False(t, ok)
}

func TestParseVersion_Classes(t *testing.T) {
	t.Parallel()

	_, class := parseVersion("")
	assert.Equal(t, classEmpty, class)

	_, class = parseVersion("1.5!x")
	assert.Equal(t, classOpaque, class)

	p, class := parseVersion("v2!1.0.post1")
	assert.Equal(t, classRelease, class)
	assert.Equal(t, "2", p.epoch)
	assert.Equal(t, "v1.0.0", p.release)
	assert.Equal(t, "v1.0.0+post1", p.core)
}

func TestInferModules(t *testing.T) {
	t.Parallel()

	got := inferModules([]string{
		"pkg/__init__.py",
		"pkg/sub/mod.py",
		"single.py",
		"ext.abi3.so",
		"win.cp311-win_amd64.pyd",
		"pkg-1.0.dist-info/RECORD",
		"__pycache__/single.cpython-311.pyc",
		"../../bin/tool",
	})

	assert.Equal(t, []string{"pkg", "single", "ext", "win"}, got)
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	content := []byte("Metadata-Version: 2.1\nName: Flask\nVersion: 3.0.0\nClassifier: A\n" +
		"Description: first\n        continued: line\n\nName: body text\n")

	headers := parseHeaders(content)

	assert.Equal(t, "Flask", headers["name"])
	assert.Equal(t, "3.0.0", headers["version"])
	assert.NotContains(t, headers, "continued")
}
