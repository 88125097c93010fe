package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: tests mutate package-level build metadata.
func withBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()

	origRead, origVersion, origCommit, origDate := readBuildInfo, Version, Commit, Date

	t.Cleanup(func() {
		readBuildInfo, Version, Commit, Date = origRead, origVersion, origCommit, origDate
	})

	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	Version, Commit, Date = devVersion, unknown, unknown
}

//nolint:paralleltest // mutates package state.
func TestInitBinaryVersion_FromBuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}, true)

	InitBinaryVersion()

	assert.Equal(t, "v0.4.0", Version)
	assert.Equal(t, "0123456789ab", Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", Date)
	assert.Equal(t, "v0.4.0 (commit: 0123456789ab, built: 2026-01-02T03:04:05Z)", String())
}

//nolint:paralleltest // mutates package state.
func TestInitBinaryVersion_LdflagsWin(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
	}, true)

	Version, Commit = "v1.0.0", "release"

	InitBinaryVersion()

	assert.Equal(t, "v1.0.0", Version)
	assert.Equal(t, "release", Commit)
}

//nolint:paralleltest // mutates package state.
func TestInitBinaryVersion_DevelBuild(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	InitBinaryVersion()

	assert.Equal(t, "dev (built from source)", String())
}

//nolint:paralleltest // mutates package state.
func TestInitBinaryVersion_NoBuildInfo(t *testing.T) {
	withBuildInfo(t, nil, false)

	InitBinaryVersion()

	assert.Equal(t, devVersion, Version)
}
