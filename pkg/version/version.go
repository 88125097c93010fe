// Package version exposes build metadata for the pyscry binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const (
	devVersion      = "dev"
	unknown         = "unknown"
	develBuild      = "(devel)"
	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	shortCommitLen  = 12
)

var (
	// Version is the release version (set via -ldflags).
	Version = devVersion
	// Commit is the git commit hash (set via -ldflags).
	Commit = unknown
	// Date is the build timestamp (set via -ldflags).
	Date = unknown

	readBuildInfo = debug.ReadBuildInfo
)

// InitBinaryVersion fills any field left unset by -ldflags from the module
// build info embedded by `go install` or `go build`.
func InitBinaryVersion() {
	info, ok := readBuildInfo()
	if !ok {
		return
	}

	if Version == devVersion && info.Main.Version != "" && info.Main.Version != develBuild {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == unknown && setting.Value != "" {
				Commit = shorten(setting.Value)
			}
		case settingTime:
			if Date == unknown && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String formats the build metadata for display.
func String() string {
	if Version == devVersion && Commit == unknown {
		return "dev (built from source)"
	}

	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

func shorten(rev string) string {
	if len(rev) > shortCommitLen {
		return rev[:shortCommitLen]
	}

	return rev
}
