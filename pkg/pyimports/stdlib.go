package pyimports

import (
	_ "embed"
	"strings"
)

// stdlibNames is the interpreter's sys.stdlib_module_names, one per line.
//
//go:embed stdlib.txt
var stdlibNames string

var stdlib = func() map[string]struct{} {
	set := make(map[string]struct{})

	for line := range strings.SplitSeq(stdlibNames, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			set[name] = struct{}{}
		}
	}

	return set
}()

// IsStdlib reports whether name is a top-level standard library module.
func IsStdlib(name string) bool {
	_, ok := stdlib[name]

	return ok
}
