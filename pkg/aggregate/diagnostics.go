package aggregate

import (
	"sort"

	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
)

// Failure is a file that could not be parsed.
type Failure struct {
	Path string
	Err  error
}

// AmbiguousModule is a module provided by several distributions.
type AmbiguousModule struct {
	Module     string
	Chosen     distindex.Distribution
	Candidates []distindex.Distribution
	Files      []string
}

// UnresolvedModule is a module no distribution provides.
type UnresolvedModule struct {
	Module string
	Files  []string
}

// Diagnostics explains what the manifest could not settle on its own.
type Diagnostics struct {
	Ambiguous  []AmbiguousModule
	Unresolved []UnresolvedModule
	Failures   []Failure
}

// Empty reports whether there is nothing to show.
func (d Diagnostics) Empty() bool {
	return len(d.Ambiguous) == 0 && len(d.Unresolved) == 0 && len(d.Failures) == 0
}

// Diagnostics returns the ambiguous and unresolved modules and parse
// failures, each sorted by module name or path.
func (a *Aggregator) Diagnostics() Diagnostics {
	var diag Diagnostics

	for _, st := range a.ambiguous {
		diag.Ambiguous = append(diag.Ambiguous, AmbiguousModule{
			Module:     st.name,
			Chosen:     st.chosen,
			Candidates: st.candidates,
			Files:      sortedSet(st.files),
		})
	}

	for _, st := range a.unresolved {
		if a.shadowed(st.name) {
			continue
		}

		diag.Unresolved = append(diag.Unresolved, UnresolvedModule{Module: st.name, Files: sortedSet(st.files)})
	}

	diag.Failures = append(diag.Failures, a.failures...)

	sort.Slice(diag.Ambiguous, func(i, j int) bool { return diag.Ambiguous[i].Module < diag.Ambiguous[j].Module })
	sort.Slice(diag.Unresolved, func(i, j int) bool { return diag.Unresolved[i].Module < diag.Unresolved[j].Module })
	sort.Slice(diag.Failures, func(i, j int) bool { return diag.Failures[i].Path < diag.Failures[j].Path })

	return diag
}
