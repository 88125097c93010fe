// Package aggregate merges resolution outcomes into a deterministic,
// deduplicated dependency list.
package aggregate

import (
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/resolve"
)

// Entry is one line of the dependency manifest.
type Entry struct {
	// Name is the distribution name, or the bare module name when the
	// module could not be resolved.
	Name string

	// Version is empty when unknown.
	Version string

	// Modules are the imported module names that led to this entry.
	Modules []string
}

type distState struct {
	name    string
	version string
	modules map[string]struct{}
}

type moduleState struct {
	name       string
	files      map[string]struct{}
	chosen     distindex.Distribution
	candidates []distindex.Distribution
}

// Aggregator collects outcomes. It is not safe for concurrent use; feed it
// from a single goroutine.
type Aggregator struct {
	dists      map[string]*distState
	unresolved map[string]*moduleState
	ambiguous  map[string]*moduleState
	failures   []Failure
	exclude    map[string]struct{}
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		dists:      make(map[string]*distState),
		unresolved: make(map[string]*moduleState),
		ambiguous:  make(map[string]*moduleState),
		exclude:    make(map[string]struct{}),
	}
}

// Exclude drops the named distributions from the output, e.g. the project
// being scanned.
func (a *Aggregator) Exclude(names ...string) {
	for _, name := range names {
		if name != "" {
			a.exclude[distindex.NormalizeDistribution(name)] = struct{}{}
		}
	}
}

// Add merges one outcome.
func (a *Aggregator) Add(o resolve.Outcome) {
	switch o := o.(type) {
	case resolve.Resolved:
		a.addDistribution(o.Distribution, o.Module.Name)
	case resolve.Ambiguous:
		a.addDistribution(o.Chosen, o.Module.Name)

		st := a.module(a.ambiguous, o.Module.Name, o.Module.File)
		st.chosen = o.Chosen
		st.candidates = o.Candidates
	case resolve.Unresolved:
		a.module(a.unresolved, o.Module.Name, o.Module.File)
	}
}

// AddFailure records a file that could not be parsed.
func (a *Aggregator) AddFailure(path string, err error) {
	a.failures = append(a.failures, Failure{Path: path, Err: err})
}

func (a *Aggregator) addDistribution(d distindex.Distribution, module string) {
	key := d.Key()

	st, ok := a.dists[key]
	if !ok {
		st = &distState{name: d.Name, version: d.Version, modules: make(map[string]struct{})}
		a.dists[key] = st
	} else {
		switch c := distindex.CompareVersions(d.Version, st.version); {
		case c > 0:
			st.name, st.version = d.Name, d.Version
		case c == 0 && d.Name < st.name:
			st.name = d.Name
		}
	}

	st.modules[module] = struct{}{}
}

// module returns the state for an imported module. Module names are case
// sensitive, so the raw name is the key.
func (a *Aggregator) module(set map[string]*moduleState, name, file string) *moduleState {
	st, ok := set[name]
	if !ok {
		st = &moduleState{name: name, files: make(map[string]struct{})}
		set[name] = st
	}

	if file != "" {
		st.files[file] = struct{}{}
	}

	return st
}

// shadowed reports whether an unresolved module name is covered by a
// resolved or excluded distribution of the same normalized name.
func (a *Aggregator) shadowed(module string) bool {
	key := distindex.NormalizeDistribution(module)

	if _, ok := a.dists[key]; ok {
		return true
	}

	_, excluded := a.exclude[key]

	return excluded
}

// Entries returns the manifest sorted case-insensitively by name. The
// result does not depend on the order outcomes were added in.
func (a *Aggregator) Entries() []Entry {
	entries := make([]Entry, 0, len(a.dists)+len(a.unresolved))

	for key, st := range a.dists {
		if _, excluded := a.exclude[key]; excluded {
			continue
		}

		entries = append(entries, Entry{Name: st.name, Version: st.version, Modules: sortedSet(st.modules)})
	}

	for _, st := range a.unresolved {
		if a.shadowed(st.name) {
			continue
		}

		entries = append(entries, Entry{Name: st.name, Modules: []string{st.name}})
	}

	SortEntries(entries)

	return entries
}

// SortEntries orders entries by lowercase name, then raw name.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		li, lj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if li != lj {
			return li < lj
		}

		return entries[i].Name < entries[j].Name
	})
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
