package resolve

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/importmodel"
)

// DefaultCacheSize bounds the per-resolver memo.
const DefaultCacheSize = 1024

// Lookuper finds the distributions providing a module.
// *distindex.Index implements it.
type Lookuper interface {
	Lookup(module string) []distindex.Distribution
}

// Options configures a Resolver.
type Options struct {
	// CacheSize bounds the memo. Zero selects DefaultCacheSize.
	CacheSize int
}

// Resolver turns imported modules into outcomes. Resolution is a pure
// function of the module name and the index; results are memoized in a
// bounded LRU.
type Resolver struct {
	index Lookuper
	memo  *lru.Cache[string, []distindex.Distribution]
}

// New creates a Resolver backed by index.
func New(index Lookuper, opts Options) *Resolver {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	memo, err := lru.New[string, []distindex.Distribution](size)
	if err != nil {
		return &Resolver{index: index}
	}

	return &Resolver{index: index, memo: memo}
}

// Resolve classifies module. It never fails.
func (r *Resolver) Resolve(module importmodel.Module) Outcome {
	candidates := r.candidates(module.Name)

	switch len(candidates) {
	case 0:
		return Unresolved{Module: module}
	case 1:
		return Resolved{Module: module, Distribution: candidates[0]}
	default:
		return Ambiguous{
			Module:     module,
			Chosen:     candidates[0],
			Candidates: slices.Clone(candidates),
		}
	}
}

// candidates returns the providers of name ordered by normalized name,
// then raw name. The first element is the deterministic choice.
func (r *Resolver) candidates(name string) []distindex.Distribution {
	key := distindex.NormalizeModule(name)

	if r.memo != nil {
		if cached, ok := r.memo.Get(key); ok {
			return cached
		}
	}

	found := r.index.Lookup(name)

	slices.SortStableFunc(found, func(a, b distindex.Distribution) int {
		if c := strings.Compare(a.Key(), b.Key()); c != 0 {
			return c
		}

		return strings.Compare(a.Name, b.Name)
	})

	if r.memo != nil {
		r.memo.Add(key, found)
	}

	return found
}
