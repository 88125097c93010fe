// Package resolve maps imported modules to the distributions that provide
// them.
package resolve

import (
	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/importmodel"
)

// Outcome is the result of resolving one imported module. It is exactly
// one of Resolved, Ambiguous or Unresolved.
type Outcome interface {
	// Imported returns the module that was resolved.
	Imported() importmodel.Module

	isOutcome()
}

// Resolved means exactly one distribution provides the module.
type Resolved struct {
	Module       importmodel.Module
	Distribution distindex.Distribution
}

// Ambiguous means several distributions provide the module. Chosen is the
// one with the lexicographically smallest normalized name.
type Ambiguous struct {
	Module     importmodel.Module
	Chosen     distindex.Distribution
	Candidates []distindex.Distribution
}

// Unresolved means no known distribution provides the module.
type Unresolved struct {
	Module importmodel.Module
}

// Imported implements Outcome.
func (r Resolved) Imported() importmodel.Module { return r.Module }

// Imported implements Outcome.
func (a Ambiguous) Imported() importmodel.Module { return a.Module }

// Imported implements Outcome.
func (u Unresolved) Imported() importmodel.Module { return u.Module }

func (Resolved) isOutcome()   {}
func (Ambiguous) isOutcome()  {}
func (Unresolved) isOutcome() {}

// Kind returns a short label for o, used in logs and metrics.
func Kind(o Outcome) string {
	switch o.(type) {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}
