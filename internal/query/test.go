package query

import (
	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/tree"
)

// PackageTest is one leaf of the match tree: a field, an algorithm, and
// whether the outcome is inverted (spec §4.H: "the resulting match tree
// is a boolean expression over PackageTest leaves").
type PackageTest struct {
	Field     Field
	Algorithm Algorithm
	Invert    bool

	// FoldCase lowercases both sides before matching (the "i" CLI flag).
	FoldCase bool

	// Filter additionally restricts which versions count as match
	// targets (the "I"/"O"/"T" option tokens).
	Filter Filter
}

// NeededStage reports the PackageReader fetch stage this leaf requires.
func (t *PackageTest) NeededStage() dbformat.FetchStage { return t.Field.NeededStage() }

// NeedsPolicy reports whether this leaf depends on a version attribute
// only the policy layer computes. Presently that is just Redundant, which
// backs the "T" obsolete filter (spec §4.I step 3).
func (t *PackageTest) NeedsPolicy() bool { return t.Filter.ObsoleteOnly }

// Eval reports whether pkg matches this leaf.
func (t *PackageTest) Eval(pkg *tree.Package) bool {
	var matched bool
	if t.Field.IsPerVersion() {
		for _, v := range pkg.Versions {
			if !t.Filter.Accepts(v) {
				continue
			}
			if anyMatch(t.Algorithm, t.foldAll(t.Field.VersionStrings(v))) {
				matched = true
				break
			}
		}
	} else if t.Algorithm == nil {
		// A pure filter test (e.g. bare "I") with no field/algorithm: match
		// iff some version survives the filter.
		matched = t.Filter.AnyVersion(pkg)
	} else if !t.Filter.AnyVersion(pkg) {
		matched = false
	} else {
		matched = anyMatch(t.Algorithm, t.foldAll(t.Field.PackageStrings(pkg)))
	}
	if t.Invert {
		return !matched
	}
	return matched
}

func (t *PackageTest) foldAll(strs []string) []string {
	if !t.FoldCase {
		return strs
	}
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = normalize(s, true)
	}
	return out
}
