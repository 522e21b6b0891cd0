package query

import (
	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/userconfig"
)

// Match pairs a matched package with the category it lives in, since
// tree.Package itself already carries its Category field but callers
// generally want both adjacent for printing.
type Match struct {
	Category string
	Package  *tree.Package
}

// Evaluate walks t and returns every package node matches, in the
// PackageTree's insertion order of categories and packages (spec §4.I).
// A non-nil marked restricts results to entries present in it, honoring
// any version the pipe line requested. policy may be nil (no user-config
// overrides were loaded); the policy layer is only invoked at all when
// node.NeedsPolicy() reports some leaf actually depends on it (spec §4.I
// step 3).
func Evaluate(t *tree.PackageTree, node Node, marked MarkedList, policy *userconfig.Policy) ([]Match, error) {
	needsPolicy := policy != nil && node.NeedsPolicy()

	var out []Match
	err := t.Each(func(cat *tree.Category) error {
		return cat.Each(func(pkg *tree.Package) error {
			if marked != nil {
				if _, ok := marked.Lookup(pkg.Category, pkg.Name); !ok {
					return nil
				}
			}
			if needsPolicy {
				policy.Annotate(pkg)
			}
			if node.Eval(pkg) {
				out = append(out, Match{Category: pkg.Category, Package: pkg})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AllMatch is a Node that matches every package; Evaluate with it plus a
// non-nil marked set implements pipe mode with no additional predicate
// (every marked entry is listed, spec §8 scenario 5).
type AllMatch struct{}

func (AllMatch) Eval(*tree.Package) bool          { return true }
func (AllMatch) NeededStage() dbformat.FetchStage { return dbformat.FetchName }
func (AllMatch) NeedsPolicy() bool                { return false }
