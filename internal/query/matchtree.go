package query

import (
	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/tree"
)

// Node is a boolean expression over PackageTest leaves (spec §4.H).
type Node interface {
	Eval(pkg *tree.Package) bool
	NeededStage() dbformat.FetchStage

	// NeedsPolicy reports whether any leaf under this node depends on a
	// version attribute the policy layer computes (e.g. Redundant for the
	// "T" obsolete filter), so the evaluator knows whether to invoke it
	// before Eval (spec §4.I step 3).
	NeedsPolicy() bool
}

// Leaf wraps a single PackageTest as a Node.
type Leaf struct{ Test *PackageTest }

func (n Leaf) Eval(pkg *tree.Package) bool      { return n.Test.Eval(pkg) }
func (n Leaf) NeededStage() dbformat.FetchStage { return n.Test.NeededStage() }
func (n Leaf) NeedsPolicy() bool                { return n.Test.NeedsPolicy() }

// And evaluates left-to-right with short-circuit (spec §5: "Match-tree
// leaves are evaluated left-to-right with short-circuit for and/or").
type And struct{ Left, Right Node }

func (n And) Eval(pkg *tree.Package) bool { return n.Left.Eval(pkg) && n.Right.Eval(pkg) }
func (n And) NeededStage() dbformat.FetchStage {
	return maxStage(n.Left.NeededStage(), n.Right.NeededStage())
}
func (n And) NeedsPolicy() bool { return n.Left.NeedsPolicy() || n.Right.NeedsPolicy() }

// Or evaluates left-to-right with short-circuit.
type Or struct{ Left, Right Node }

func (n Or) Eval(pkg *tree.Package) bool { return n.Left.Eval(pkg) || n.Right.Eval(pkg) }
func (n Or) NeededStage() dbformat.FetchStage {
	return maxStage(n.Left.NeededStage(), n.Right.NeededStage())
}
func (n Or) NeedsPolicy() bool { return n.Left.NeedsPolicy() || n.Right.NeedsPolicy() }

// Not complements its child's outcome. The compiler prefers folding `!`
// directly into a PackageTest.Invert when the child is a bare leaf; Not
// remains available for `!` applied to a parenthesized sub-expression.
type Not struct{ Child Node }

func (n Not) Eval(pkg *tree.Package) bool      { return !n.Child.Eval(pkg) }
func (n Not) NeededStage() dbformat.FetchStage { return n.Child.NeededStage() }
func (n Not) NeedsPolicy() bool                { return n.Child.NeedsPolicy() }

func maxStage(a, b dbformat.FetchStage) dbformat.FetchStage {
	if a > b {
		return a
	}
	return b
}
