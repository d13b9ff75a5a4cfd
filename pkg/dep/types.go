// Package dep computes the dependence graph of one function: data edges
// from reaching-definitions analysis and control edges from post-dominance.
// The graph is the shared substrate of the slicer and the inliner.
package dep

import (
	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

// Kind represents the type of dependence an edge carries.
type Kind string

const (
	Data    Kind = "data"    // use depends on a reaching definition
	Control Kind = "control" // statement depends on a governing predicate
)

// Edge is a directed dependence edge. From is the depending statement
// (a use or a controlled statement); To is what it depends on (a
// definition or a predicate). Following From -> To walks backward
// through the program.
type Edge struct {
	From ast.NodeID   `json:"from"`
	To   ast.NodeID   `json:"to"`
	Kind Kind         `json:"kind"`
	Var  ast.SymbolID `json:"var"` // defined variable for data edges, NoSymbol otherwise
}

// Graph is the dependence graph of one function, immutable once built.
type Graph struct {
	Fn    ast.NodeID `json:"fn"`
	CFG   *cfg.Graph `json:"-"`
	Edges []Edge     `json:"edges"`

	// Defs and Uses record the variables each statement writes and reads.
	// Parameter nodes appear as definition sites reaching the entry.
	Defs map[ast.NodeID][]ast.SymbolID `json:"-"`
	Uses map[ast.NodeID][]ast.SymbolID `json:"-"`

	// Warnings carries non-fatal findings, e.g. unreachable code.
	Warnings []string `json:"warnings,omitempty"`

	deps       map[ast.NodeID][]Edge // outgoing, keyed by From
	dependents map[ast.NodeID][]Edge // incoming, keyed by To
}

// Deps returns the edges leaving stmt: everything stmt depends on.
func (g *Graph) Deps(stmt ast.NodeID) []Edge { return g.deps[stmt] }

// Dependents returns the edges arriving at stmt: everything depending on
// stmt.
func (g *Graph) Dependents(stmt ast.NodeID) []Edge { return g.dependents[stmt] }

func (g *Graph) index() {
	g.deps = make(map[ast.NodeID][]Edge)
	g.dependents = make(map[ast.NodeID][]Edge)
	for _, e := range g.Edges {
		g.deps[e.From] = append(g.deps[e.From], e)
		g.dependents[e.To] = append(g.dependents[e.To], e)
	}
}

// Options tunes the analysis.
type Options struct {
	// StrictAliasTypes limits the conservative pointer-write rule to
	// address-taken variables whose declared type matches the pointee
	// type. When false, a pointer write conflicts with every
	// address-taken variable.
	StrictAliasTypes bool
}
