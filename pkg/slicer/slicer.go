// Package slicer computes program slices over the dependence graph: the
// backward-closed set of statements that can influence a value at a
// chosen source point, or the forward set it can influence.
package slicer

import (
	"errors"
	"sort"

	"github.com/mekkanik/cslicer/internal/log"
	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/dep"
)

// ErrCriterionNotFound reports a criterion location that indexes no
// statement of the analyzed function.
var ErrCriterionNotFound = errors.New("criterion location matches no statement")

// Direction selects which way the slice closes over dependence edges.
type Direction string

const (
	Backward Direction = "backward" // what can affect the criterion
	Forward  Direction = "forward"  // what the criterion can affect
)

// Criterion is the slicing criterion: a source location and an optional
// variable name. An empty Var means all variables live at that point.
type Criterion struct {
	Loc       ast.Loc   `json:"loc"`
	Var       string    `json:"var,omitempty"`
	Direction Direction `json:"direction,omitempty"` // default backward
}

// Result is the computed slice: a dependence-closed statement set, always
// containing the criterion statement.
type Result struct {
	Fn       ast.NodeID   `json:"fn"`
	Stmts    []ast.NodeID `json:"stmts"`
	Lines    []int        `json:"lines"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Slice computes the slice for crit over one function's dependence
// graph. The graph and program are read only; concurrent calls need no
// coordination.
func Slice(prog *ast.Program, g *dep.Graph, crit Criterion) (*Result, error) {
	dir := crit.Direction
	if dir == "" {
		dir = Backward
	}

	body := prog.Body(g.Fn)
	seed := prog.StatementAt(body, crit.Loc)
	if seed == ast.NoNode {
		return nil, ErrCriterionNotFound
	}

	if crit.Var != "" {
		if !refersTo(prog, g, seed, crit.Var) {
			// reseat at the nearest statement referencing the variable
			seed = nearestReference(prog, g, seed, crit.Var)
			if seed == ast.NoNode {
				return nil, ErrCriterionNotFound
			}
		}
		if !everDefined(prog, g, crit.Var) {
			// a variable with no definition depends on nothing
			return finish(prog, g, []ast.NodeID{seed}), nil
		}
	}

	log.Default().Debug("slicing", "function", g.CFG.FunctionName,
		"loc", crit.Loc.String(), "var", crit.Var, "direction", string(dir))

	visited := map[ast.NodeID]bool{seed: true}
	worklist := []ast.NodeID{seed}
	first := true

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		for _, e := range edgesFor(g, cur, dir) {
			// the variable filter selects which value flows out of the
			// criterion statement itself; past the seed the closure is
			// unfiltered so the result stays closed under dependence
			if first && crit.Var != "" && e.Kind == dep.Data {
				if e.Var == ast.NoSymbol || prog.Symbol(e.Var).Name != crit.Var {
					continue
				}
			}
			next := otherEnd(e, dir)
			if visited[next] {
				continue
			}
			visited[next] = true
			worklist = append(worklist, next)
		}
		first = false
	}

	stmts := make([]ast.NodeID, 0, len(visited))
	for id := range visited {
		stmts = append(stmts, id)
	}
	return finish(prog, g, stmts), nil
}

func edgesFor(g *dep.Graph, stmt ast.NodeID, dir Direction) []dep.Edge {
	if dir == Forward {
		return g.Dependents(stmt)
	}
	return g.Deps(stmt)
}

func otherEnd(e dep.Edge, dir Direction) ast.NodeID {
	if dir == Forward {
		return e.From
	}
	return e.To
}

// refersTo reports whether stmt defines or uses a variable named name.
func refersTo(prog *ast.Program, g *dep.Graph, stmt ast.NodeID, name string) bool {
	for _, sym := range g.Defs[stmt] {
		if prog.Symbol(sym).Name == name {
			return true
		}
	}
	for _, sym := range g.Uses[stmt] {
		if prog.Symbol(sym).Name == name {
			return true
		}
	}
	return false
}

// nearestReference finds the statement closest in line distance to from
// that references name, preferring earlier statements on a tie.
func nearestReference(prog *ast.Program, g *dep.Graph, from ast.NodeID, name string) ast.NodeID {
	fromLine := prog.Node(from).Loc.Line
	best := ast.NoNode
	bestDist := 0
	for _, blk := range g.CFG.Blocks {
		for _, stmt := range blk.Stmts {
			if !refersTo(prog, g, stmt, name) {
				continue
			}
			d := prog.Node(stmt).Loc.Line - fromLine
			if d < 0 {
				d = -d
			}
			if best == ast.NoNode || d < bestDist ||
				(d == bestDist && prog.Node(stmt).Loc.Before(prog.Node(best).Loc)) {
				best = stmt
				bestDist = d
			}
		}
	}
	return best
}

// everDefined reports whether any statement or parameter defines name.
func everDefined(prog *ast.Program, g *dep.Graph, name string) bool {
	for stmt, defs := range g.Defs {
		_ = stmt
		for _, sym := range defs {
			if prog.Symbol(sym).Name == name {
				return true
			}
		}
	}
	return false
}

func finish(prog *ast.Program, g *dep.Graph, stmts []ast.NodeID) *Result {
	sort.Slice(stmts, func(i, j int) bool {
		return prog.Node(stmts[i]).Loc.Before(prog.Node(stmts[j]).Loc)
	})
	lineSet := make(map[int]struct{})
	for _, id := range stmts {
		lineSet[prog.Node(id).Loc.Line] = struct{}{}
	}
	lines := make([]int, 0, len(lineSet))
	for line := range lineSet {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	return &Result{
		Fn:       g.Fn,
		Stmts:    stmts,
		Lines:    lines,
		Warnings: append([]string(nil), g.Warnings...),
	}
}
