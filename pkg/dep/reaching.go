package dep

import (
	"container/list"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

// definition is one definition site: a statement (or parameter node)
// assigning one variable.
type definition struct {
	stmt ast.NodeID
	sym  ast.SymbolID
}

// reaching runs the classic forward reaching-definitions worklist to
// fixpoint over the CFG blocks and derives one data edge per (use,
// reaching definition) pair. Termination follows from the finite,
// monotone lattice of definition sets.
type reaching struct {
	prog *ast.Program
	g    *cfg.Graph

	defs  []definition
	gen   map[cfg.BlockID]map[int]struct{}
	kill  map[cfg.BlockID]map[ast.SymbolID]struct{}
	defsB map[ast.NodeID][]int // definition IDs per statement

	stmtDefs map[ast.NodeID][]ast.SymbolID
	stmtUses map[ast.NodeID][]ast.SymbolID
}

func newReaching(prog *ast.Program, g *cfg.Graph, stmtDefs, stmtUses map[ast.NodeID][]ast.SymbolID) *reaching {
	r := &reaching{
		prog:     prog,
		g:        g,
		gen:      make(map[cfg.BlockID]map[int]struct{}),
		kill:     make(map[cfg.BlockID]map[ast.SymbolID]struct{}),
		defsB:    make(map[ast.NodeID][]int),
		stmtDefs: stmtDefs,
		stmtUses: stmtUses,
	}
	r.collectDefs()
	r.buildGenKill()
	return r
}

// collectDefs numbers every definition site. Parameters count as
// definitions materializing in the entry block.
func (r *reaching) collectDefs() {
	for _, param := range r.prog.Params(r.g.Fn) {
		sym := r.prog.Node(r.prog.Node(param).Kids[0]).Sym
		r.addDef(param, sym)
	}
	for _, blk := range r.g.Blocks {
		for _, stmt := range blk.Stmts {
			for _, sym := range r.stmtDefs[stmt] {
				r.addDef(stmt, sym)
			}
		}
	}
}

func (r *reaching) addDef(stmt ast.NodeID, sym ast.SymbolID) {
	r.defs = append(r.defs, definition{stmt: stmt, sym: sym})
	r.defsB[stmt] = append(r.defsB[stmt], len(r.defs)-1)
}

// buildGenKill composes per-statement gen/kill through each block in
// statement order.
func (r *reaching) buildGenKill() {
	for _, blk := range r.g.Blocks {
		gen := make(map[int]struct{})
		kill := make(map[ast.SymbolID]struct{})
		if blk.ID == r.g.Entry {
			for _, param := range r.prog.Params(r.g.Fn) {
				for _, d := range r.defsB[param] {
					gen[d] = struct{}{}
					kill[r.defs[d].sym] = struct{}{}
				}
			}
		}
		for _, stmt := range blk.Stmts {
			for _, sym := range r.stmtDefs[stmt] {
				// an assignment to x kills prior definitions of x
				for d := range gen {
					if r.defs[d].sym == sym {
						delete(gen, d)
					}
				}
				kill[sym] = struct{}{}
			}
			for _, d := range r.defsB[stmt] {
				gen[d] = struct{}{}
			}
		}
		r.gen[blk.ID] = gen
		r.kill[blk.ID] = kill
	}
}

// solve iterates the dataflow equations to fixpoint and returns the
// per-block in sets.
func (r *reaching) solve() map[cfg.BlockID]map[int]struct{} {
	in := make(map[cfg.BlockID]map[int]struct{})
	out := make(map[cfg.BlockID]map[int]struct{})
	for _, blk := range r.g.Blocks {
		in[blk.ID] = make(map[int]struct{})
		out[blk.ID] = make(map[int]struct{})
	}

	worklist := list.New()
	for _, blk := range r.g.Blocks {
		worklist.PushBack(blk.ID)
	}

	for worklist.Len() > 0 {
		id := worklist.Remove(worklist.Front()).(cfg.BlockID)
		blk := r.g.Block(id)

		inSet := make(map[int]struct{})
		for _, pred := range blk.Preds {
			for d := range out[pred] {
				inSet[d] = struct{}{}
			}
		}
		in[id] = inSet

		outSet := make(map[int]struct{}, len(r.gen[id]))
		for d := range r.gen[id] {
			outSet[d] = struct{}{}
		}
		for d := range inSet {
			if _, killed := r.kill[id][r.defs[d].sym]; !killed {
				outSet[d] = struct{}{}
			}
		}

		if !setsEqual(out[id], outSet) {
			out[id] = outSet
			for _, succ := range blk.Succs {
				worklist.PushBack(succ)
			}
		}
	}
	return in
}

// edges walks every block with its solved in set, connecting each use to
// the definitions that reach it at that exact statement.
func (r *reaching) edges() []Edge {
	in := r.solve()
	var edges []Edge
	seen := make(map[Edge]struct{})

	add := func(e Edge) {
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}

	for _, blk := range r.g.Blocks {
		rd := make(map[int]struct{}, len(in[blk.ID]))
		for d := range in[blk.ID] {
			rd[d] = struct{}{}
		}
		for _, stmt := range blk.Stmts {
			for _, sym := range r.stmtUses[stmt] {
				for d := range rd {
					if r.defs[d].sym == sym {
						add(Edge{From: stmt, To: r.defs[d].stmt, Kind: Data, Var: sym})
					}
				}
			}
			for _, sym := range r.stmtDefs[stmt] {
				for d := range rd {
					if r.defs[d].sym == sym {
						delete(rd, d)
					}
				}
			}
			for _, d := range r.defsB[stmt] {
				rd[d] = struct{}{}
			}
		}
	}
	return edges
}

func setsEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
