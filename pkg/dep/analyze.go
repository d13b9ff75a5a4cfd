package dep

import (
	"fmt"

	"github.com/mekkanik/cslicer/internal/log"
	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

// Analyze computes the dependence graph for one function's CFG. The
// input program and CFG are read only; concurrent Analyze calls over the
// same snapshot need no coordination.
func Analyze(prog *ast.Program, g *cfg.Graph, opts Options) *Graph {
	ext := &refExtractor{prog: prog, opts: opts}

	defs := make(map[ast.NodeID][]ast.SymbolID)
	uses := make(map[ast.NodeID][]ast.SymbolID)
	for _, blk := range g.Blocks {
		for _, stmt := range blk.Stmts {
			d, u := ext.stmtRefs(stmt)
			defs[stmt] = d
			uses[stmt] = u
		}
	}
	for _, param := range prog.Params(g.Fn) {
		sym := prog.Node(prog.Node(param).Kids[0]).Sym
		defs[param] = []ast.SymbolID{sym}
	}

	out := &Graph{
		Fn:   g.Fn,
		CFG:  g,
		Defs: defs,
		Uses: uses,
	}

	r := newReaching(prog, g, defs, uses)
	out.Edges = append(out.Edges, r.edges()...)

	if len(g.Terminals) > 1 {
		// multi-exit CFG: recovered by the virtual exit inside postDom
		log.Default().Debug("joining terminal blocks through virtual exit",
			"function", g.FunctionName, "terminals", len(g.Terminals))
	}
	pd := newPostDom(g)
	out.Edges = append(out.Edges, controlEdges(g, pd)...)

	if g.HasUnreachable() {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("function %s contains unreachable code", g.FunctionName))
	}

	out.index()
	return out
}
