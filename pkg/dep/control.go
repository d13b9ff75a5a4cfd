package dep

import (
	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

// controlEdges derives control dependence from the post-dominator tree
// using the Ferrante-Ottenstein-Warren condition: S depends on predicate
// P iff P has a successor that S post-dominates the path of, while P
// itself does not post-dominate S. Operationally: for every branch edge
// P -> s, walk s up the post-dominator tree until reaching ipdom(P),
// marking every node passed as dependent on P.
func controlEdges(g *cfg.Graph, pd *postDom) []Edge {
	var edges []Edge
	seen := make(map[Edge]struct{})

	add := func(from, to ast.NodeID) {
		if from == to {
			return
		}
		e := Edge{From: from, To: to, Kind: Control, Var: ast.NoSymbol}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}

	for _, p := range g.Blocks {
		if p.Unreachable || len(p.Succs) < 2 || len(p.Stmts) == 0 {
			continue
		}
		predStmt := p.Stmts[0]
		stop := pd.ipdom[int(p.ID)]
		for _, s := range p.Succs {
			runner := int(s)
			for runner != stop && runner != -1 && runner != pd.exit {
				for _, stmt := range g.Blocks[runner].Stmts {
					add(stmt, predStmt)
				}
				runner = pd.ipdom[runner]
			}
		}
	}
	return edges
}
