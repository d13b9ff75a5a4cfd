// Package callgraph builds the intra-file call graph: which functions
// each function body calls. The inliner consults it to reject recursive
// expansion; the CLI exposes it directly.
package callgraph

import (
	"sort"

	"github.com/mekkanik/cslicer/pkg/ast"
)

// Edge is one caller -> callee relation.
type Edge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// Graph is the call graph of one parsed file. Callees outside the file
// (library functions) appear as edges with no function node of their own.
type Graph struct {
	Edges []Edge `json:"edges"`

	callees map[string][]string
}

// Build walks every function body collecting call expressions.
func Build(prog *ast.Program) *Graph {
	g := &Graph{callees: make(map[string][]string)}
	seen := make(map[Edge]struct{})

	for _, fn := range prog.Functions {
		caller := prog.Node(fn).Text
		prog.Walk(prog.Body(fn), func(id ast.NodeID) bool {
			n := prog.Node(id)
			if n.Kind != ast.KindCall || len(n.Kids) == 0 || n.Kids[0] == ast.NoNode {
				return true
			}
			callee := prog.Node(n.Kids[0])
			if callee.Kind != ast.KindIdent {
				return true
			}
			e := Edge{Caller: caller, Callee: callee.Text}
			if _, ok := seen[e]; !ok {
				seen[e] = struct{}{}
				g.Edges = append(g.Edges, e)
				g.callees[caller] = append(g.callees[caller], callee.Text)
			}
			return true
		})
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].Caller != g.Edges[j].Caller {
			return g.Edges[i].Caller < g.Edges[j].Caller
		}
		return g.Edges[i].Callee < g.Edges[j].Callee
	})
	return g
}

// Callees returns the functions called from caller, in discovery order.
func (g *Graph) Callees(caller string) []string {
	return g.callees[caller]
}

// Reaches reports whether target is callable from start through any chain
// of calls, including a direct self call.
func (g *Graph) Reaches(start, target string) bool {
	visited := make(map[string]bool)
	stack := append([]string(nil), g.callees[start]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, g.callees[cur]...)
	}
	return false
}
