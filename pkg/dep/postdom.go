package dep

import (
	"github.com/mekkanik/cslicer/pkg/cfg"
)

// postDom holds the immediate post-dominator of each block, computed by
// the iterative dominance algorithm run over the reversed CFG. A virtual
// exit joins every terminal block, so functions with several returns (or
// a return plus a fall-off path) still have a single node to
// post-dominate against; that recovery is internal and never surfaces.
type postDom struct {
	g     *cfg.Graph
	exit  int   // index of the virtual exit node
	ipdom []int // immediate post-dominator, -1 when undefined
	order []int // postorder numbering used by intersect
}

func newPostDom(g *cfg.Graph) *postDom {
	n := len(g.Blocks)
	p := &postDom{
		g:     g,
		exit:  n,
		ipdom: make([]int, n+1),
		order: make([]int, n+1),
	}
	p.compute()
	return p
}

// terminals returns the blocks flowing into the virtual exit. A function
// that can never leave its loop has no terminal; every reachable block
// joins the exit then, keeping the tree well defined.
func (p *postDom) terminals() []int {
	var ts []int
	for _, t := range p.g.Terminals {
		ts = append(ts, int(t))
	}
	if len(ts) == 0 {
		for _, blk := range p.g.Blocks {
			if !blk.Unreachable {
				ts = append(ts, int(blk.ID))
			}
		}
	}
	return ts
}

// revSuccs returns a block's successors in the exit-augmented CFG, which
// are its predecessors in the reversed graph the algorithm runs on.
func (p *postDom) revSuccs(b int, terminal map[int]bool) []int {
	var out []int
	for _, s := range p.g.Blocks[b].Succs {
		out = append(out, int(s))
	}
	if terminal[b] {
		out = append(out, p.exit)
	}
	return out
}

func (p *postDom) compute() {
	terminal := make(map[int]bool)
	for _, t := range p.terminals() {
		terminal[t] = true
	}

	// postorder of the reversed graph, rooted at the virtual exit
	var po []int
	visited := make([]bool, p.exit+1)
	var dfs func(int)
	dfs = func(b int) {
		visited[b] = true
		if b != p.exit {
			for _, pred := range p.g.Blocks[b].Preds {
				if !visited[pred] {
					dfs(int(pred))
				}
			}
		} else {
			for t := range terminal {
				if !visited[t] {
					dfs(t)
				}
			}
		}
		po = append(po, b)
	}
	dfs(p.exit)

	for i := range p.ipdom {
		p.ipdom[i] = -1
		p.order[i] = -1
	}
	for i, b := range po {
		p.order[b] = i
	}
	p.ipdom[p.exit] = p.exit

	// Cooper-Harvey-Kennedy iteration to fixpoint
	changed := true
	for changed {
		changed = false
		for i := len(po) - 1; i >= 0; i-- {
			b := po[i]
			if b == p.exit {
				continue
			}
			newIdom := -1
			for _, s := range p.revSuccs(b, terminal) {
				if p.order[s] == -1 {
					continue
				}
				if p.ipdom[s] == -1 && s != p.exit {
					continue
				}
				if newIdom == -1 {
					newIdom = s
				} else {
					newIdom = p.intersect(s, newIdom)
				}
			}
			if newIdom != -1 && p.ipdom[b] != newIdom {
				p.ipdom[b] = newIdom
				changed = true
			}
		}
	}
}

// intersect walks two nodes up the post-dominator tree to their common
// ancestor, using postorder numbers of the reversed graph.
func (p *postDom) intersect(a, b int) int {
	for a != b {
		for p.order[a] < p.order[b] {
			a = p.ipdom[a]
			if a == -1 {
				return b
			}
		}
		for p.order[b] < p.order[a] {
			b = p.ipdom[b]
			if b == -1 {
				return a
			}
		}
	}
	return a
}

// postDominates reports whether block a post-dominates block b.
func (p *postDom) postDominates(a, b int) bool {
	for cur := b; cur != -1; cur = p.ipdom[cur] {
		if cur == a {
			return true
		}
		if cur == p.exit {
			return false
		}
	}
	return false
}
