package ast

// Clone returns a deep copy of the program. The copy shares nothing with
// the original: node Kids slices are duplicated, so rewrites on the clone
// never show through. This is the copy-on-write substrate for inlining.
func (p *Program) Clone() *Program {
	out := &Program{
		File:      p.File,
		Nodes:     make([]Node, len(p.Nodes)),
		Symbols:   make([]Symbol, len(p.Symbols)),
		Functions: make([]NodeID, len(p.Functions)),
	}
	copy(out.Symbols, p.Symbols)
	copy(out.Functions, p.Functions)
	for i, n := range p.Nodes {
		if n.Kids != nil {
			kids := make([]NodeID, len(n.Kids))
			copy(kids, n.Kids)
			n.Kids = kids
		}
		out.Nodes[i] = n
	}
	return out
}

// CloneSubtree copies the subtree rooted at id into the arena, returning
// the ID of the new root. NoNode child slots are preserved. The source
// subtree may live in the same program; fresh IDs are always allocated.
func (p *Program) CloneSubtree(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	n := p.Nodes[id]
	if n.Kids != nil {
		kids := make([]NodeID, len(n.Kids))
		for i, kid := range n.Kids {
			kids[i] = p.CloneSubtree(kid)
		}
		n.Kids = kids
	}
	return p.Add(n)
}
