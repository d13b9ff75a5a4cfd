package ast

// Walk visits root and its descendants in pre-order. The visit function
// returns false to skip the subtree below a node.
func (p *Program) Walk(root NodeID, visit func(NodeID) bool) {
	if root == NoNode {
		return
	}
	if !visit(root) {
		return
	}
	for _, kid := range p.Nodes[root].Kids {
		p.Walk(kid, visit)
	}
}

// Statements returns every statement node under root in source order.
// Compound statements (if, for, while) appear before the statements of
// their bodies.
func (p *Program) Statements(root NodeID) []NodeID {
	var stmts []NodeID
	p.Walk(root, func(id NodeID) bool {
		if p.Nodes[id].IsStmt() {
			stmts = append(stmts, id)
		}
		return true
	})
	return stmts
}

// Idents returns every identifier node under root in source order.
func (p *Program) Idents(root NodeID) []NodeID {
	var ids []NodeID
	p.Walk(root, func(id NodeID) bool {
		if p.Nodes[id].Kind == KindIdent {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// contains reports whether the node's span covers loc. A span covers a
// location when loc is not before the start and not after the end.
func (p *Program) contains(id NodeID, loc Loc) bool {
	n := &p.Nodes[id]
	if loc.Before(n.Loc) {
		return false
	}
	if n.End.Before(loc) {
		return false
	}
	return true
}

// StatementAt returns the innermost statement under root whose span
// contains loc, or NoNode. When only the line of loc is meaningful
// (column 0), any statement on that line matches. The init and post
// parts of a for header belong to the for statement itself, never to a
// statement of their own.
func (p *Program) StatementAt(root NodeID, loc Loc) NodeID {
	best := NoNode
	var walk func(NodeID)
	walk = func(id NodeID) {
		if id == NoNode {
			return
		}
		n := &p.Nodes[id]
		if n.IsStmt() {
			hit := p.contains(id, loc)
			if !hit && loc.Col == 0 {
				hit = n.Loc.Line <= loc.Line && loc.Line <= n.End.Line
			}
			if hit {
				best = id
			}
		}
		kids := n.Kids
		if n.Kind == KindFor && len(kids) == 4 {
			kids = kids[3:]
		}
		for _, kid := range kids {
			walk(kid)
		}
	}
	walk(root)
	return best
}

// EnclosingFunction returns the function whose span contains loc, or
// NoNode.
func (p *Program) EnclosingFunction(loc Loc) NodeID {
	for _, fn := range p.Functions {
		if p.contains(fn, loc) {
			return fn
		}
	}
	return NoNode
}

// CallAt returns the innermost call node under root whose span contains
// loc, or NoNode.
func (p *Program) CallAt(root NodeID, loc Loc) NodeID {
	best := NoNode
	p.Walk(root, func(id NodeID) bool {
		if p.Nodes[id].Kind == KindCall && p.contains(id, loc) {
			best = id
		}
		return true
	})
	return best
}

// Parent returns the parent of id under root, or NoNode for the root
// itself. Linear in the subtree size; callers needing repeated lookups
// should build their own map.
func (p *Program) Parent(root, id NodeID) NodeID {
	parent := NoNode
	p.Walk(root, func(cur NodeID) bool {
		for _, kid := range p.Nodes[cur].Kids {
			if kid == id {
				parent = cur
				return false
			}
		}
		return true
	})
	return parent
}

// MaxLine returns the highest end line of any node in the program.
func (p *Program) MaxLine() int {
	max := 0
	for i := range p.Nodes {
		if p.Nodes[i].End.Line > max {
			max = p.Nodes[i].End.Line
		}
	}
	return max
}

// ShiftLines moves every node starting at or after fromLine down by delta
// lines. This is the position remap used after splicing an inlined block:
// statements behind the insertion point keep their relative order while
// the file grows.
func (p *Program) ShiftLines(fromLine, delta int) {
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if n.Loc.Line >= fromLine {
			n.Loc.Line += delta
		}
		if n.End.Line >= fromLine {
			n.End.Line += delta
		}
	}
}
