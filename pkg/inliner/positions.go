package inliner

import "github.com/mekkanik/cslicer/pkg/ast"

// assignPositions renumbers the spliced statements starting at the line
// the replaced statement occupied, shifts everything behind the insertion
// point by the growth of the file, and records the occupied range. The
// shift runs first so the renumbered block and the moved tail cannot
// overlap.
func (x *expansion) assignPositions(origStmt ast.NodeID, newStmts []ast.NodeID) {
	start := x.out.Node(origStmt).Loc.Line
	origEnd := x.out.Node(origStmt).End.Line
	col := x.out.Node(origStmt).Loc.Col

	total := 0
	for _, s := range newStmts {
		total += x.stmtLines(s)
	}
	if delta := total - (origEnd - start + 1); delta != 0 {
		x.out.ShiftLines(origEnd+1, delta)
	}

	cursor := start
	for _, s := range newStmts {
		x.renumber(s, &cursor, col)
	}
	x.occupied = LineRange{Start: start, End: cursor - 1}
}

// stmtLines counts the lines renumber will assign to a statement: one
// for the statement itself plus one per statement nested under it.
func (x *expansion) stmtLines(stmt ast.NodeID) int {
	total := 1
	for _, block := range x.nestedBlocks(stmt) {
		for _, kid := range x.out.Node(block).Kids {
			total += x.stmtLines(kid)
		}
	}
	return total
}

// renumber assigns cursor's line to stmt and walks nested bodies,
// advancing one line per statement. Every statement's new location is
// recorded in the result map.
func (x *expansion) renumber(stmt ast.NodeID, cursor *int, col int) {
	line := *cursor
	*cursor++

	n := x.out.Node(stmt)
	switch n.Kind {
	case ast.KindIf:
		x.setExprLines(n.Kids[0], line)
		x.renumberBlock(n.Kids[1], cursor, col+4)
		if n.Kids[2] != ast.NoNode {
			x.renumberBlock(n.Kids[2], cursor, col+4)
		}
	case ast.KindFor:
		for _, kid := range n.Kids[:3] {
			x.setExprLines(kid, line)
		}
		x.renumberBlock(n.Kids[3], cursor, col+4)
	case ast.KindWhile:
		x.setExprLines(n.Kids[0], line)
		x.renumberBlock(n.Kids[1], cursor, col+4)
	default:
		for _, kid := range n.Kids {
			x.setExprLines(kid, line)
		}
	}

	n = x.out.Node(stmt)
	n.Loc = ast.Loc{Line: line, Col: col}
	n.End = ast.Loc{Line: *cursor - 1, Col: col}
	x.locs[stmt] = n.Loc
}

func (x *expansion) renumberBlock(block ast.NodeID, cursor *int, col int) {
	first := *cursor
	for _, kid := range x.out.Node(block).Kids {
		x.renumber(kid, cursor, col)
	}
	last := *cursor - 1
	if last < first {
		last = first - 1
	}
	n := x.out.Node(block)
	n.Loc = ast.Loc{Line: first, Col: col}
	n.End = ast.Loc{Line: last, Col: col}
}

// setExprLines pins every node of an expression subtree to one line,
// keeping columns as they are.
func (x *expansion) setExprLines(root ast.NodeID, line int) {
	x.out.Walk(root, func(id ast.NodeID) bool {
		n := x.out.Node(id)
		n.Loc.Line = line
		n.End.Line = line
		return true
	})
}
