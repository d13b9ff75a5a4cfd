package cfg

import (
	"github.com/mekkanik/cslicer/pkg/ast"
)

// Build constructs the control-flow graph of one function. The returned
// graph partitions every statement of the body into exactly one block.
// Statements that cannot execute (code after an unconditional return) land
// in disconnected blocks flagged unreachable.
func Build(prog *ast.Program, fn ast.NodeID) *Graph {
	b := &builder{
		prog: prog,
		g: &Graph{
			Fn:           fn,
			FunctionName: prog.Node(fn).Text,
			Entry:        NoBlock,
			StmtBlock:    make(map[ast.NodeID]BlockID),
		},
	}

	entry := b.newBlock(BlockEntry)
	b.g.Entry = entry.ID

	first := b.newBlock(BlockPlain)
	b.edge(entry.ID, first.ID, EdgeFallthrough)

	last := b.statements(prog.Body(fn), first.ID)
	_ = last // a live fall-off block is already a terminal: zero successors

	b.markReachability()
	for _, blk := range b.g.Blocks {
		if len(blk.Succs) == 0 && !blk.Unreachable {
			b.g.Terminals = append(b.g.Terminals, blk.ID)
		}
	}
	return b.g
}

type builder struct {
	prog *ast.Program
	g    *Graph
}

func (b *builder) newBlock(kind BlockKind) *Block {
	blk := &Block{ID: BlockID(len(b.g.Blocks)), Kind: kind}
	b.g.Blocks = append(b.g.Blocks, blk)
	return blk
}

func (b *builder) edge(from, to BlockID, kind EdgeKind) {
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Kind: kind})
	b.g.Blocks[from].Succs = append(b.g.Blocks[from].Succs, to)
	b.g.Blocks[to].Preds = append(b.g.Blocks[to].Preds, from)
}

func (b *builder) appendStmt(blk BlockID, stmt ast.NodeID) {
	b.g.Blocks[blk].Stmts = append(b.g.Blocks[blk].Stmts, stmt)
	b.g.StmtBlock[stmt] = blk
}

// statements lowers the statements of a block node starting in cur and
// returns the block control falls out of, or NoBlock when every path has
// returned. When cur is NoBlock and another statement follows, a fresh
// disconnected block is opened for the dead code.
func (b *builder) statements(block ast.NodeID, cur BlockID) BlockID {
	if block == ast.NoNode {
		return cur
	}
	for _, stmt := range b.prog.Node(block).Kids {
		if stmt == ast.NoNode {
			continue
		}
		if cur == NoBlock {
			// dead code after a return: its own island, no predecessors
			cur = b.newBlock(BlockPlain).ID
		}
		cur = b.statement(stmt, cur)
	}
	return cur
}

func (b *builder) statement(stmt ast.NodeID, cur BlockID) BlockID {
	n := b.prog.Node(stmt)
	switch n.Kind {
	case ast.KindDecl, ast.KindAssign, ast.KindExprStmt:
		b.appendStmt(cur, stmt)
		return cur

	case ast.KindIf:
		return b.ifStmt(stmt, cur)

	case ast.KindWhile:
		return b.loop(stmt, n.Kids[1], cur)

	case ast.KindFor:
		// the whole for header (init, cond, post) is the predicate stmt
		return b.loop(stmt, n.Kids[3], cur)

	case ast.KindReturn:
		ret := b.newBlock(BlockReturn)
		b.appendStmt(ret.ID, stmt)
		b.edge(cur, ret.ID, EdgeFallthrough)
		return NoBlock

	case ast.KindBlock:
		return b.statements(stmt, cur)

	default:
		b.appendStmt(cur, stmt)
		return cur
	}
}

func (b *builder) ifStmt(stmt ast.NodeID, cur BlockID) BlockID {
	n := b.prog.Node(stmt)
	pred := b.newBlock(BlockPredicate)
	b.appendStmt(pred.ID, stmt)
	b.edge(cur, pred.ID, EdgeFallthrough)

	thenEntry := b.newBlock(BlockPlain)
	b.edge(pred.ID, thenEntry.ID, EdgeTrue)
	thenExit := b.statements(n.Kids[1], thenEntry.ID)

	join := b.newBlock(BlockPlain)
	if n.Kids[2] != ast.NoNode {
		elseEntry := b.newBlock(BlockPlain)
		b.edge(pred.ID, elseEntry.ID, EdgeFalse)
		elseExit := b.statements(n.Kids[2], elseEntry.ID)
		if elseExit != NoBlock {
			b.edge(elseExit, join.ID, EdgeFallthrough)
		}
	} else {
		b.edge(pred.ID, join.ID, EdgeFalse)
	}
	if thenExit != NoBlock {
		b.edge(thenExit, join.ID, EdgeFallthrough)
	}
	return join.ID
}

// loop builds the shared while/for shape: a predicate block holding the
// loop statement, a body falling back to the predicate, and a false edge
// out.
func (b *builder) loop(stmt, body ast.NodeID, cur BlockID) BlockID {
	pred := b.newBlock(BlockPredicate)
	b.appendStmt(pred.ID, stmt)
	b.edge(cur, pred.ID, EdgeFallthrough)

	bodyEntry := b.newBlock(BlockPlain)
	b.edge(pred.ID, bodyEntry.ID, EdgeTrue)
	bodyExit := b.statements(body, bodyEntry.ID)
	if bodyExit != NoBlock {
		b.edge(bodyExit, pred.ID, EdgeBack)
	}

	after := b.newBlock(BlockPlain)
	b.edge(pred.ID, after.ID, EdgeFalse)
	return after.ID
}

// markReachability flags every block not reachable from entry.
func (b *builder) markReachability() {
	seen := make(map[BlockID]bool)
	stack := []BlockID{b.g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, b.g.Blocks[id].Succs...)
	}
	for _, blk := range b.g.Blocks {
		if !seen[blk.ID] {
			blk.Unreachable = true
		}
	}
}
