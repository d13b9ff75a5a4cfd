// Package cfg builds control-flow graphs over the arena AST. Blocks
// partition every reachable statement of a function exactly once; branch
// and loop constructs contribute predicate blocks with two successors.
package cfg

import "github.com/mekkanik/cslicer/pkg/ast"

// BlockID indexes a block within a Graph.
type BlockID int

// NoBlock marks an absent block reference.
const NoBlock BlockID = -1

// BlockKind represents the role of a basic block.
type BlockKind string

const (
	BlockEntry     BlockKind = "entry"     // function entry point
	BlockPlain     BlockKind = "plain"     // straight-line statements
	BlockPredicate BlockKind = "predicate" // if/for/while decision, two successors
	BlockReturn    BlockKind = "return"    // return statement, zero successors
)

// EdgeKind represents the type of a control edge.
type EdgeKind string

const (
	EdgeFallthrough EdgeKind = "fallthrough" // unconditional continuation
	EdgeTrue        EdgeKind = "true"        // branch taken / loop continue
	EdgeFalse       EdgeKind = "false"       // branch not taken / loop exit
	EdgeBack        EdgeKind = "back"        // loop body back to its predicate
)

// Block is one basic block: an ordered run of statement nodes with up to
// two successors. Predicate blocks hold exactly the branching statement.
type Block struct {
	ID          BlockID      `json:"id"`
	Kind        BlockKind    `json:"kind"`
	Stmts       []ast.NodeID `json:"stmts"`
	Succs       []BlockID    `json:"succs"`
	Preds       []BlockID    `json:"preds"`
	Unreachable bool         `json:"unreachable"` // never reachable from entry
}

// Edge is a directed control edge between two blocks.
type Edge struct {
	From BlockID  `json:"from"`
	To   BlockID  `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph is the control-flow graph of one function. It is read-only once
// Build returns.
type Graph struct {
	Fn           ast.NodeID `json:"fn"`
	FunctionName string     `json:"function_name"`
	Blocks       []*Block   `json:"blocks"`
	Edges        []Edge     `json:"edges"`
	Entry        BlockID    `json:"entry"`
	Terminals    []BlockID  `json:"terminals"` // reachable zero-successor blocks

	// StmtBlock maps every statement to the block holding it.
	StmtBlock map[ast.NodeID]BlockID `json:"-"`
}

// Block returns the block for id.
func (g *Graph) Block(id BlockID) *Block { return g.Blocks[id] }

// HasUnreachable reports whether any block was flagged unreachable.
// Downstream analyses surface this as a warning, never an error.
func (g *Graph) HasUnreachable() bool {
	for _, b := range g.Blocks {
		if b.Unreachable {
			return true
		}
	}
	return false
}
