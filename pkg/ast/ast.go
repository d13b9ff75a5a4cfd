// Package ast defines the arena-allocated syntax tree shared by every
// analysis in cslicer. Nodes are stored in a flat slice and referenced by
// integer IDs, so cloning a whole program for a rewrite is a structural
// copy with no aliasing back into the original tree.
package ast

import "fmt"

// Loc is a 1-based source position. Locations order lexicographically
// by line, then column, and identify statements uniquely within a file.
type Loc struct {
	Line int `json:"line"`
	Col  int `json:"column"`
}

// Before reports whether l orders strictly before o.
func (l Loc) Before(o Loc) bool {
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Col < o.Col
}

// IsZero reports whether l is the zero location (no position attached).
func (l Loc) IsZero() bool { return l.Line == 0 && l.Col == 0 }

func (l Loc) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Col) }

// NodeID indexes a node in a Program's arena.
type NodeID int

// NoNode marks an absent child slot (e.g. a for loop without an init).
const NoNode NodeID = -1

// SymbolID indexes a symbol in a Program's symbol table.
type SymbolID int

// NoSymbol marks an identifier with no resolved symbol.
const NoSymbol SymbolID = -1

// Kind tags a node variant. Every analysis pass switches exhaustively
// over these tags.
type Kind string

const (
	KindFunction Kind = "function"  // Text=name, Kids=[params..., body]
	KindParam    Kind = "param"     // Text=type, Kids=[ident]
	KindBlock    Kind = "block"     // Kids=[stmts...]
	KindDecl     Kind = "decl"      // Text=type, Kids=[ident, init|NoNode]
	KindAssign   Kind = "assign"    // Kids=[lhs, rhs]
	KindIf       Kind = "if"        // Kids=[cond, then, else|NoNode]
	KindFor      Kind = "for"       // Kids=[init|NoNode, cond|NoNode, post|NoNode, body]
	KindWhile    Kind = "while"     // Kids=[cond, body]
	KindReturn   Kind = "return"    // Kids=[] or [expr]
	KindExprStmt Kind = "expr_stmt" // Kids=[expr]
	KindCall     Kind = "call"      // Kids=[callee, args...]
	KindBinary   Kind = "binary"    // Text=op, Kids=[lhs, rhs]
	KindUnary    Kind = "unary"     // Text=op, Kids=[operand]
	KindIndex    Kind = "index"     // Kids=[base, index]
	KindIdent    Kind = "ident"     // Text=name, Sym=resolved symbol
	KindLiteral  Kind = "literal"   // Text=source text
)

// Node is one tagged-variant tree node. The meaning of Kids and Text per
// variant is documented on the Kind constants above.
type Node struct {
	Kind Kind     `json:"kind"`
	Loc  Loc      `json:"loc"`            // start position
	End  Loc      `json:"end"`            // end position (inclusive of last token's line)
	Kids []NodeID `json:"kids,omitempty"` // child node IDs, NoNode for absent slots
	Text string   `json:"text,omitempty"` // name, operator, literal text or declared type
	Sym  SymbolID `json:"sym,omitempty"`  // resolved symbol for identifiers
}

// IsStmt reports whether the node variant is a statement.
func (n *Node) IsStmt() bool {
	switch n.Kind {
	case KindDecl, KindAssign, KindIf, KindFor, KindWhile, KindReturn, KindExprStmt:
		return true
	}
	return false
}

// SymKind classifies a symbol table entry.
type SymKind string

const (
	SymVar    SymKind = "var"    // local variable
	SymParam  SymKind = "param"  // function parameter
	SymFunc   SymKind = "func"   // function
	SymExtern SymKind = "extern" // name with no visible declaration
)

// Symbol is one resolved name. Symbols are created by the front end and
// read-only afterward, except for AddrTaken which the front end sets while
// resolving unary & expressions.
type Symbol struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`       // declared type, "" for externs
	Kind      SymKind `json:"sym_kind"`   // var, param, func, extern
	Decl      NodeID  `json:"decl"`       // declaring node, NoNode for externs
	AddrTaken bool    `json:"addr_taken"` // address of this symbol escapes
}

// Program owns one file's arena of nodes plus its symbol table. A Program
// is immutable once the front end returns it; the inliner works on clones.
type Program struct {
	File      string   `json:"file"`
	Nodes     []Node   `json:"nodes"`
	Symbols   []Symbol `json:"symbols"`
	Functions []NodeID `json:"functions"` // function nodes in source order
}

// NewProgram returns an empty program for the given file path.
func NewProgram(file string) *Program {
	return &Program{File: file}
}

// Node returns the node for id. The pointer aliases the arena; callers
// treat it as read-only unless they own the program.
func (p *Program) Node(id NodeID) *Node { return &p.Nodes[id] }

// Symbol returns the symbol for id.
func (p *Program) Symbol(id SymbolID) *Symbol { return &p.Symbols[id] }

// Add appends a node to the arena and returns its ID.
func (p *Program) Add(n Node) NodeID {
	p.Nodes = append(p.Nodes, n)
	return NodeID(len(p.Nodes) - 1)
}

// AddSymbol appends a symbol and returns its ID.
func (p *Program) AddSymbol(s Symbol) SymbolID {
	p.Symbols = append(p.Symbols, s)
	return SymbolID(len(p.Symbols) - 1)
}

// FunctionByName returns the function node with the given name, or NoNode.
func (p *Program) FunctionByName(name string) NodeID {
	for _, fn := range p.Functions {
		if p.Nodes[fn].Text == name {
			return fn
		}
	}
	return NoNode
}

// Body returns the body block of a function node.
func (p *Program) Body(fn NodeID) NodeID {
	kids := p.Nodes[fn].Kids
	return kids[len(kids)-1]
}

// Params returns the parameter nodes of a function node.
func (p *Program) Params(fn NodeID) []NodeID {
	kids := p.Nodes[fn].Kids
	return kids[:len(kids)-1]
}

// SymbolByName returns the first symbol with the given name, or NoSymbol.
// Scoped resolution happens in the front end; this lookup serves callers
// that only hold a name, like the slice criterion.
func (p *Program) SymbolByName(name string) SymbolID {
	for i := range p.Symbols {
		if p.Symbols[i].Name == name {
			return SymbolID(i)
		}
	}
	return NoSymbol
}
