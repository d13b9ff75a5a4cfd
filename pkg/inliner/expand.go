package inliner

import (
	"fmt"
	"strconv"

	"github.com/mekkanik/cslicer/pkg/ast"
)

// expansion carries the working state of one inline rewrite on the
// cloned program.
type expansion struct {
	prog   *ast.Program // original, read only
	out    *ast.Program // clone being rewritten
	opts   Options
	caller ast.NodeID
	callee ast.NodeID
	call   ast.NodeID

	locs     map[ast.NodeID]ast.Loc
	occupied LineRange
	warnings []string
	taken    map[string]bool
}

func (x *expansion) run() error {
	callLoc := x.out.Node(x.call).Loc
	body := x.out.Body(x.caller)

	stmt := x.out.StatementAt(body, callLoc)
	if stmt == ast.NoNode {
		return fmt.Errorf("no statement holds the call at %s: %w", callLoc.String(), ErrCallNotFound)
	}
	switch x.out.Node(stmt).Kind {
	case ast.KindDecl, ast.KindAssign, ast.KindExprStmt, ast.KindReturn:
	default:
		return fmt.Errorf("call at %s sits in a branch or loop header: %w", callLoc.String(), ErrCallNotFound)
	}

	hostBlock, hostIdx := x.findSlot(body, stmt)
	if hostBlock == ast.NoNode {
		return fmt.Errorf("statement at %s is not inside a block: %w", callLoc.String(), ErrCallNotFound)
	}

	// every name in the unit is off limits for generated identifiers,
	// which makes capture impossible by construction
	x.taken = make(map[string]bool, len(x.out.Symbols))
	for i := range x.out.Symbols {
		x.taken[x.out.Symbols[i].Name] = true
	}

	renames := make(map[ast.SymbolID]ast.SymbolID)
	tempDecls := x.bindArguments(renames)

	bodyCopy := x.out.CloneSubtree(x.out.Body(x.callee))
	x.renameLocals(bodyCopy, renames)
	x.applyRenames(bodyCopy, renames)

	valueUsed := !x.isBareCallStmt(stmt)
	norm := x.normalizeReturns(bodyCopy, valueUsed)

	// rewrite the original statement around the call expression
	keepStmt := true
	if valueUsed {
		replacement := ast.NoNode
		if norm.resultSym != ast.NoSymbol {
			replacement = x.out.Add(ast.Node{
				Kind: ast.KindIdent,
				Text: x.out.Symbol(norm.resultSym).Name,
				Sym:  norm.resultSym,
			})
		} else {
			x.warnings = append(x.warnings, "value of a void callee replaced by 0")
			replacement = x.out.Add(ast.Node{Kind: ast.KindLiteral, Text: "0", Sym: ast.NoSymbol})
		}
		if !x.swapChild(stmt, x.call, replacement) {
			return fmt.Errorf("call at %s not addressable inside its statement: %w", callLoc.String(), ErrCallNotFound)
		}
	} else {
		keepStmt = false
	}

	var newStmts []ast.NodeID
	newStmts = append(newStmts, tempDecls...)
	if norm.resultDecl != ast.NoNode {
		newStmts = append(newStmts, norm.resultDecl)
	}
	if norm.doneDecl != ast.NoNode {
		newStmts = append(newStmts, norm.doneDecl)
	}
	newStmts = append(newStmts, x.out.Node(bodyCopy).Kids...)
	if keepStmt {
		newStmts = append(newStmts, stmt)
	}

	x.splice(hostBlock, hostIdx, newStmts)
	x.assignPositions(stmt, newStmts)
	return nil
}

// bindArguments introduces one temporary per argument in left-to-right
// order, so side effects evaluate exactly once even when the callee reads
// a parameter several times or never. Returns the declarations and fills
// the parameter -> temporary rename map.
func (x *expansion) bindArguments(renames map[ast.SymbolID]ast.SymbolID) []ast.NodeID {
	params := x.out.Params(x.callee)
	args := x.out.Node(x.call).Kids[1:]
	if len(args) != len(params) {
		x.warnings = append(x.warnings, fmt.Sprintf(
			"call passes %d arguments, callee declares %d parameters", len(args), len(params)))
	}

	var decls []ast.NodeID
	for i, param := range params {
		if i >= len(args) {
			break
		}
		p := x.out.Node(param)
		paramIdent := x.out.Node(p.Kids[0])
		name := x.fresh(paramIdent.Text)
		sym := x.out.AddSymbol(ast.Symbol{Name: name, Type: p.Text, Kind: ast.SymVar, Decl: ast.NoNode})
		ident := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: name, Sym: sym})
		init := x.out.CloneSubtree(args[i])
		decl := x.out.Add(ast.Node{
			Kind: ast.KindDecl,
			Kids: []ast.NodeID{ident, init},
			Text: p.Text,
			Sym:  ast.NoSymbol,
		})
		x.out.Symbol(sym).Decl = decl
		renames[paramIdent.Sym] = sym
		decls = append(decls, decl)
	}
	return decls
}

// renameLocals allocates a fresh symbol for every variable the copied
// body declares, extending the rename map.
func (x *expansion) renameLocals(bodyCopy ast.NodeID, renames map[ast.SymbolID]ast.SymbolID) {
	x.out.Walk(bodyCopy, func(id ast.NodeID) bool {
		n := x.out.Node(id)
		if n.Kind != ast.KindDecl {
			return true
		}
		ident := x.out.Node(n.Kids[0])
		if ident.Sym == ast.NoSymbol {
			return true
		}
		if _, done := renames[ident.Sym]; done {
			return true
		}
		name := x.fresh(ident.Text)
		sym := x.out.AddSymbol(ast.Symbol{Name: name, Type: n.Text, Kind: ast.SymVar, Decl: id})
		renames[ident.Sym] = sym
		return true
	})
}

// applyRenames rewrites every identifier of the copied body bound to a
// renamed symbol.
func (x *expansion) applyRenames(bodyCopy ast.NodeID, renames map[ast.SymbolID]ast.SymbolID) {
	x.out.Walk(bodyCopy, func(id ast.NodeID) bool {
		n := x.out.Node(id)
		if n.Kind == ast.KindIdent {
			if to, ok := renames[n.Sym]; ok {
				n.Sym = to
				n.Text = x.out.Symbol(to).Name
			}
		}
		return true
	})
}

// isBareCallStmt reports whether stmt is an expression statement whose
// entire expression is the call being inlined.
func (x *expansion) isBareCallStmt(stmt ast.NodeID) bool {
	n := x.out.Node(stmt)
	return n.Kind == ast.KindExprStmt && len(n.Kids) == 1 && n.Kids[0] == x.call
}

// findSlot returns the block directly holding stmt and its index there.
func (x *expansion) findSlot(root, stmt ast.NodeID) (ast.NodeID, int) {
	block := ast.NoNode
	idx := -1
	x.out.Walk(root, func(id ast.NodeID) bool {
		if block != ast.NoNode {
			return false
		}
		n := x.out.Node(id)
		if n.Kind != ast.KindBlock {
			return true
		}
		for i, kid := range n.Kids {
			if kid == stmt {
				block = id
				idx = i
				return false
			}
		}
		return true
	})
	return block, idx
}

// swapChild replaces the from child with to somewhere under stmt.
func (x *expansion) swapChild(stmt, from, to ast.NodeID) bool {
	swapped := false
	x.out.Walk(stmt, func(id ast.NodeID) bool {
		if swapped {
			return false
		}
		kids := x.out.Node(id).Kids
		for i, kid := range kids {
			if kid == from {
				kids[i] = to
				swapped = true
				return false
			}
		}
		return true
	})
	return swapped
}

func (x *expansion) splice(block ast.NodeID, idx int, stmts []ast.NodeID) {
	kids := x.out.Node(block).Kids
	merged := make([]ast.NodeID, 0, len(kids)-1+len(stmts))
	merged = append(merged, kids[:idx]...)
	merged = append(merged, stmts...)
	merged = append(merged, kids[idx+1:]...)
	x.out.Node(block).Kids = merged
}

// fresh generates an identifier guaranteed distinct from every name
// visible anywhere in the unit.
func (x *expansion) fresh(base string) string {
	name := x.opts.Prefix + "_" + base
	for i := 2; x.taken[name]; i++ {
		name = x.opts.Prefix + "_" + base + strconv.Itoa(i)
	}
	x.taken[name] = true
	return name
}
