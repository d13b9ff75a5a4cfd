package inliner

import "github.com/mekkanik/cslicer/pkg/ast"

// normalized describes what return rewriting introduced: the result
// temporary holding the callee's value, its declaration, and the guard
// declaration when early returns forced one.
type normalized struct {
	resultSym  ast.SymbolID
	resultDecl ast.NodeID
	doneSym    ast.SymbolID
	doneDecl   ast.NodeID
}

// normalizeReturns rewrites every return in the copied body into plain
// assignments. A lone tail return becomes a single result assignment.
// Early or multiple returns additionally get a guard variable: each
// return sets it, and every statement that could otherwise execute after
// one wraps in a check that it is still unset, so control joins at the
// end of the copied body exactly once.
func (x *expansion) normalizeReturns(bodyCopy ast.NodeID, valueUsed bool) normalized {
	norm := normalized{resultSym: ast.NoSymbol, resultDecl: ast.NoNode, doneSym: ast.NoSymbol, doneDecl: ast.NoNode}

	returns := x.collectReturns(bodyCopy)
	if len(returns) == 0 {
		return norm
	}

	retType := "int"
	if s := x.out.Node(x.callee).Sym; s != ast.NoSymbol {
		if t := x.out.Symbol(s).Type; t != "" {
			retType = t
		}
	}

	carriesValue := false
	for _, r := range returns {
		if len(x.out.Node(r).Kids) > 0 {
			carriesValue = true
		}
	}
	if carriesValue && valueUsed && retType != "void" {
		name := x.fresh("result")
		norm.resultSym = x.out.AddSymbol(ast.Symbol{Name: name, Type: retType, Kind: ast.SymVar, Decl: ast.NoNode})
		ident := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: name, Sym: norm.resultSym})
		norm.resultDecl = x.out.Add(ast.Node{
			Kind: ast.KindDecl,
			Kids: []ast.NodeID{ident, ast.NoNode},
			Text: retType,
			Sym:  ast.NoSymbol,
		})
		x.out.Symbol(norm.resultSym).Decl = norm.resultDecl
	}

	top := x.out.Node(bodyCopy).Kids
	if len(returns) == 1 && len(top) > 0 && top[len(top)-1] == returns[0] {
		// tail return, no guard needed
		x.out.Node(bodyCopy).Kids = append(top[:len(top)-1], x.returnAssigns(returns[0], norm.resultSym, ast.NoSymbol, nil)...)
		return norm
	}

	name := x.fresh("done")
	norm.doneSym = x.out.AddSymbol(ast.Symbol{Name: name, Type: "int", Kind: ast.SymVar, Decl: ast.NoNode})
	ident := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: name, Sym: norm.doneSym})
	zero := x.out.Add(ast.Node{Kind: ast.KindLiteral, Text: "0", Sym: ast.NoSymbol})
	norm.doneDecl = x.out.Add(ast.Node{
		Kind: ast.KindDecl,
		Kids: []ast.NodeID{ident, zero},
		Text: "int",
		Sym:  ast.NoSymbol,
	})
	x.out.Symbol(norm.doneSym).Decl = norm.doneDecl

	setters := make(map[ast.NodeID]bool)
	x.replaceReturns(bodyCopy, norm.resultSym, norm.doneSym, setters)
	x.guardAfterReturns(bodyCopy, norm.doneSym, setters)
	return norm
}

func (x *expansion) collectReturns(root ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	x.out.Walk(root, func(id ast.NodeID) bool {
		if x.out.Node(id).Kind == ast.KindReturn {
			out = append(out, id)
		}
		return true
	})
	return out
}

// returnAssigns builds the statements that stand in for one return:
// the result assignment when the return carries a value, then the guard
// assignment when a guard symbol is given. Done assignments are recorded
// in setters.
func (x *expansion) returnAssigns(ret ast.NodeID, resultSym, doneSym ast.SymbolID, setters map[ast.NodeID]bool) []ast.NodeID {
	var out []ast.NodeID
	kids := x.out.Node(ret).Kids
	if len(kids) > 0 && resultSym != ast.NoSymbol {
		lhs := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: x.out.Symbol(resultSym).Name, Sym: resultSym})
		out = append(out, x.out.Add(ast.Node{
			Kind: ast.KindAssign,
			Kids: []ast.NodeID{lhs, kids[0]},
			Sym:  ast.NoSymbol,
		}))
	}
	if doneSym != ast.NoSymbol {
		lhs := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: x.out.Symbol(doneSym).Name, Sym: doneSym})
		one := x.out.Add(ast.Node{Kind: ast.KindLiteral, Text: "1", Sym: ast.NoSymbol})
		assign := x.out.Add(ast.Node{
			Kind: ast.KindAssign,
			Kids: []ast.NodeID{lhs, one},
			Sym:  ast.NoSymbol,
		})
		if setters != nil {
			setters[assign] = true
		}
		out = append(out, assign)
	}
	return out
}

// replaceReturns swaps every return statement under root for its
// assignment sequence, block by block.
func (x *expansion) replaceReturns(root ast.NodeID, resultSym, doneSym ast.SymbolID, setters map[ast.NodeID]bool) {
	x.out.Walk(root, func(id ast.NodeID) bool {
		if x.out.Node(id).Kind != ast.KindBlock {
			return true
		}
		var kids []ast.NodeID
		for _, kid := range x.out.Node(id).Kids {
			if x.out.Node(kid).Kind == ast.KindReturn {
				kids = append(kids, x.returnAssigns(kid, resultSym, doneSym, setters)...)
			} else {
				kids = append(kids, kid)
			}
		}
		x.out.Node(id).Kids = kids
		return true
	})
}

// guardAfterReturns wraps, in every block, the statements after the
// first one that can set the guard inside an if on the guard still
// being zero, recursively.
func (x *expansion) guardAfterReturns(block ast.NodeID, doneSym ast.SymbolID, setters map[ast.NodeID]bool) {
	kids := x.out.Node(block).Kids
	for i, kid := range kids {
		for _, nested := range x.nestedBlocks(kid) {
			x.guardAfterReturns(nested, doneSym, setters)
		}
		if !x.setsGuard(kid, setters) || i == len(kids)-1 {
			continue
		}
		rest := append([]ast.NodeID(nil), kids[i+1:]...)
		restBlock := x.out.Add(ast.Node{Kind: ast.KindBlock, Kids: rest, Sym: ast.NoSymbol})
		doneIdent := x.out.Add(ast.Node{Kind: ast.KindIdent, Text: x.out.Symbol(doneSym).Name, Sym: doneSym})
		zero := x.out.Add(ast.Node{Kind: ast.KindLiteral, Text: "0", Sym: ast.NoSymbol})
		cond := x.out.Add(ast.Node{
			Kind: ast.KindBinary,
			Kids: []ast.NodeID{doneIdent, zero},
			Text: "==",
			Sym:  ast.NoSymbol,
		})
		guard := x.out.Add(ast.Node{
			Kind: ast.KindIf,
			Kids: []ast.NodeID{cond, restBlock, ast.NoNode},
			Sym:  ast.NoSymbol,
		})
		x.out.Node(block).Kids = append(kids[:i+1], guard)
		x.guardAfterReturns(restBlock, doneSym, setters)
		return
	}
}

// nestedBlocks returns the blocks directly owned by a compound statement.
func (x *expansion) nestedBlocks(stmt ast.NodeID) []ast.NodeID {
	n := x.out.Node(stmt)
	var out []ast.NodeID
	switch n.Kind {
	case ast.KindIf:
		out = append(out, n.Kids[1])
		if n.Kids[2] != ast.NoNode {
			out = append(out, n.Kids[2])
		}
	case ast.KindFor:
		out = append(out, n.Kids[3])
	case ast.KindWhile:
		out = append(out, n.Kids[1])
	}
	return out
}

// setsGuard reports whether any guard assignment sits under stmt.
func (x *expansion) setsGuard(stmt ast.NodeID, setters map[ast.NodeID]bool) bool {
	found := false
	x.out.Walk(stmt, func(id ast.NodeID) bool {
		if setters[id] {
			found = true
		}
		return !found
	})
	return found
}
