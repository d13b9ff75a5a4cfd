package dep

import (
	"strings"

	"github.com/mekkanik/cslicer/pkg/ast"
)

// refExtractor computes the def and use sets of each statement. Only the
// statement's own expressions count: an if contributes its condition, a
// for contributes its whole header, and body statements stand alone.
type refExtractor struct {
	prog *ast.Program
	opts Options
}

func (r *refExtractor) stmtRefs(stmt ast.NodeID) (defs, uses []ast.SymbolID) {
	n := r.prog.Node(stmt)
	switch n.Kind {
	case ast.KindDecl:
		defs = append(defs, r.prog.Node(n.Kids[0]).Sym)
		if n.Kids[1] != ast.NoNode {
			uses = r.exprUses(n.Kids[1], uses)
			defs = r.callArgDefs(n.Kids[1], defs)
		}

	case ast.KindAssign:
		defs, uses = r.assignRefs(n.Kids[0], n.Kids[1], defs, uses)

	case ast.KindIf, ast.KindWhile:
		uses = r.exprUses(n.Kids[0], uses)
		defs = r.callArgDefs(n.Kids[0], defs)

	case ast.KindFor:
		// init and post are part of the header statement
		for _, part := range []ast.NodeID{n.Kids[0], n.Kids[2]} {
			if part == ast.NoNode {
				continue
			}
			d, u := r.stmtRefs(part)
			defs = append(defs, d...)
			uses = append(uses, u...)
		}
		if n.Kids[1] != ast.NoNode {
			uses = r.exprUses(n.Kids[1], uses)
		}

	case ast.KindReturn:
		if len(n.Kids) > 0 {
			uses = r.exprUses(n.Kids[0], uses)
			defs = r.callArgDefs(n.Kids[0], defs)
		}

	case ast.KindExprStmt:
		uses = r.exprUses(n.Kids[0], uses)
		defs = r.callArgDefs(n.Kids[0], defs)
	}
	return dedupSyms(defs), dedupSyms(uses)
}

// assignRefs handles the left side of an assignment: a plain identifier
// defines its symbol, a pointer dereference conservatively defines every
// aliasable variable, an array element write defines the array.
func (r *refExtractor) assignRefs(lhs, rhs ast.NodeID, defs, uses []ast.SymbolID) ([]ast.SymbolID, []ast.SymbolID) {
	uses = r.exprUses(rhs, uses)
	defs = r.callArgDefs(rhs, defs)

	l := r.prog.Node(lhs)
	switch l.Kind {
	case ast.KindIdent:
		defs = append(defs, l.Sym)

	case ast.KindUnary:
		if l.Text == "*" {
			// write through a pointer: every address-taken variable the
			// pointer could reach is a potential definition
			uses = r.exprUses(l.Kids[0], uses)
			defs = append(defs, r.aliasTargets(r.pointeeType(l.Kids[0]))...)
		} else {
			uses = r.exprUses(l.Kids[0], uses)
		}

	case ast.KindIndex:
		base := r.prog.Node(l.Kids[0])
		if base.Kind == ast.KindIdent {
			defs = append(defs, base.Sym)
		} else {
			uses = r.exprUses(l.Kids[0], uses)
		}
		uses = r.exprUses(l.Kids[1], uses)

	default:
		uses = r.exprUses(lhs, uses)
	}
	return defs, uses
}

// exprUses collects every variable read under expr. Callee names of calls
// are not variable uses.
func (r *refExtractor) exprUses(expr ast.NodeID, uses []ast.SymbolID) []ast.SymbolID {
	if expr == ast.NoNode {
		return uses
	}
	n := r.prog.Node(expr)
	switch n.Kind {
	case ast.KindIdent:
		if n.Sym != ast.NoSymbol && r.prog.Symbol(n.Sym).Kind != ast.SymFunc {
			uses = append(uses, n.Sym)
		}
	case ast.KindCall:
		for _, arg := range n.Kids[1:] {
			uses = r.exprUses(arg, uses)
		}
	default:
		for _, kid := range n.Kids {
			uses = r.exprUses(kid, uses)
		}
	}
	return uses
}

// callArgDefs adds conservative definitions for &x arguments under expr:
// a callee receiving an address may write through it.
func (r *refExtractor) callArgDefs(expr ast.NodeID, defs []ast.SymbolID) []ast.SymbolID {
	if expr == ast.NoNode {
		return defs
	}
	n := r.prog.Node(expr)
	if n.Kind == ast.KindCall {
		for _, arg := range n.Kids[1:] {
			if arg == ast.NoNode {
				continue
			}
			a := r.prog.Node(arg)
			if a.Kind == ast.KindUnary && a.Text == "&" {
				target := r.prog.Node(a.Kids[0])
				if target.Kind == ast.KindIdent && target.Sym != ast.NoSymbol {
					defs = append(defs, target.Sym)
				}
			}
			defs = r.callArgDefs(arg, defs)
		}
		return defs
	}
	for _, kid := range n.Kids {
		defs = r.callArgDefs(kid, defs)
	}
	return defs
}

// pointeeType returns the declared type behind a pointer expression, ""
// when unknown.
func (r *refExtractor) pointeeType(expr ast.NodeID) string {
	n := r.prog.Node(expr)
	if n.Kind == ast.KindIdent && n.Sym != ast.NoSymbol {
		typ := r.prog.Symbol(n.Sym).Type
		return strings.TrimSuffix(typ, "*")
	}
	return ""
}

// aliasTargets returns every address-taken symbol a pointer of the given
// pointee type may reach. Over-approximation only: never unsound by
// omission. With StrictAliasTypes the match is limited to same-typed
// variables; an unknown type always falls back to all address-taken ones.
func (r *refExtractor) aliasTargets(typ string) []ast.SymbolID {
	var out []ast.SymbolID
	for i := range r.prog.Symbols {
		s := &r.prog.Symbols[i]
		if !s.AddrTaken {
			continue
		}
		if r.opts.StrictAliasTypes && typ != "" && s.Type != typ {
			continue
		}
		out = append(out, ast.SymbolID(i))
	}
	return out
}

func dedupSyms(in []ast.SymbolID) []ast.SymbolID {
	if len(in) < 2 {
		return in
	}
	seen := make(map[ast.SymbolID]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
