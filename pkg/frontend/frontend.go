// Package frontend parses C-like source into the arena AST consumed by
// the analyses. It is the boundary the rest of the toolkit treats as an
// external collaborator: everything downstream sees only ast.Program with
// positions attached and names resolved.
//
// The parse is tree-sitter based. Preprocessor directives are skipped
// (expansion is assumed to have happened upstream); names that never
// resolve to a visible declaration become extern symbols.
package frontend

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/mekkanik/cslicer/internal/log"
	"github.com/mekkanik/cslicer/pkg/ast"
)

// ParseFile reads and parses a C source file.
func ParseFile(path string) (*ast.Program, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(content, path)
}

// Parse parses C source into a Program. The file argument is recorded on
// the program for diagnostics only.
func Parse(content []byte, file string) (*ast.Program, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	tree := parser.Parse(nil, content)
	defer tree.Close()

	b := &builder{
		content: content,
		prog:    ast.NewProgram(file),
		scopes:  newScopeStack(),
	}

	root := tree.RootNode()
	b.collectToplevel(root)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "function_definition" {
			b.buildFunction(child)
		}
	}

	return b.prog, nil
}

type builder struct {
	content []byte
	prog    *ast.Program
	scopes  *scopeStack
}

func (b *builder) text(n *sitter.Node) string {
	return n.Content(b.content)
}

func (b *builder) loc(n *sitter.Node) ast.Loc {
	return ast.Loc{Line: int(n.StartPoint().Row) + 1, Col: int(n.StartPoint().Column) + 1}
}

func (b *builder) end(n *sitter.Node) ast.Loc {
	return ast.Loc{Line: int(n.EndPoint().Row) + 1, Col: int(n.EndPoint().Column)}
}

// collectToplevel registers file-scope names (functions and globals) so
// that any function body can reference them regardless of order.
func (b *builder) collectToplevel(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			name := b.functionName(child)
			if name != "" {
				b.scopes.declare(b.prog, ast.Symbol{Name: name, Type: b.declType(child), Kind: ast.SymFunc, Decl: ast.NoNode})
			}
		case "declaration":
			typ := b.declType(child)
			for _, declarator := range b.declarators(child) {
				ident := b.declaratorName(declarator)
				if ident != nil {
					b.scopes.declare(b.prog, ast.Symbol{Name: b.text(ident), Type: typ, Kind: ast.SymVar, Decl: ast.NoNode})
				}
			}
		}
	}
}

// functionName digs the identifier out of a function_definition's
// declarator, below any pointer declarators.
func (b *builder) functionName(fn *sitter.Node) string {
	decl := fn.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl == nil {
		return ""
	}
	ident := decl.ChildByFieldName("declarator")
	if ident == nil {
		return ""
	}
	return b.text(ident)
}

func (b *builder) buildFunction(fn *sitter.Node) {
	name := b.functionName(fn)
	if name == "" {
		log.Default().Warn("skipping unnamed function definition", "line", b.loc(fn).Line)
		return
	}

	b.scopes.push()
	defer b.scopes.pop()

	var kids []ast.NodeID
	kids = append(kids, b.buildParams(fn)...)

	body := fn.ChildByFieldName("body")
	if body != nil {
		kids = append(kids, b.buildBlock(body))
	} else {
		kids = append(kids, b.prog.Add(ast.Node{Kind: ast.KindBlock, Loc: b.loc(fn), End: b.end(fn), Sym: ast.NoSymbol}))
	}

	sym := b.scopes.lookup(name)
	id := b.prog.Add(ast.Node{
		Kind: ast.KindFunction,
		Loc:  b.loc(fn),
		End:  b.end(fn),
		Kids: kids,
		Text: name,
		Sym:  sym,
	})
	if sym != ast.NoSymbol {
		b.prog.Symbol(sym).Decl = id
	}
	b.prog.Functions = append(b.prog.Functions, id)
}

func (b *builder) buildParams(fn *sitter.Node) []ast.NodeID {
	decl := fn.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl == nil {
		return nil
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []ast.NodeID
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		typ := b.declType(p)
		ident := b.declaratorName(p.ChildByFieldName("declarator"))
		if ident == nil {
			continue
		}
		if ptr := p.ChildByFieldName("declarator"); ptr != nil && ptr.Type() == "pointer_declarator" {
			typ += "*"
		}
		sym := b.scopes.declare(b.prog, ast.Symbol{Name: b.text(ident), Type: typ, Kind: ast.SymParam, Decl: ast.NoNode})
		identID := b.prog.Add(ast.Node{Kind: ast.KindIdent, Loc: b.loc(ident), End: b.end(ident), Text: b.text(ident), Sym: sym})
		paramID := b.prog.Add(ast.Node{
			Kind: ast.KindParam,
			Loc:  b.loc(p),
			End:  b.end(p),
			Kids: []ast.NodeID{identID},
			Text: typ,
			Sym:  ast.NoSymbol,
		})
		b.prog.Symbol(sym).Decl = paramID
		out = append(out, paramID)
	}
	return out
}

func (b *builder) buildBlock(block *sitter.Node) ast.NodeID {
	b.scopes.push()
	defer b.scopes.pop()

	var stmts []ast.NodeID
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		stmts = append(stmts, b.buildStmts(child)...)
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindBlock,
		Loc:  b.loc(block),
		End:  b.end(block),
		Kids: stmts,
		Sym:  ast.NoSymbol,
	})
}

// buildStmts lowers one source statement. A declaration with several
// declarators yields several decl nodes, hence the slice return.
func (b *builder) buildStmts(n *sitter.Node) []ast.NodeID {
	switch n.Type() {
	case "declaration":
		return b.buildDecl(n)
	case "expression_statement":
		expr := n.NamedChild(0)
		if expr == nil {
			return nil
		}
		return []ast.NodeID{b.buildExprStmt(n, expr)}
	case "if_statement":
		return []ast.NodeID{b.buildIf(n)}
	case "for_statement":
		return []ast.NodeID{b.buildFor(n)}
	case "while_statement":
		return []ast.NodeID{b.buildWhile(n)}
	case "return_statement":
		return []ast.NodeID{b.buildReturn(n)}
	case "compound_statement":
		return []ast.NodeID{b.buildBlock(n)}
	case "comment", "preproc_include", "preproc_def", "preproc_function_def":
		return nil
	default:
		log.Default().Debug("skipping unsupported statement", "type", n.Type(), "line", b.loc(n).Line)
		return nil
	}
}

func (b *builder) buildDecl(n *sitter.Node) []ast.NodeID {
	typ := b.declType(n)
	var out []ast.NodeID
	for _, declarator := range b.declarators(n) {
		declTyp := typ
		inner := declarator
		init := ast.NoNode
		if declarator.Type() == "init_declarator" {
			if val := declarator.ChildByFieldName("value"); val != nil {
				init = b.buildExpr(val)
			}
			inner = declarator.ChildByFieldName("declarator")
		}
		for inner != nil && inner.Type() == "pointer_declarator" {
			declTyp += "*"
			inner = inner.ChildByFieldName("declarator")
		}
		if inner != nil && inner.Type() == "array_declarator" {
			declTyp += "[]"
			inner = inner.ChildByFieldName("declarator")
		}
		if inner == nil || inner.Type() != "identifier" {
			continue
		}
		sym := b.scopes.declare(b.prog, ast.Symbol{Name: b.text(inner), Type: declTyp, Kind: ast.SymVar, Decl: ast.NoNode})
		identID := b.prog.Add(ast.Node{Kind: ast.KindIdent, Loc: b.loc(inner), End: b.end(inner), Text: b.text(inner), Sym: sym})
		declID := b.prog.Add(ast.Node{
			Kind: ast.KindDecl,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{identID, init},
			Text: declTyp,
			Sym:  ast.NoSymbol,
		})
		b.prog.Symbol(sym).Decl = declID
		out = append(out, declID)
	}
	return out
}

// buildExprStmt lowers an expression statement. Assignments and updates
// become assign nodes; anything else wraps in expr_stmt.
func (b *builder) buildExprStmt(stmt, expr *sitter.Node) ast.NodeID {
	switch expr.Type() {
	case "assignment_expression", "update_expression":
		id := b.buildExpr(expr)
		n := b.prog.Node(id)
		n.Loc = b.loc(stmt)
		n.End = b.end(stmt)
		return id
	default:
		inner := b.buildExpr(expr)
		return b.prog.Add(ast.Node{
			Kind: ast.KindExprStmt,
			Loc:  b.loc(stmt),
			End:  b.end(stmt),
			Kids: []ast.NodeID{inner},
			Sym:  ast.NoSymbol,
		})
	}
}

func (b *builder) buildIf(n *sitter.Node) ast.NodeID {
	cond := b.buildCond(n.ChildByFieldName("condition"))
	then := b.buildBranchBody(n.ChildByFieldName("consequence"))
	els := ast.NoNode
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		// alternative is an else_clause wrapping the actual statement
		body := alt.NamedChild(0)
		if body != nil {
			els = b.buildBranchBody(body)
		}
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindIf,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{cond, then, els},
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) buildFor(n *sitter.Node) ast.NodeID {
	init := ast.NoNode
	if in := n.ChildByFieldName("initializer"); in != nil {
		switch in.Type() {
		case "declaration":
			if decls := b.buildDecl(in); len(decls) > 0 {
				init = decls[0]
			}
		default:
			init = b.buildExpr(in)
		}
	}
	cond := ast.NoNode
	if c := n.ChildByFieldName("condition"); c != nil {
		cond = b.buildExpr(c)
	}
	post := ast.NoNode
	if u := n.ChildByFieldName("update"); u != nil {
		post = b.buildExpr(u)
	}
	body := b.buildBranchBody(n.ChildByFieldName("body"))
	return b.prog.Add(ast.Node{
		Kind: ast.KindFor,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{init, cond, post, body},
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) buildWhile(n *sitter.Node) ast.NodeID {
	cond := b.buildCond(n.ChildByFieldName("condition"))
	body := b.buildBranchBody(n.ChildByFieldName("body"))
	return b.prog.Add(ast.Node{
		Kind: ast.KindWhile,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{cond, body},
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) buildReturn(n *sitter.Node) ast.NodeID {
	var kids []ast.NodeID
	if expr := n.NamedChild(0); expr != nil {
		kids = append(kids, b.buildExpr(expr))
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindReturn,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: kids,
		Sym:  ast.NoSymbol,
	})
}

// buildCond unwraps a parenthesized condition down to the expression.
func (b *builder) buildCond(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.NoNode
	}
	if n.Type() == "parenthesized_expression" {
		inner := n.NamedChild(0)
		if inner != nil {
			return b.buildExpr(inner)
		}
	}
	return b.buildExpr(n)
}

// buildBranchBody lowers a branch or loop body, wrapping a bare single
// statement into a block so bodies are uniformly blocks.
func (b *builder) buildBranchBody(n *sitter.Node) ast.NodeID {
	if n == nil {
		return b.prog.Add(ast.Node{Kind: ast.KindBlock, Sym: ast.NoSymbol})
	}
	if n.Type() == "compound_statement" {
		return b.buildBlock(n)
	}
	stmts := b.buildStmts(n)
	return b.prog.Add(ast.Node{
		Kind: ast.KindBlock,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: stmts,
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) buildExpr(n *sitter.Node) ast.NodeID {
	switch n.Type() {
	case "parenthesized_expression":
		inner := n.NamedChild(0)
		if inner == nil {
			return b.literal(n)
		}
		return b.buildExpr(inner)

	case "identifier":
		return b.ident(n)

	case "number_literal", "string_literal", "char_literal", "true", "false", "null":
		return b.literal(n)

	case "binary_expression":
		lhs := b.buildExpr(n.ChildByFieldName("left"))
		rhs := b.buildExpr(n.ChildByFieldName("right"))
		return b.prog.Add(ast.Node{
			Kind: ast.KindBinary,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{lhs, rhs},
			Text: b.operator(n),
			Sym:  ast.NoSymbol,
		})

	case "unary_expression":
		arg := b.buildExpr(n.ChildByFieldName("argument"))
		return b.prog.Add(ast.Node{
			Kind: ast.KindUnary,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{arg},
			Text: b.operator(n),
			Sym:  ast.NoSymbol,
		})

	case "pointer_expression":
		// covers both *p and &x
		op := b.operator(n)
		argNode := n.ChildByFieldName("argument")
		arg := b.buildExpr(argNode)
		if op == "&" && argNode != nil && argNode.Type() == "identifier" {
			if sym := b.scopes.lookup(b.text(argNode)); sym != ast.NoSymbol {
				b.prog.Symbol(sym).AddrTaken = true
			}
		}
		return b.prog.Add(ast.Node{
			Kind: ast.KindUnary,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{arg},
			Text: op,
			Sym:  ast.NoSymbol,
		})

	case "subscript_expression":
		base := b.buildExpr(n.ChildByFieldName("argument"))
		index := b.buildExpr(n.ChildByFieldName("index"))
		return b.prog.Add(ast.Node{
			Kind: ast.KindIndex,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{base, index},
			Sym:  ast.NoSymbol,
		})

	case "call_expression":
		return b.buildCall(n)

	case "assignment_expression":
		return b.buildAssign(n)

	case "update_expression":
		return b.buildUpdate(n)

	case "conditional_expression":
		// lowered as a binary over the two arms; the condition contributes
		// uses through the left arm's span
		cond := b.buildExpr(n.ChildByFieldName("condition"))
		cons := b.buildExpr(n.ChildByFieldName("consequence"))
		alt := b.buildExpr(n.ChildByFieldName("alternative"))
		arms := b.prog.Add(ast.Node{Kind: ast.KindBinary, Loc: b.loc(n), End: b.end(n), Kids: []ast.NodeID{cons, alt}, Text: ":", Sym: ast.NoSymbol})
		return b.prog.Add(ast.Node{Kind: ast.KindBinary, Loc: b.loc(n), End: b.end(n), Kids: []ast.NodeID{cond, arms}, Text: "?", Sym: ast.NoSymbol})

	default:
		log.Default().Debug("lowering unsupported expression as literal", "type", n.Type(), "line", b.loc(n).Line)
		return b.literal(n)
	}
}

func (b *builder) buildCall(n *sitter.Node) ast.NodeID {
	fnNode := n.ChildByFieldName("function")
	var kids []ast.NodeID
	if fnNode != nil {
		kids = append(kids, b.buildExpr(fnNode))
	} else {
		kids = append(kids, ast.NoNode)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			kids = append(kids, b.buildExpr(args.NamedChild(i)))
		}
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindCall,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: kids,
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) buildAssign(n *sitter.Node) ast.NodeID {
	op := b.operator(n)
	lhs := b.buildExpr(n.ChildByFieldName("left"))
	rhs := b.buildExpr(n.ChildByFieldName("right"))

	// compound assignment desugars to lhs = lhs <op> rhs
	if op != "=" && strings.HasSuffix(op, "=") {
		lhsCopy := b.prog.CloneSubtree(lhs)
		rhs = b.prog.Add(ast.Node{
			Kind: ast.KindBinary,
			Loc:  b.loc(n),
			End:  b.end(n),
			Kids: []ast.NodeID{lhsCopy, rhs},
			Text: strings.TrimSuffix(op, "="),
			Sym:  ast.NoSymbol,
		})
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindAssign,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{lhs, rhs},
		Sym:  ast.NoSymbol,
	})
}

// buildUpdate desugars ++x and x-- into x = x +/- 1, which is what the
// dataflow analysis wants to see anyway.
func (b *builder) buildUpdate(n *sitter.Node) ast.NodeID {
	op := "+"
	if strings.Contains(b.text(n), "--") {
		op = "-"
	}
	arg := n.ChildByFieldName("argument")
	lhs := b.buildExpr(arg)
	lhsCopy := b.prog.CloneSubtree(lhs)
	one := b.prog.Add(ast.Node{Kind: ast.KindLiteral, Loc: b.loc(n), End: b.end(n), Text: "1", Sym: ast.NoSymbol})
	rhs := b.prog.Add(ast.Node{
		Kind: ast.KindBinary,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{lhsCopy, one},
		Text: op,
		Sym:  ast.NoSymbol,
	})
	return b.prog.Add(ast.Node{
		Kind: ast.KindAssign,
		Loc:  b.loc(n),
		End:  b.end(n),
		Kids: []ast.NodeID{lhs, rhs},
		Sym:  ast.NoSymbol,
	})
}

func (b *builder) ident(n *sitter.Node) ast.NodeID {
	name := b.text(n)
	sym := b.scopes.lookup(name)
	if sym == ast.NoSymbol {
		// no visible declaration: macro constant, library function, etc.
		sym = b.scopes.declareGlobal(b.prog, ast.Symbol{Name: name, Kind: ast.SymExtern, Decl: ast.NoNode})
	}
	return b.prog.Add(ast.Node{
		Kind: ast.KindIdent,
		Loc:  b.loc(n),
		End:  b.end(n),
		Text: name,
		Sym:  sym,
	})
}

func (b *builder) literal(n *sitter.Node) ast.NodeID {
	return b.prog.Add(ast.Node{
		Kind: ast.KindLiteral,
		Loc:  b.loc(n),
		End:  b.end(n),
		Text: b.text(n),
		Sym:  ast.NoSymbol,
	})
}

// operator returns the operator token of an expression node, falling back
// to scanning the unnamed children when the grammar has no operator field.
func (b *builder) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return b.text(op)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() {
			return b.text(child)
		}
	}
	return ""
}

// declType returns the type field's text of a declaration-like node.
func (b *builder) declType(n *sitter.Node) string {
	if t := n.ChildByFieldName("type"); t != nil {
		return b.text(t)
	}
	return ""
}

// declarators returns the declarator children of a declaration. The C
// grammar allows several per declaration (int a, b = 1;).
func (b *builder) declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "init_declarator", "identifier", "pointer_declarator", "array_declarator":
			out = append(out, child)
		}
	}
	return out
}

// declaratorName digs the identifier out of a possibly nested declarator.
func (b *builder) declaratorName(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return n
		case "init_declarator", "pointer_declarator", "array_declarator":
			n = n.ChildByFieldName("declarator")
		default:
			return nil
		}
	}
	return nil
}
