// Package printer renders a program back to C source text. Output is
// structural: one statement per line, four-space indents, braces in K&R
// style. It exists so rewritten programs (inlined calls, sliced bodies)
// can be written out and recompiled.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/mekkanik/cslicer/pkg/ast"
)

const indentStep = "    "

// Print renders the whole program as C source.
func Print(prog *ast.Program) string {
	var b strings.Builder
	p := printer{prog: prog, w: &b}
	p.program()
	return b.String()
}

// Fprint writes the rendered program to w.
func Fprint(w io.Writer, prog *ast.Program) error {
	s := Print(prog)
	_, err := io.WriteString(w, s)
	return err
}

// PrintFunction renders a single function.
func PrintFunction(prog *ast.Program, fn ast.NodeID) string {
	var b strings.Builder
	p := printer{prog: prog, w: &b}
	p.function(fn)
	return b.String()
}

type printer struct {
	prog   *ast.Program
	w      *strings.Builder
	indent int
}

func (p *printer) program() {
	for i, fn := range p.prog.Functions {
		if i > 0 {
			p.w.WriteString("\n")
		}
		p.function(fn)
	}
}

func (p *printer) function(fn ast.NodeID) {
	n := p.prog.Node(fn)
	ret := "int"
	if n.Sym != ast.NoSymbol {
		if t := p.prog.Symbol(n.Sym).Type; t != "" {
			ret = t
		}
	}

	var params []string
	for _, param := range p.prog.Params(fn) {
		pn := p.prog.Node(param)
		params = append(params, strings.TrimSpace(pn.Text+" "+p.prog.Node(pn.Kids[0]).Text))
	}
	if len(params) == 0 {
		params = []string{"void"}
	}

	fmt.Fprintf(p.w, "%s %s(%s) {\n", ret, n.Text, strings.Join(params, ", "))
	p.indent++
	p.blockBody(p.prog.Body(fn))
	p.indent--
	p.w.WriteString("}\n")
}

func (p *printer) blockBody(block ast.NodeID) {
	for _, kid := range p.prog.Node(block).Kids {
		p.stmt(kid)
	}
}

func (p *printer) line(s string) {
	p.w.WriteString(strings.Repeat(indentStep, p.indent))
	p.w.WriteString(s)
	p.w.WriteString("\n")
}

func (p *printer) stmt(id ast.NodeID) {
	n := p.prog.Node(id)
	switch n.Kind {
	case ast.KindDecl, ast.KindAssign, ast.KindExprStmt, ast.KindReturn:
		p.line(p.simpleStmt(id) + ";")
	case ast.KindIf:
		p.line("if (" + p.expr(n.Kids[0]) + ") {")
		p.indent++
		p.blockBody(n.Kids[1])
		p.indent--
		if n.Kids[2] != ast.NoNode {
			p.line("} else {")
			p.indent++
			p.blockBody(n.Kids[2])
			p.indent--
		}
		p.line("}")
	case ast.KindFor:
		var parts [3]string
		for i := 0; i < 3; i++ {
			if n.Kids[i] != ast.NoNode {
				parts[i] = p.forClause(n.Kids[i])
			}
		}
		p.line("for (" + parts[0] + "; " + parts[1] + "; " + parts[2] + ") {")
		p.indent++
		p.blockBody(n.Kids[3])
		p.indent--
		p.line("}")
	case ast.KindWhile:
		p.line("while (" + p.expr(n.Kids[0]) + ") {")
		p.indent++
		p.blockBody(n.Kids[1])
		p.indent--
		p.line("}")
	case ast.KindBlock:
		p.line("{")
		p.indent++
		p.blockBody(id)
		p.indent--
		p.line("}")
	default:
		p.line(p.expr(id) + ";")
	}
}

// simpleStmt renders a one-line statement without the trailing
// semicolon, so for headers can reuse it.
func (p *printer) simpleStmt(id ast.NodeID) string {
	n := p.prog.Node(id)
	switch n.Kind {
	case ast.KindDecl:
		s := strings.TrimSpace(n.Text + " " + p.prog.Node(n.Kids[0]).Text)
		if len(n.Kids) > 1 && n.Kids[1] != ast.NoNode {
			s += " = " + p.expr(n.Kids[1])
		}
		return s
	case ast.KindAssign:
		return p.expr(n.Kids[0]) + " = " + p.expr(n.Kids[1])
	case ast.KindExprStmt:
		return p.expr(n.Kids[0])
	case ast.KindReturn:
		if len(n.Kids) == 0 || n.Kids[0] == ast.NoNode {
			return "return"
		}
		return "return " + p.expr(n.Kids[0])
	default:
		return p.expr(id)
	}
}

// forClause renders a for header part: statements drop their semicolon,
// bare expressions render as is.
func (p *printer) forClause(id ast.NodeID) string {
	if p.prog.Node(id).IsStmt() {
		return p.simpleStmt(id)
	}
	return p.expr(id)
}

func (p *printer) expr(id ast.NodeID) string {
	n := p.prog.Node(id)
	switch n.Kind {
	case ast.KindIdent, ast.KindLiteral:
		return n.Text
	case ast.KindBinary:
		return p.operand(n.Kids[0]) + " " + n.Text + " " + p.operand(n.Kids[1])
	case ast.KindUnary:
		return n.Text + p.operand(n.Kids[0])
	case ast.KindIndex:
		return p.operand(n.Kids[0]) + "[" + p.expr(n.Kids[1]) + "]"
	case ast.KindCall:
		var args []string
		for _, arg := range n.Kids[1:] {
			args = append(args, p.expr(arg))
		}
		return p.expr(n.Kids[0]) + "(" + strings.Join(args, ", ") + ")"
	case ast.KindAssign:
		return p.expr(n.Kids[0]) + " = " + p.expr(n.Kids[1])
	default:
		return ""
	}
}

// operand wraps compound subexpressions in parentheses so rendered
// precedence always matches tree structure.
func (p *printer) operand(id ast.NodeID) string {
	s := p.expr(id)
	if p.prog.Node(id).Kind == ast.KindBinary {
		return "(" + s + ")"
	}
	return s
}
