package frontend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/frontend"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := frontend.Parse([]byte(src), "test.c")
	require.NoError(t, err)
	return prog
}

func TestParse_Functions(t *testing.T) {
	prog, err := frontend.ParseFile("../../testdata/inline_basic.c")
	require.NoError(t, err)

	require.Len(t, prog.Functions, 3)
	assert.NotEqual(t, ast.NoNode, prog.FunctionByName("to_inline"))
	assert.NotEqual(t, ast.NoNode, prog.FunctionByName("another_inline"))

	main := prog.FunctionByName("main")
	require.NotEqual(t, ast.NoNode, main)

	sym := prog.Node(main).Sym
	require.NotEqual(t, ast.NoSymbol, sym)
	assert.Equal(t, "int", prog.Symbol(sym).Type)
	assert.Equal(t, ast.SymFunc, prog.Symbol(sym).Kind)
}

func TestParse_Params(t *testing.T) {
	prog := parse(t, "int add(int a, int b) {\n    return a + b;\n}\n")

	fn := prog.FunctionByName("add")
	params := prog.Params(fn)
	require.Len(t, params, 2)

	first := prog.Node(params[0])
	assert.Equal(t, ast.KindParam, first.Kind)
	assert.Equal(t, "int", first.Text)

	ident := prog.Node(first.Kids[0])
	assert.Equal(t, "a", ident.Text)
	require.NotEqual(t, ast.NoSymbol, ident.Sym)
	assert.Equal(t, ast.SymParam, prog.Symbol(ident.Sym).Kind)
}

func TestParse_StatementShapes(t *testing.T) {
	prog := parse(t, `int main() {
    int x = 1;
    if (x < 2) {
        x = 3;
    } else {
        x = 4;
    }
    while (x) {
        x = x - 1;
    }
    return x;
}
`)

	body := prog.Body(prog.FunctionByName("main"))
	kids := prog.Node(body).Kids
	require.Len(t, kids, 4)

	assert.Equal(t, ast.KindDecl, prog.Node(kids[0]).Kind)
	assert.Equal(t, ast.KindIf, prog.Node(kids[1]).Kind)
	assert.Equal(t, ast.KindWhile, prog.Node(kids[2]).Kind)
	assert.Equal(t, ast.KindReturn, prog.Node(kids[3]).Kind)

	ifNode := prog.Node(kids[1])
	assert.Equal(t, ast.KindBinary, prog.Node(ifNode.Kids[0]).Kind)
	assert.NotEqual(t, ast.NoNode, ifNode.Kids[2], "else branch present")
	assert.Equal(t, 2, prog.Node(kids[0]).Loc.Line)
	assert.Equal(t, 3, prog.Node(kids[1]).Loc.Line)
}

func TestParse_ForHeaderIsOneStatement(t *testing.T) {
	prog, err := frontend.ParseFile("../../testdata/example2.c")
	require.NoError(t, err)

	body := prog.Body(prog.FunctionByName("main"))
	forStmt := prog.StatementAt(body, ast.Loc{Line: 9, Col: 5})
	require.NotEqual(t, ast.NoNode, forStmt)
	require.Equal(t, ast.KindFor, prog.Node(forStmt).Kind)

	n := prog.Node(forStmt)
	require.Len(t, n.Kids, 4)
	assert.Equal(t, ast.KindAssign, prog.Node(n.Kids[0]).Kind, "init")
	assert.Equal(t, ast.KindBinary, prog.Node(n.Kids[1]).Kind, "condition")
	assert.Equal(t, ast.KindAssign, prog.Node(n.Kids[2]).Kind, "post, desugared from ++i")
	assert.Equal(t, ast.KindBlock, prog.Node(n.Kids[3]).Kind, "body")
}

func TestParse_UpdateAndCompoundDesugar(t *testing.T) {
	prog := parse(t, "int main() {\n    int x = 1;\n    x++;\n    x += 2;\n    return x;\n}\n")

	body := prog.Body(prog.FunctionByName("main"))
	kids := prog.Node(body).Kids
	require.Len(t, kids, 4)

	inc := prog.Node(kids[1])
	require.Equal(t, ast.KindAssign, inc.Kind)
	rhs := prog.Node(inc.Kids[1])
	require.Equal(t, ast.KindBinary, rhs.Kind)
	assert.Equal(t, "+", rhs.Text)

	add := prog.Node(kids[2])
	require.Equal(t, ast.KindAssign, add.Kind)
	addRhs := prog.Node(add.Kids[1])
	require.Equal(t, ast.KindBinary, addRhs.Kind)
	assert.Equal(t, "+", addRhs.Text)
	assert.Equal(t, "x", prog.Node(addRhs.Kids[0]).Text)
}

func TestParse_CallShape(t *testing.T) {
	prog, err := frontend.ParseFile("../../testdata/inline_basic.c")
	require.NoError(t, err)

	body := prog.Body(prog.FunctionByName("main"))
	call := prog.CallAt(body, ast.Loc{Line: 16, Col: 13})
	require.NotEqual(t, ast.NoNode, call)

	n := prog.Node(call)
	require.Len(t, n.Kids, 3)
	callee := prog.Node(n.Kids[0])
	assert.Equal(t, "to_inline", callee.Text)
	assert.Equal(t, "x", prog.Node(n.Kids[1]).Text)
	assert.Equal(t, "y", prog.Node(n.Kids[2]).Text)
}

func TestParse_AddressTaken(t *testing.T) {
	prog, err := frontend.ParseFile("../../testdata/alias.c")
	require.NoError(t, err)

	a := prog.SymbolByName("a")
	require.NotEqual(t, ast.NoSymbol, a)
	assert.True(t, prog.Symbol(a).AddrTaken)

	b := prog.SymbolByName("b")
	require.NotEqual(t, ast.NoSymbol, b)
	assert.False(t, prog.Symbol(b).AddrTaken)

	p := prog.SymbolByName("p")
	require.NotEqual(t, ast.NoSymbol, p)
	assert.Equal(t, "int*", prog.Symbol(p).Type)
}

func TestParse_UnresolvedNamesBecomeExterns(t *testing.T) {
	prog, err := frontend.ParseFile("../../testdata/example2.c")
	require.NoError(t, err)

	n := prog.SymbolByName("N")
	require.NotEqual(t, ast.NoSymbol, n)
	assert.Equal(t, ast.SymExtern, prog.Symbol(n).Kind)
}

func TestParse_ScopeShadowing(t *testing.T) {
	prog := parse(t, `int main() {
    int x = 1;
    if (x) {
        int x = 2;
        x = x + 1;
    }
    return x;
}
`)

	body := prog.Body(prog.FunctionByName("main"))
	outer := prog.Node(prog.Node(prog.Node(body).Kids[0]).Kids[0]).Sym

	ifNode := prog.Node(prog.Node(body).Kids[1])
	thenKids := prog.Node(ifNode.Kids[1]).Kids
	inner := prog.Node(prog.Node(thenKids[0]).Kids[0]).Sym
	assert.NotEqual(t, outer, inner, "inner declaration shadows")

	innerUse := prog.Node(prog.Node(thenKids[1]).Kids[0]).Sym
	assert.Equal(t, inner, innerUse)

	retExpr := prog.Node(prog.Node(prog.Node(body).Kids[2]).Kids[0]).Sym
	assert.Equal(t, outer, retExpr, "return sees the outer x")
}
