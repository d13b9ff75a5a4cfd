package inliner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/frontend"
	"github.com/mekkanik/cslicer/pkg/inliner"
	"github.com/mekkanik/cslicer/pkg/printer"
)

func parseFile(t *testing.T, path string) *ast.Program {
	t.Helper()
	prog, err := frontend.ParseFile(path)
	require.NoError(t, err)
	return prog
}

func parseSrc(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := frontend.Parse([]byte(src), "test.c")
	require.NoError(t, err)
	return prog
}

func TestInline_SimpleReturn(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 16, Col: 13},
		Callee:   "to_inline",
	}, inliner.Options{})
	require.NoError(t, err)

	assert.Equal(t, inliner.LineRange{Start: 16, End: 20}, res.Range)
	assert.Len(t, res.StmtLocs, 5)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "int inl_a = x;")
	assert.Contains(t, text, "int inl_b = y;")
	assert.Contains(t, text, "inl_result = inl_a + inl_b;")
	assert.Contains(t, text, "int z = inl_result;")
	assert.NotContains(t, text, "to_inline(x, y)", "main no longer calls the callee")
}

func TestInline_InputProgramUntouched(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")
	before := printer.Print(prog)

	_, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 16, Col: 13},
		Callee:   "to_inline",
	}, inliner.Options{})
	require.NoError(t, err)

	assert.Equal(t, before, printer.Print(prog))
}

func TestInline_ShiftsTrailingLines(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 16, Col: 13},
		Callee:   "to_inline",
	}, inliner.Options{})
	require.NoError(t, err)

	// one line became five, everything behind moved down four
	out := res.Program
	main := out.FunctionByName("main")
	shifted := out.StatementAt(out.Body(main), ast.Loc{Line: 21})
	require.NotEqual(t, ast.NoNode, shifted)
	assert.Equal(t, ast.KindDecl, out.Node(shifted).Kind)
	assert.Equal(t, prog.MaxLine()+4, out.MaxLine())
}

func TestInline_RenamesCalleeLocals(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 17, Col: 13},
		Callee:   "another_inline",
	}, inliner.Options{})
	require.NoError(t, err)

	assert.Equal(t, inliner.LineRange{Start: 17, End: 23}, res.Range)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "int inl_sum = inl_a + inl_b;")
	assert.Contains(t, text, "inl_sum = inl_sum + 1;")
	assert.Contains(t, text, "int w = inl_result;")
}

func TestInline_AvoidsCapture(t *testing.T) {
	prog := parseSrc(t, `int twice(int a) {
    int tmp = a + a;
    return tmp;
}

int main() {
    int inl_a = 1;
    int inl_tmp = 2;
    int r = twice(inl_a);
    return r + inl_tmp;
}
`)

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 9, Col: 13},
		Callee:   "twice",
	}, inliner.Options{})
	require.NoError(t, err)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "int inl_a2 = inl_a;", "parameter temp steps around the taken name")
	assert.Contains(t, text, "int inl_tmp2 = inl_a2 + inl_a2;")
	assert.Contains(t, text, "return r + inl_tmp;", "caller's variable survives untouched")
}

func TestInline_MultipleReturnsGetGuard(t *testing.T) {
	prog := parseFile(t, "../../testdata/multi_return.c")

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 13, Col: 13},
		Callee:   "clamp",
	}, inliner.Options{})
	require.NoError(t, err)

	assert.Equal(t, inliner.LineRange{Start: 13, End: 28}, res.Range)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "int inl_done = 0;")
	assert.Contains(t, text, "if (inl_done == 0) {")
	assert.Contains(t, text, "inl_done = 1;")
	assert.Contains(t, text, "int c = inl_result;")
	assert.Equal(t, 2, strings.Count(text, "if (inl_done == 0) {"),
		"one guard per early return")
}

func TestInline_BareCallStatementIsDropped(t *testing.T) {
	prog := parseSrc(t, `int ping(int n) {
    write(n);
    return 0;
}

int main() {
    int v = 1;
    ping(v);
    return v;
}
`)

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 8, Col: 5},
		Callee:   "ping",
	}, inliner.Options{})
	require.NoError(t, err)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "write(inl_n);")
	assert.NotContains(t, text, "ping(v)")
	assert.NotContains(t, text, "inl_result", "unused value needs no result variable")
}

func TestInline_ExpectedRange(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	_, err := inliner.Inline(prog, inliner.Spec{
		CallSite:      ast.Loc{Line: 16, Col: 13},
		Callee:        "to_inline",
		ExpectedRange: &inliner.LineRange{Start: 16, End: 20},
	}, inliner.Options{})
	require.NoError(t, err)

	_, err = inliner.Inline(prog, inliner.Spec{
		CallSite:      ast.Loc{Line: 16, Col: 13},
		Callee:        "to_inline",
		ExpectedRange: &inliner.LineRange{Start: 16, End: 19},
	}, inliner.Options{})
	require.ErrorIs(t, err, inliner.ErrRangeMismatch)
}

func TestInline_RejectsRecursion(t *testing.T) {
	prog := parseFile(t, "../../testdata/fib.c")

	_, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 11, Col: 13},
		Callee:   "fib",
	}, inliner.Options{})
	require.ErrorIs(t, err, inliner.ErrRecursiveInline)
}

func TestInline_UnknownCallee(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	_, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 18, Col: 5},
		Callee:   "printf",
	}, inliner.Options{})
	require.ErrorIs(t, err, inliner.ErrUnknownFunction)
}

func TestInline_NoCallAtLocation(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	_, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 14, Col: 5},
		Callee:   "to_inline",
	}, inliner.Options{})
	require.ErrorIs(t, err, inliner.ErrCallNotFound)
}

func TestInline_CustomPrefix(t *testing.T) {
	prog := parseFile(t, "../../testdata/inline_basic.c")

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 16, Col: 13},
		Callee:   "to_inline",
	}, inliner.Options{Prefix: "tmp"})
	require.NoError(t, err)

	text := printer.Print(res.Program)
	assert.Contains(t, text, "int tmp_a = x;")
	assert.NotContains(t, text, "inl_a")
}

func TestInline_ArgumentTemporariesKeepSideEffectOrder(t *testing.T) {
	prog := parseSrc(t, `int combine(int a, int b) {
    return a + b;
}

int main() {
    int x = 1;
    int r = combine(bump(&x), bump(&x) + x);
    return r;
}
`)

	res, err := inliner.Inline(prog, inliner.Spec{
		CallSite: ast.Loc{Line: 7, Col: 13},
		Callee:   "combine",
	}, inliner.Options{})
	require.NoError(t, err)

	text := printer.Print(res.Program)

	first := strings.Index(text, "int inl_a = bump(&x);")
	second := strings.Index(text, "int inl_b = bump(&x) + x;")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second, "temporaries bind arguments left to right")

	// each argument expression is evaluated exactly once
	assert.Equal(t, 1, strings.Count(text, "int inl_a = bump(&x);"))
	assert.Equal(t, 1, strings.Count(text, "int inl_b = bump(&x) + x;"))
	assert.Equal(t, 2, strings.Count(text, "bump(&x)"))

	assert.Contains(t, text, "int r = inl_result;")
	assert.NotContains(t, text, "combine(bump")
}
