package dep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
	"github.com/mekkanik/cslicer/pkg/dep"
	"github.com/mekkanik/cslicer/pkg/frontend"
)

func analyzeFile(t *testing.T, path, fn string, opts dep.Options) (*ast.Program, *dep.Graph) {
	t.Helper()
	prog, err := frontend.ParseFile(path)
	require.NoError(t, err)
	fnNode := prog.FunctionByName(fn)
	require.NotEqual(t, ast.NoNode, fnNode)
	g := cfg.Build(prog, fnNode)
	return prog, dep.Analyze(prog, g, opts)
}

func stmtAt(t *testing.T, prog *ast.Program, g *dep.Graph, line int) ast.NodeID {
	t.Helper()
	stmt := prog.StatementAt(prog.Body(g.Fn), ast.Loc{Line: line})
	require.NotEqual(t, ast.NoNode, stmt, "no statement on line %d", line)
	return stmt
}

// hasEdge reports a dependence of the statement on fromLine on the one on
// toLine, optionally restricted to a kind and variable name.
func hasEdge(prog *ast.Program, g *dep.Graph, fromLine, toLine int, kind dep.Kind, varName string) bool {
	for _, e := range g.Edges {
		if prog.Node(e.From).Loc.Line != fromLine || prog.Node(e.To).Loc.Line != toLine {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		if varName != "" {
			if e.Var == ast.NoSymbol || prog.Symbol(e.Var).Name != varName {
				continue
			}
		}
		return true
	}
	return false
}

func TestAnalyze_DataEdges(t *testing.T) {
	prog, g := analyzeFile(t, "../../testdata/example2.c", "main", dep.Options{})

	// write(sum) reads both the initial value and the loop update
	assert.True(t, hasEdge(prog, g, 13, 6, dep.Data, "sum"))
	assert.True(t, hasEdge(prog, g, 13, 10, dep.Data, "sum"))

	// the loop assignment reads w and the loop counter
	assert.True(t, hasEdge(prog, g, 10, 8, dep.Data, "w"))
	assert.True(t, hasEdge(prog, g, 10, 9, dep.Data, "i"))

	// the for header reads i declared above it
	assert.True(t, hasEdge(prog, g, 9, 5, dep.Data, "i"))

	// product never flows into sum and vice versa
	assert.False(t, hasEdge(prog, g, 13, 7, "", ""))
	assert.False(t, hasEdge(prog, g, 14, 6, "", ""))
	assert.False(t, hasEdge(prog, g, 10, 11, "", ""))
}

func TestAnalyze_ControlEdges(t *testing.T) {
	prog, g := analyzeFile(t, "../../testdata/example2.c", "main", dep.Options{})

	assert.True(t, hasEdge(prog, g, 10, 9, dep.Control, ""))
	assert.True(t, hasEdge(prog, g, 11, 9, dep.Control, ""))

	// statements after the loop do not depend on it for control
	assert.False(t, hasEdge(prog, g, 13, 9, dep.Control, ""))
	assert.False(t, hasEdge(prog, g, 16, 9, dep.Control, ""))
}

func TestAnalyze_BranchControl(t *testing.T) {
	prog, err := frontend.Parse([]byte(`int main() {
    int x = 1;
    int y = 0;
    if (x) {
        y = 2;
    } else {
        y = 3;
    }
    return y;
}
`), "test.c")
	require.NoError(t, err)
	g := dep.Analyze(prog, cfg.Build(prog, prog.FunctionByName("main")), dep.Options{})

	assert.True(t, hasEdge(prog, g, 5, 4, dep.Control, ""))
	assert.True(t, hasEdge(prog, g, 7, 4, dep.Control, ""))
	assert.False(t, hasEdge(prog, g, 9, 4, dep.Control, ""), "the join is not controlled")

	// both branch definitions reach the return
	assert.True(t, hasEdge(prog, g, 9, 5, dep.Data, "y"))
	assert.True(t, hasEdge(prog, g, 9, 7, dep.Data, "y"))
	assert.False(t, hasEdge(prog, g, 9, 3, dep.Data, "y"), "both branches kill the initial value")
}

func TestAnalyze_ParamsAreDefs(t *testing.T) {
	prog, g := analyzeFile(t, "../../testdata/multi_return.c", "clamp", dep.Options{})

	// line 2: if (v < lo) reads both parameters, defined on line 1
	assert.True(t, hasEdge(prog, g, 2, 1, dep.Data, "v"))
	assert.True(t, hasEdge(prog, g, 2, 1, dep.Data, "lo"))
	assert.True(t, hasEdge(prog, g, 8, 1, dep.Data, "v"))
}

func TestAnalyze_PointerWriteAliases(t *testing.T) {
	prog, g := analyzeFile(t, "../../testdata/alias.c", "main", dep.Options{})

	// *p = 5 defines a (address taken), so write(a) reads line 5 only
	assert.True(t, hasEdge(prog, g, 6, 5, dep.Data, "a"))
	assert.False(t, hasEdge(prog, g, 6, 2, dep.Data, "a"), "the pointer write kills the declaration")

	// b's address is never taken, the pointer write cannot touch it
	assert.True(t, hasEdge(prog, g, 7, 3, dep.Data, "b"))
	assert.False(t, hasEdge(prog, g, 7, 5, "", ""))

	// taking &a counts as reading a
	assert.True(t, hasEdge(prog, g, 4, 2, dep.Data, "a"))
}

func TestAnalyze_StrictAliasTypes(t *testing.T) {
	prog, err := frontend.Parse([]byte(`int main() {
    int a = 1;
    float f = 2;
    int *p = &a;
    scan(&f);
    *p = 5;
    write(a);
    write(f);
    return 0;
}
`), "test.c")
	require.NoError(t, err)
	g := dep.Analyze(prog, cfg.Build(prog, prog.FunctionByName("main")), dep.Options{StrictAliasTypes: true})

	// an int pointer write cannot define the float
	assert.True(t, hasEdge(prog, g, 7, 6, dep.Data, "a"))
	assert.False(t, hasEdge(prog, g, 8, 6, "", ""))
}

func TestAnalyze_UnreachableWarning(t *testing.T) {
	_, g := analyzeFile(t, "../../testdata/unreachable.c", "stop", dep.Options{})
	require.NotEmpty(t, g.Warnings)
}

func TestGraph_DepsIndex(t *testing.T) {
	prog, g := analyzeFile(t, "../../testdata/example2.c", "main", dep.Options{})

	use := stmtAt(t, prog, g, 13)
	deps := g.Deps(use)
	require.NotEmpty(t, deps)
	for _, e := range deps {
		assert.Equal(t, use, e.From)
	}

	def := stmtAt(t, prog, g, 8)
	for _, e := range g.Dependents(def) {
		assert.Equal(t, def, e.To)
	}
}
