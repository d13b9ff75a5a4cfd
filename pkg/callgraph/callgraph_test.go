package callgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/callgraph"
	"github.com/mekkanik/cslicer/pkg/frontend"
)

func buildGraph(t *testing.T, name string) *callgraph.Graph {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	prog, err := frontend.Parse(content, name)
	require.NoError(t, err)
	return callgraph.Build(prog)
}

func TestBuildCollectsEdges(t *testing.T) {
	g := buildGraph(t, "inline_basic.c")

	assert.Contains(t, g.Edges, callgraph.Edge{Caller: "main", Callee: "to_inline"})
	assert.Contains(t, g.Edges, callgraph.Edge{Caller: "main", Callee: "another_inline"})
	assert.Contains(t, g.Edges, callgraph.Edge{Caller: "main", Callee: "printf"})
}

func TestBuildDeduplicatesAndSorts(t *testing.T) {
	g := buildGraph(t, "inline_basic.c")

	// printf is called twice but appears once
	count := 0
	for _, e := range g.Edges {
		if e.Callee == "printf" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	for i := 1; i < len(g.Edges); i++ {
		prev, cur := g.Edges[i-1], g.Edges[i]
		less := prev.Caller < cur.Caller ||
			(prev.Caller == cur.Caller && prev.Callee < cur.Callee)
		assert.True(t, less, "edges not sorted at %d: %v then %v", i, prev, cur)
	}
}

func TestCallees(t *testing.T) {
	g := buildGraph(t, "fib.c")

	assert.Contains(t, g.Callees("fib"), "fib")
	assert.Contains(t, g.Callees("main"), "fib")
	assert.Empty(t, g.Callees("nosuch"))
}

func TestReaches(t *testing.T) {
	g := buildGraph(t, "fib.c")

	assert.True(t, g.Reaches("fib", "fib"), "direct recursion")
	assert.True(t, g.Reaches("main", "fib"))
	assert.False(t, g.Reaches("fib", "main"))
	assert.False(t, g.Reaches("main", "main"))
}

func TestReachesTransitive(t *testing.T) {
	source := []byte(`int c(int x) {
    return x;
}

int b(int x) {
    return c(x);
}

int a(int x) {
    return b(x);
}
`)
	prog, err := frontend.Parse(source, "chain.c")
	require.NoError(t, err)
	g := callgraph.Build(prog)

	assert.True(t, g.Reaches("a", "c"))
	assert.False(t, g.Reaches("c", "a"))
	assert.False(t, g.Reaches("a", "a"))
}
