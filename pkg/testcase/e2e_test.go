package testcase_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/cfg"
	"github.com/mekkanik/cslicer/pkg/dep"
	"github.com/mekkanik/cslicer/pkg/frontend"
	"github.com/mekkanik/cslicer/pkg/inliner"
	"github.com/mekkanik/cslicer/pkg/printer"
	"github.com/mekkanik/cslicer/pkg/slicer"
	"github.com/mekkanik/cslicer/pkg/testcase"
)

// TestCases runs every fixture under testdata/cases against the real
// pipeline. Slice cases expect the slice's line numbers, one per line;
// inline cases expect the rewritten program text.
func TestCases(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "cases")
	cases, err := testcase.LoadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	for _, c := range cases {
		c := c
		t.Run(filepath.Base(c.Path), func(t *testing.T) {
			content, err := os.ReadFile(c.SourcePath())
			require.NoError(t, err)
			prog, err := frontend.Parse(content, filepath.Base(c.SourcePath()))
			require.NoError(t, err)

			var got string
			switch c.Kind {
			case testcase.KindSlice:
				fn := prog.EnclosingFunction(c.Criterion())
				g := dep.Analyze(prog, cfg.Build(prog, fn), dep.Options{})
				res, err := slicer.Slice(prog, g, slicer.Criterion{
					Loc:       c.Criterion(),
					Var:       c.Slice.Var,
					Direction: slicer.Direction(c.Slice.Direction),
				})
				require.NoError(t, err)
				got = formatLines(res.Lines)
			case testcase.KindInline:
				res, err := inliner.Inline(prog, inliner.Spec{
					CallSite: c.Criterion(),
					Callee:   c.Inline.Func,
					ExpectedRange: &inliner.LineRange{
						Start: c.Inline.Target.Start,
						End:   c.Inline.Target.End,
					},
				}, inliner.Options{})
				require.NoError(t, err)
				got = strings.TrimRight(printer.Print(res.Program), "\n")
			default:
				t.Fatalf("unhandled case kind %q", c.Kind)
			}

			if diff := cmp.Diff(c.Expected, got); diff != "" {
				t.Errorf("%s output mismatch (-want +got):\n%s", c.Path, diff)
			}
		})
	}
}

// TestCaseTargetRangeEnforced cross-checks inline descriptors: the
// target range is the occupied-range expectation, so a shifted range
// must make the same case fail with the range error.
func TestCaseTargetRangeEnforced(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "cases")
	cases, err := testcase.LoadDir(dir)
	require.NoError(t, err)

	checked := 0
	for _, c := range cases {
		if c.Kind != testcase.KindInline {
			continue
		}
		content, err := os.ReadFile(c.SourcePath())
		require.NoError(t, err)
		prog, err := frontend.Parse(content, filepath.Base(c.SourcePath()))
		require.NoError(t, err)

		_, err = inliner.Inline(prog, inliner.Spec{
			CallSite: c.Criterion(),
			Callee:   c.Inline.Func,
			ExpectedRange: &inliner.LineRange{
				Start: c.Inline.Target.Start + 1,
				End:   c.Inline.Target.End + 1,
			},
		}, inliner.Options{})
		require.ErrorIs(t, err, inliner.ErrRangeMismatch, c.Path)
		checked++
	}
	require.NotZero(t, checked)
}

func formatLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "\n")
}
