package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/cfg"
	"github.com/mekkanik/cslicer/pkg/dep"
	"github.com/mekkanik/cslicer/pkg/frontend"
	"github.com/mekkanik/cslicer/pkg/inliner"
	"github.com/mekkanik/cslicer/pkg/printer"
	"github.com/mekkanik/cslicer/pkg/slicer"
	"github.com/mekkanik/cslicer/pkg/testcase"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <case-file|dir> [--json]",
	Short: "Run descriptor-driven cases and compare their expected output",
	Long: `Load case files (first line a TEST descriptor, rest the expected
output), run each through the slicing or inlining pipeline, and report
mismatches. A directory argument runs every case file in it. Any failed
case makes the command exit non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("accessing %s: %w", path, err)
		}
		var cases []*testcase.Case
		if info.IsDir() {
			cases, err = testcase.LoadDir(path)
		} else {
			var c *testcase.Case
			c, err = testcase.Load(path)
			cases = []*testcase.Case{c}
		}
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("no case files in %s", path)
		}

		type outcome struct {
			Case   string `json:"case"`
			Passed bool   `json:"passed"`
			Got    string `json:"got,omitempty"`
			Error  string `json:"error,omitempty"`
		}
		var outcomes []outcome
		failed := 0

		for _, c := range cases {
			got, err := runCase(c)
			o := outcome{Case: c.Path}
			switch {
			case err != nil:
				o.Error = err.Error()
			case got == c.Expected:
				o.Passed = true
			default:
				o.Got = got
			}
			if !o.Passed {
				failed++
			}
			outcomes = append(outcomes, o)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output := struct {
				Total    int       `json:"total"`
				Failed   int       `json:"failed"`
				Outcomes []outcome `json:"outcomes"`
			}{Total: len(outcomes), Failed: failed, Outcomes: outcomes}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			for _, o := range outcomes {
				switch {
				case o.Passed:
					fmt.Printf("PASS %s\n", o.Case)
				case o.Error != "":
					fmt.Printf("FAIL %s: %s\n", o.Case, o.Error)
				default:
					fmt.Printf("FAIL %s: output mismatch\n--- got ---\n%s\n", o.Case, o.Got)
				}
			}
			fmt.Printf("%d case(s), %d failed\n", len(outcomes), failed)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d case(s) failed", failed, len(outcomes))
		}
		return nil
	},
}

// runCase executes one case through the real pipeline. Slice cases
// produce the slice's line numbers one per line, inline cases the
// rewritten program text.
func runCase(c *testcase.Case) (string, error) {
	content, err := os.ReadFile(c.SourcePath())
	if err != nil {
		return "", fmt.Errorf("reading case source: %w", err)
	}
	prog, err := frontend.Parse(content, filepath.Base(c.SourcePath()))
	if err != nil {
		return "", err
	}

	switch c.Kind {
	case testcase.KindSlice:
		fn := prog.EnclosingFunction(c.Criterion())
		g := dep.Analyze(prog, cfg.Build(prog, fn), dep.Options{
			StrictAliasTypes: appConfig.StrictAliasTypes,
		})
		res, err := slicer.Slice(prog, g, slicer.Criterion{
			Loc:       c.Criterion(),
			Var:       c.Slice.Var,
			Direction: slicer.Direction(c.Slice.Direction),
		})
		if err != nil {
			return "", err
		}
		lines := make([]string, len(res.Lines))
		for i, n := range res.Lines {
			lines[i] = strconv.Itoa(n)
		}
		return strings.Join(lines, "\n"), nil
	case testcase.KindInline:
		res, err := inliner.Inline(prog, inliner.Spec{
			CallSite: c.Criterion(),
			Callee:   c.Inline.Func,
			ExpectedRange: &inliner.LineRange{
				Start: c.Inline.Target.Start,
				End:   c.Inline.Target.End,
			},
		}, inliner.Options{})
		if err != nil {
			return "", err
		}
		return strings.TrimRight(printer.Print(res.Program), "\n"), nil
	}
	return "", fmt.Errorf("unknown case kind %q", c.Kind)
}

func init() {
	verifyCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(verifyCmd)
}
