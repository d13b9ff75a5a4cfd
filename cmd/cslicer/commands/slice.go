package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cache"
	"github.com/mekkanik/cslicer/pkg/cfg"
	"github.com/mekkanik/cslicer/pkg/dep"
	"github.com/mekkanik/cslicer/pkg/slicer"
)

var sliceCmd = &cobra.Command{
	Use:   "slice <file> --line N [--col N] [--var NAME] [--backward|--forward] [--json]",
	Short: "Perform backward or forward slice analysis on a C file",
	Long: `Perform slice analysis at a source location to find data and control
dependencies.

Backward slice: find all lines that may affect the value at the target line.
Forward slice: find all lines that may be affected by the value at the source line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		lineNum, err := cmd.Flags().GetInt("line")
		if err != nil {
			return fmt.Errorf("getting line flag: %w", err)
		}
		if lineNum <= 0 {
			return fmt.Errorf("line number must be positive: %d", lineNum)
		}
		colNum, _ := cmd.Flags().GetInt("col")
		varName, _ := cmd.Flags().GetString("var")

		backward, _ := cmd.Flags().GetBool("backward")
		forward, _ := cmd.Flags().GetBool("forward")
		if !backward && !forward {
			backward = true
		}
		direction := slicer.Backward
		if forward {
			direction = slicer.Forward
		}

		prog, source, err := loadProgram(filePath)
		if err != nil {
			return err
		}

		loc := ast.Loc{Line: lineNum, Col: colNum}
		fn := prog.EnclosingFunction(loc)
		if fn == ast.NoNode {
			return fmt.Errorf("no function encloses line %d in %s", lineNum, filePath)
		}
		fnName := prog.Node(fn).Text

		key := cache.Key(source, "slice", strconv.Itoa(lineNum), strconv.Itoa(colNum), varName, string(direction))
		var lines []int
		var warnings []string
		if hit, ok := resultCache.Get(key); ok {
			lines, warnings = hit.Lines, hit.Warnings
		} else {
			g := cfg.Build(prog, fn)
			dg := dep.Analyze(prog, g, dep.Options{StrictAliasTypes: appConfig.StrictAliasTypes})
			res, err := slicer.Slice(prog, dg, slicer.Criterion{Loc: loc, Var: varName, Direction: direction})
			if err != nil {
				return fmt.Errorf("slicing %s: %w", filePath, err)
			}
			lines, warnings = res.Lines, res.Warnings
			resultCache.Set(key, cache.Result{Lines: lines, Warnings: warnings})
			cacheDirty = true
		}
		if lines == nil {
			lines = []int{}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output := struct {
				FunctionName string   `json:"function_name"`
				Line         int      `json:"line"`
				Direction    string   `json:"direction"`
				Variable     string   `json:"variable,omitempty"`
				SliceLines   []int    `json:"slice_lines"`
				Warnings     []string `json:"warnings,omitempty"`
			}{
				FunctionName: fnName,
				Line:         lineNum,
				Direction:    string(direction),
				Variable:     varName,
				SliceLines:   lines,
				Warnings:     warnings,
			}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== Slice for function: %s (line %d, %s) ===\n", fnName, lineNum, direction)
		if varName != "" {
			fmt.Printf("Variable filter: %s\n", varName)
		}
		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		fmt.Printf("\nSlice lines (%d): %s\n", len(lines), formatLineRanges(lines))
		if len(lines) == 0 {
			return nil
		}

		fmt.Println("\n--- Source code with slice lines highlighted ---")
		fnNode := prog.Node(fn)
		printSourceWithHighlights(source, fnNode.Loc.Line, fnNode.End.Line, lines)
		return nil
	},
}

func init() {
	sliceCmd.Flags().IntP("line", "l", 0, "Line number to slice from (required)")
	sliceCmd.Flags().IntP("col", "c", 0, "Column of the criterion variable (optional)")
	sliceCmd.Flags().BoolP("backward", "b", false, "Backward slice (default)")
	sliceCmd.Flags().BoolP("forward", "f", false, "Forward slice")
	sliceCmd.Flags().StringP("var", "v", "", "Variable name to slice on (optional)")
	sliceCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	_ = sliceCmd.MarkFlagRequired("line")

	RootCmd.AddCommand(sliceCmd)
}
