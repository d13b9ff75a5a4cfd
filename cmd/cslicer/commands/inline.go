package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cache"
	"github.com/mekkanik/cslicer/pkg/inliner"
	"github.com/mekkanik/cslicer/pkg/printer"
)

var inlineCmd = &cobra.Command{
	Use:   "inline <file> --line N --col N --callee NAME [--expect S:E] [--output FILE]",
	Short: "Expand a function call in place",
	Long: `Replace the call at the given location with the callee's body.

Arguments bind to fresh temporaries in evaluation order, callee locals are
renamed away from every visible name, and returns collapse into a result
variable. With --expect the computed line range of the inlined block is
verified against S:E before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		lineNum, _ := cmd.Flags().GetInt("line")
		if lineNum <= 0 {
			return fmt.Errorf("line number must be positive: %d", lineNum)
		}
		colNum, _ := cmd.Flags().GetInt("col")
		callee, _ := cmd.Flags().GetString("callee")
		if callee == "" {
			return fmt.Errorf("--callee is required")
		}

		var expected *inliner.LineRange
		if expect, _ := cmd.Flags().GetString("expect"); expect != "" {
			r, err := parseLineRange(expect)
			if err != nil {
				return err
			}
			expected = r
		}

		prefix := appConfig.TempPrefix
		if cmd.Flags().Changed("prefix") {
			prefix, _ = cmd.Flags().GetString("prefix")
		}

		prog, source, err := loadProgram(filePath)
		if err != nil {
			return err
		}

		spec := inliner.Spec{
			CallSite:      ast.Loc{Line: lineNum, Col: colNum},
			Callee:        callee,
			ExpectedRange: expected,
		}

		key := cache.Key(source, "inline", strconv.Itoa(lineNum), strconv.Itoa(colNum), callee, prefix)
		var text string
		var warnings []string
		var blockRange inliner.LineRange
		if hit, ok := resultCache.Get(key); ok && len(hit.Lines) == 2 {
			text, warnings = hit.Text, hit.Warnings
			blockRange = inliner.LineRange{Start: hit.Lines[0], End: hit.Lines[1]}
			if expected != nil && *expected != blockRange {
				return fmt.Errorf("computed [%d, %d], expected [%d, %d]: %w",
					blockRange.Start, blockRange.End, expected.Start, expected.End, inliner.ErrRangeMismatch)
			}
		} else {
			res, err := inliner.Inline(prog, spec, inliner.Options{Prefix: prefix})
			if err != nil {
				return fmt.Errorf("inlining %s in %s: %w", callee, filePath, err)
			}
			text = printer.Print(res.Program)
			warnings = res.Warnings
			blockRange = res.Range
			resultCache.Set(key, cache.Result{
				Text:     text,
				Lines:    []int{blockRange.Start, blockRange.End},
				Warnings: warnings,
			})
			cacheDirty = true
		}

		output, _ := cmd.Flags().GetString("output")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if output != "" {
			if err := os.WriteFile(output, []byte(text), 0644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}
		}

		if jsonOutput {
			out := struct {
				Callee   string            `json:"callee"`
				Range    inliner.LineRange `json:"range"`
				Output   string            `json:"output,omitempty"`
				Text     string            `json:"text,omitempty"`
				Warnings []string          `json:"warnings,omitempty"`
			}{Callee: callee, Range: blockRange, Output: output, Warnings: warnings}
			if output == "" {
				out.Text = text
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		fmt.Printf("Inlined %s into lines %d-%d\n", callee, blockRange.Start, blockRange.End)
		if output == "" {
			fmt.Print(text)
		}
		return nil
	},
}

// parseLineRange parses "S:E" into an inclusive line range.
func parseLineRange(s string) (*inliner.LineRange, error) {
	start, end, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("invalid range %q: want START:END", s)
	}
	a, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", start, err)
	}
	b, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", end, err)
	}
	if a <= 0 || b < a {
		return nil, fmt.Errorf("invalid range %q: want 0 < START <= END", s)
	}
	return &inliner.LineRange{Start: a, End: b}, nil
}

func init() {
	inlineCmd.Flags().IntP("line", "l", 0, "Line of the call to inline (required)")
	inlineCmd.Flags().IntP("col", "c", 0, "Column of the call to inline (optional)")
	inlineCmd.Flags().StringP("callee", "F", "", "Name of the function to inline (required)")
	inlineCmd.Flags().StringP("expect", "e", "", "Expected line range of the inlined block, as START:END")
	inlineCmd.Flags().StringP("output", "o", "", "Write the rewritten program to this file")
	inlineCmd.Flags().StringP("prefix", "p", "", "Prefix for generated temporaries (default from config)")
	inlineCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	_ = inlineCmd.MarkFlagRequired("line")
	_ = inlineCmd.MarkFlagRequired("callee")

	RootCmd.AddCommand(inlineCmd)
}
