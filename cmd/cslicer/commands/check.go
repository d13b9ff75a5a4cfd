package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/callgraph"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

var checkCmd = &cobra.Command{
	Use:   "check <file> [--strict] [--json]",
	Short: "Report unreachable code and unresolved calls",
	Long: `Parse a file, build the control flow graph of every function, and
report statements no path from the entry can reach, plus calls to
functions the file does not define. With --strict any finding fails the
command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		prog, _, err := loadProgram(filePath)
		if err != nil {
			return err
		}

		type finding struct {
			Function string `json:"function"`
			Line     int    `json:"line,omitempty"`
			Message  string `json:"message"`
		}
		var findings []finding

		for _, fn := range prog.Functions {
			name := prog.Node(fn).Text
			g := cfg.Build(prog, fn)
			for _, b := range g.Blocks {
				if !b.Unreachable {
					continue
				}
				for _, stmt := range b.Stmts {
					findings = append(findings, finding{
						Function: name,
						Line:     prog.Node(stmt).Loc.Line,
						Message:  "statement is unreachable",
					})
				}
			}
		}

		cg := callgraph.Build(prog)
		for _, e := range cg.Edges {
			if prog.FunctionByName(e.Callee) != ast.NoNode {
				continue
			}
			findings = append(findings, finding{
				Function: e.Caller,
				Message:  fmt.Sprintf("calls %s, which is not defined in this file", e.Callee),
			})
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output := struct {
				File     string    `json:"file"`
				Findings []finding `json:"findings"`
			}{File: filePath, Findings: findings}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			fmt.Printf("=== Check: %s ===\n", filePath)
			if len(findings) == 0 {
				fmt.Println("no findings")
			}
			for _, f := range findings {
				if f.Line > 0 {
					fmt.Printf("%s: line %d: %s\n", f.Function, f.Line, f.Message)
				} else {
					fmt.Printf("%s: %s\n", f.Function, f.Message)
				}
			}
		}

		strict, _ := cmd.Flags().GetBool("strict")
		if strict && len(findings) > 0 {
			return fmt.Errorf("%d finding(s) in %s", len(findings), filePath)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("strict", false, "Exit with an error when there are findings")
	checkCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(checkCmd)
}
