package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/cfg"
	"github.com/mekkanik/cslicer/pkg/dep"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file> <function> [--kind data|control] [--json]",
	Short: "Show data and control dependences of a function",
	Long: `Build the dependence graph of one function and list its edges. A data
edge links a use to a definition that reaches it; a control edge links a
statement to the predicate deciding whether it runs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		functionName := args[1]

		kindFilter, _ := cmd.Flags().GetString("kind")
		switch kindFilter {
		case "", string(dep.Data), string(dep.Control):
		default:
			return fmt.Errorf("invalid --kind %q: want data or control", kindFilter)
		}

		prog, _, err := loadProgram(filePath)
		if err != nil {
			return err
		}
		fn, err := requireFunction(prog, functionName, filePath)
		if err != nil {
			return err
		}

		g := cfg.Build(prog, fn)
		dg := dep.Analyze(prog, g, dep.Options{StrictAliasTypes: appConfig.StrictAliasTypes})

		type edgeOut struct {
			FromLine int    `json:"from_line"`
			ToLine   int    `json:"to_line"`
			Kind     string `json:"kind"`
			Var      string `json:"var,omitempty"`
		}
		var edges []edgeOut
		for _, e := range dg.Edges {
			if kindFilter != "" && string(e.Kind) != kindFilter {
				continue
			}
			out := edgeOut{
				FromLine: prog.Node(e.From).Loc.Line,
				ToLine:   prog.Node(e.To).Loc.Line,
				Kind:     string(e.Kind),
			}
			if e.Var != ast.NoSymbol {
				out.Var = prog.Symbol(e.Var).Name
			}
			edges = append(edges, out)
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].FromLine != edges[j].FromLine {
				return edges[i].FromLine < edges[j].FromLine
			}
			if edges[i].ToLine != edges[j].ToLine {
				return edges[i].ToLine < edges[j].ToLine
			}
			return edges[i].Var < edges[j].Var
		})

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output := struct {
				FunctionName string   `json:"function_name"`
				Edges        []edgeOut `json:"edges"`
				Warnings     []string `json:"warnings,omitempty"`
			}{FunctionName: functionName, Edges: edges, Warnings: dg.Warnings}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== Dependences for function: %s ===\n", functionName)
		for _, w := range dg.Warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		for _, e := range edges {
			if e.Var != "" {
				fmt.Printf("line %d -> line %d [%s %s]\n", e.FromLine, e.ToLine, e.Kind, e.Var)
			} else {
				fmt.Printf("line %d -> line %d [%s]\n", e.FromLine, e.ToLine, e.Kind)
			}
		}
		if len(edges) == 0 {
			fmt.Println("no dependences")
		}
		return nil
	},
}

func init() {
	depsCmd.Flags().StringP("kind", "k", "", "Only show edges of this kind: data or control")
	depsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(depsCmd)
}
