package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/cfg"
)

var cfgCmd = &cobra.Command{
	Use:   "cfg <file> <function> [--json]",
	Short: "Show the control flow graph of a function",
	Long: `Build and display the control flow graph of one function: its basic
blocks, the statements they hold, and the edges between them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		functionName := args[1]

		prog, _, err := loadProgram(filePath)
		if err != nil {
			return err
		}
		fn, err := requireFunction(prog, functionName, filePath)
		if err != nil {
			return err
		}

		g := cfg.Build(prog, fn)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== CFG for function: %s ===\n", g.FunctionName)
		fmt.Printf("Entry: block %d\n", g.Entry)
		for _, b := range g.Blocks {
			note := ""
			if b.Unreachable {
				note = " (unreachable)"
			}
			fmt.Printf("\nblock %d [%s]%s\n", b.ID, b.Kind, note)
			for _, stmt := range b.Stmts {
				n := prog.Node(stmt)
				fmt.Printf("  line %d: %s\n", n.Loc.Line, n.Kind)
			}
			var succs []string
			for _, e := range g.Edges {
				if e.From == b.ID {
					succs = append(succs, fmt.Sprintf("%d (%s)", e.To, e.Kind))
				}
			}
			if len(succs) > 0 {
				fmt.Printf("  -> %s\n", strings.Join(succs, ", "))
			}
		}
		return nil
	},
}

func init() {
	cfgCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(cfgCmd)
}
