package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/pkg/callgraph"
)

var callsCmd = &cobra.Command{
	Use:   "calls <file> [--from A --to B] [--json]",
	Short: "Show the call graph of a file",
	Long: `List caller/callee pairs for every function defined in the file. With
--from and --to, additionally report whether the first function can reach
the second through any call chain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		prog, _, err := loadProgram(filePath)
		if err != nil {
			return err
		}
		g := callgraph.Build(prog)

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if (from == "") != (to == "") {
			return fmt.Errorf("--from and --to must be used together")
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output := struct {
				Edges   []callgraph.Edge `json:"edges"`
				From    string           `json:"from,omitempty"`
				To      string           `json:"to,omitempty"`
				Reaches *bool            `json:"reaches,omitempty"`
			}{Edges: g.Edges}
			if from != "" {
				r := g.Reaches(from, to)
				output.From, output.To, output.Reaches = from, to, &r
			}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== Call graph: %s ===\n", filePath)
		if len(g.Edges) == 0 {
			fmt.Println("no calls between defined functions")
		}
		for _, e := range g.Edges {
			fmt.Printf("%s -> %s\n", e.Caller, e.Callee)
		}
		if from != "" {
			if g.Reaches(from, to) {
				fmt.Printf("\n%s reaches %s\n", from, to)
			} else {
				fmt.Printf("\n%s does not reach %s\n", from, to)
			}
		}
		return nil
	},
}

func init() {
	callsCmd.Flags().String("from", "", "Caller to start reachability from")
	callsCmd.Flags().String("to", "", "Callee to test reachability to")
	callsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(callsCmd)
}
