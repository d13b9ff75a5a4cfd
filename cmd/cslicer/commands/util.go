package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/frontend"
)

// loadProgram parses a C file and returns the program together with the
// raw source, which output helpers and cache keys need.
func loadProgram(path string) (*ast.Program, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	prog, err := frontend.Parse(data, path)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	return prog, string(data), nil
}

// requireFunction resolves a function argument by name.
func requireFunction(prog *ast.Program, name, path string) (ast.NodeID, error) {
	fn := prog.FunctionByName(name)
	if fn == ast.NoNode {
		return ast.NoNode, fmt.Errorf("function %q not found in %s", name, path)
	}
	return fn, nil
}

// formatLineRanges renders sorted line numbers as compact ranges,
// e.g. "3-5, 9, 12-14".
func formatLineRanges(lines []int) string {
	if len(lines) == 0 {
		return "none"
	}

	var ranges []string
	start := lines[0]
	end := lines[0]
	for i := 1; i < len(lines); i++ {
		if lines[i] == end+1 {
			end = lines[i]
			continue
		}
		ranges = append(ranges, formatRange(start, end))
		start = lines[i]
		end = lines[i]
	}
	ranges = append(ranges, formatRange(start, end))
	return strings.Join(ranges, ", ")
}

func formatRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// printSourceWithHighlights prints the source lines of a span, marking
// the given lines.
func printSourceWithHighlights(source string, startLine, endLine int, marked []int) {
	lineSet := make(map[int]bool, len(marked))
	for _, l := range marked {
		lineSet[l] = true
	}

	all := strings.Split(source, "\n")
	for num := startLine; num <= endLine && num <= len(all); num++ {
		highlight := ""
		if lineSet[num] {
			highlight = " >>>"
		}
		fmt.Printf("%5d:%s %s\n", num, highlight, all[num-1])
	}
}
