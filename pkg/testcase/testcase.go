// Package testcase loads fixture-driven cases for slicing and inlining.
// A case file's first line holds a descriptor after a "TEST:" marker and
// the remaining lines are the expected tool output. The descriptor names
// the input source file, so one input can back many cases.
package testcase

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mekkanik/cslicer/pkg/ast"
)

const marker = "TEST:"

// ErrNoDescriptor reports a case file without a descriptor line.
var ErrNoDescriptor = errors.New("first line carries no TEST descriptor")

// Kind tells which operation a case exercises, derived from the file
// name prefix.
type Kind string

const (
	KindSlice  Kind = "slice"
	KindInline Kind = "inline"
)

// point decodes the descriptor's two-element [line, col] arrays. Both
// coordinates are 1-based in case files.
type point ast.Loc

func (p *point) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.Line, p.Col = pair[0], pair[1]
	return nil
}

// LineSpan decodes the descriptor's two-element [startLine, endLine]
// arrays.
type LineSpan struct {
	Start int
	End   int
}

func (s *LineSpan) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// SliceCase asks for a slice on Var at Point of Source. Var doubles as a
// sanity check that Point really is on that variable.
type SliceCase struct {
	Source    string `json:"source"`
	Point     point  `json:"point"`
	Var       string `json:"var"`
	Direction string `json:"direction"`
}

// InlineCase asks for the call to Func at Point of Source to be expanded
// in place. Target is the line range the inlined block must occupy
// afterwards, checked against the result.
type InlineCase struct {
	Source string   `json:"source"`
	Point  point    `json:"point"`
	Func   string   `json:"func"`
	Target LineSpan `json:"target"`
}

// Case is one loaded fixture: the descriptor plus the expected output
// text that follows it.
type Case struct {
	Path     string
	Kind     Kind
	Slice    *SliceCase
	Inline   *InlineCase
	Expected string
}

// Criterion returns the descriptor's point as a location usable against
// a parsed program.
func (c *Case) Criterion() ast.Loc {
	if c.Kind == KindSlice {
		return ast.Loc(c.Slice.Point)
	}
	return ast.Loc(c.Inline.Point)
}

// SourcePath resolves the input file named by the descriptor relative to
// the case file.
func (c *Case) SourcePath() string {
	name := ""
	switch c.Kind {
	case KindSlice:
		name = c.Slice.Source
	case KindInline:
		name = c.Inline.Source
	}
	return filepath.Join(filepath.Dir(c.Path), name)
}

// Load reads one case file.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}

	text := string(data)
	first, rest, _ := strings.Cut(text, "\n")
	_, desc, found := strings.Cut(first, marker)
	if !found {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDescriptor)
	}

	c := &Case{Path: path, Expected: strings.TrimRight(rest, "\n")}
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, string(KindSlice)):
		c.Kind = KindSlice
		c.Slice = &SliceCase{}
		if err := json.Unmarshal([]byte(desc), c.Slice); err != nil {
			return nil, fmt.Errorf("%s: decode slice descriptor: %w", path, err)
		}
	case strings.HasPrefix(base, string(KindInline)):
		c.Kind = KindInline
		c.Inline = &InlineCase{}
		if err := json.Unmarshal([]byte(desc), c.Inline); err != nil {
			return nil, fmt.Errorf("%s: decode inline descriptor: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: name does not start with slice or inline: %w", path, ErrNoDescriptor)
	}
	return c, nil
}

// LoadDir loads every case file in dir, sorted by name. Files without a
// recognized prefix or descriptor are skipped.
func LoadDir(dir string) ([]*Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read case dir: %w", err)
	}

	var cases []*Case
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, string(KindSlice)) && !strings.HasPrefix(name, string(KindInline)) {
			continue
		}
		c, err := Load(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, ErrNoDescriptor) {
				continue
			}
			return nil, err
		}
		cases = append(cases, c)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Path < cases[j].Path })
	return cases, nil
}
