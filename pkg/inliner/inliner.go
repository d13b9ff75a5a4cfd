// Package inliner replaces a call expression with a scope-safe copy of
// the callee's body: arguments bind to fresh temporaries in evaluation
// order, callee locals are alpha-renamed away from every name visible at
// the call site, returns normalize into a result temporary, and the
// inlined statements receive a deterministic, verifiable line range.
//
// The input program is never mutated; all rewriting happens on a clone.
package inliner

import (
	"errors"
	"fmt"

	"github.com/mekkanik/cslicer/internal/log"
	"github.com/mekkanik/cslicer/pkg/ast"
	"github.com/mekkanik/cslicer/pkg/callgraph"
	"github.com/mekkanik/cslicer/pkg/cfg"
)

var (
	// ErrUnknownFunction reports a callee with no declaration in the unit.
	ErrUnknownFunction = errors.New("callee is not declared in the analyzed unit")
	// ErrRecursiveInline reports direct or indirect recursion through the
	// callee's call graph; a single substitution cannot terminate it.
	ErrRecursiveInline = errors.New("recursive call chain cannot be inlined")
	// ErrRangeMismatch reports a computed line range disagreeing with the
	// caller-supplied expectation.
	ErrRangeMismatch = errors.New("inlined block range does not match expected range")
	// ErrCallNotFound reports that no inlinable call sits at the location.
	ErrCallNotFound = errors.New("no call expression at the given location")
)

// LineRange is an inclusive [Start, End] span of source lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Spec names the call to inline: its source location, the callee, and an
// optional pre-recorded range the result must occupy.
type Spec struct {
	CallSite      ast.Loc    `json:"call_site"`
	Callee        string     `json:"callee"`
	ExpectedRange *LineRange `json:"expected_range,omitempty"`
}

// Result is the rewritten program plus the positions assigned to every
// introduced statement and the occupied line range of the inlined block.
type Result struct {
	Program  *ast.Program           `json:"-"`
	StmtLocs map[ast.NodeID]ast.Loc `json:"stmt_locs"`
	Range    LineRange              `json:"range"`
	Warnings []string               `json:"warnings,omitempty"`
}

// Options tunes name generation for temporaries and renamed locals.
type Options struct {
	// Prefix seeds every generated name; defaults to "inl".
	Prefix string
}

// Inline expands the call named by spec inside a copy of prog.
func Inline(prog *ast.Program, spec Spec, opts Options) (*Result, error) {
	if opts.Prefix == "" {
		opts.Prefix = "inl"
	}

	caller := prog.EnclosingFunction(spec.CallSite)
	if caller == ast.NoNode {
		return nil, fmt.Errorf("location %s: %w", spec.CallSite.String(), ErrCallNotFound)
	}
	callerName := prog.Node(caller).Text

	calleeFn := prog.FunctionByName(spec.Callee)
	if calleeFn == ast.NoNode {
		return nil, fmt.Errorf("function %q: %w", spec.Callee, ErrUnknownFunction)
	}

	call := findCall(prog, prog.Body(caller), spec)
	if call == ast.NoNode {
		return nil, fmt.Errorf("location %s: %w", spec.CallSite.String(), ErrCallNotFound)
	}

	cg := callgraph.Build(prog)
	if callerName == spec.Callee || cg.Reaches(spec.Callee, spec.Callee) || cg.Reaches(spec.Callee, callerName) {
		return nil, fmt.Errorf("function %q: %w", spec.Callee, ErrRecursiveInline)
	}

	// all rewriting happens on the clone; node IDs carry over unchanged
	out := prog.Clone()
	x := &expansion{
		prog:   prog,
		out:    out,
		opts:   opts,
		caller: caller,
		callee: calleeFn,
		call:   call,
		locs:   make(map[ast.NodeID]ast.Loc),
	}
	if err := x.run(); err != nil {
		return nil, err
	}

	if spec.ExpectedRange != nil && *spec.ExpectedRange != x.occupied {
		return nil, fmt.Errorf("computed [%d, %d], expected [%d, %d]: %w",
			x.occupied.Start, x.occupied.End,
			spec.ExpectedRange.Start, spec.ExpectedRange.End, ErrRangeMismatch)
	}

	warnings := x.warnings
	if g := cfg.Build(prog, caller); g.HasUnreachable() {
		warnings = append(warnings, fmt.Sprintf("function %s contains unreachable code", callerName))
	}

	log.Default().Debug("inlined call", "callee", spec.Callee, "caller", callerName,
		"range_start", x.occupied.Start, "range_end", x.occupied.End)

	return &Result{
		Program:  out,
		StmtLocs: x.locs,
		Range:    x.occupied,
		Warnings: warnings,
	}, nil
}

// findCall locates the call to spec.Callee at spec.CallSite: the
// innermost call at the point when its callee matches, otherwise any
// matching call inside the statement holding the point.
func findCall(prog *ast.Program, body ast.NodeID, spec Spec) ast.NodeID {
	call := prog.CallAt(body, spec.CallSite)
	if call != ast.NoNode && calleeName(prog, call) == spec.Callee {
		return call
	}
	stmt := prog.StatementAt(body, spec.CallSite)
	if stmt == ast.NoNode {
		return ast.NoNode
	}
	found := ast.NoNode
	prog.Walk(stmt, func(id ast.NodeID) bool {
		if found == ast.NoNode && prog.Node(id).Kind == ast.KindCall && calleeName(prog, id) == spec.Callee {
			found = id
		}
		return found == ast.NoNode
	})
	return found
}

func calleeName(prog *ast.Program, call ast.NodeID) string {
	kids := prog.Node(call).Kids
	if len(kids) == 0 || kids[0] == ast.NoNode {
		return ""
	}
	callee := prog.Node(kids[0])
	if callee.Kind != ast.KindIdent {
		return ""
	}
	return callee.Text
}
