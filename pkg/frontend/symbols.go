package frontend

import "github.com/mekkanik/cslicer/pkg/ast"

// scopeStack resolves names lexically while building a function. The
// bottom scope holds file-scope names; pushes mirror compound statements.
type scopeStack struct {
	scopes []map[string]ast.SymbolID
}

func newScopeStack() *scopeStack {
	return &scopeStack{scopes: []map[string]ast.SymbolID{make(map[string]ast.SymbolID)}}
}

func (s *scopeStack) push() {
	s.scopes = append(s.scopes, make(map[string]ast.SymbolID))
}

func (s *scopeStack) pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// declare adds a symbol to the innermost scope. Redeclaration in the same
// scope shadows in place, matching C's one-definition-per-scope rule as
// far as the analyses care.
func (s *scopeStack) declare(prog *ast.Program, sym ast.Symbol) ast.SymbolID {
	id := prog.AddSymbol(sym)
	s.scopes[len(s.scopes)-1][sym.Name] = id
	return id
}

// declareGlobal adds a symbol to the file scope, used for names with no
// visible declaration (macro constants, library functions).
func (s *scopeStack) declareGlobal(prog *ast.Program, sym ast.Symbol) ast.SymbolID {
	id := prog.AddSymbol(sym)
	s.scopes[0][sym.Name] = id
	return id
}

// lookup resolves a name innermost-first, returning NoSymbol on a miss.
func (s *scopeStack) lookup(name string) ast.SymbolID {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if id, ok := s.scopes[i][name]; ok {
			return id
		}
	}
	return ast.NoSymbol
}
