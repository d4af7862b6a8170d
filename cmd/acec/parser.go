package main

import "github.com/ace-lang/acec/internal/ast"

// Parser is the external lexer/parser contract (spec.md §6): acec's core
// consumes ast.Module trees but never produces them itself. The driver
// depends on this narrow interface rather than a concrete implementation
// so it links and its flag/discovery logic can be tested without a real
// front-end attached.
type Parser interface {
	Parse(path string) (*ast.Module, error)
}
