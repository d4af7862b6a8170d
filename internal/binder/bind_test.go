package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

func newBindArena(t *testing.T) (*sym.Arena, *natives.Registry) {
	t.Helper()
	arena := sym.NewArena()
	nat, err := natives.Init(arena, arena.Root())
	require.NoError(t, err)
	return arena, nat
}

func intName() *ast.Name {
	return &ast.Name{Sections: []ast.NameSection{{Identifier: "Int"}}}
}

func TestBind_FunctionWithVarDeclAndReturn(t *testing.T) {
	arena, nat := newBindArena(t)
	modSelf := arena.NewScope(nat.Root(), "m")
	fnSelf := arena.NewScope(modSelf, "f")

	fn := &ast.Function{
		Scoped: ast.Scoped{Base: ast.Base{Scope: modSelf}, Self: fnSelf},
		Name:   "f", ReturnType: intName(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "x", Init: &ast.Literal{Kind: ast.LitInt, Text: "1"}},
			&ast.Return{Value: &ast.SymbolRef{Name: &ast.Name{Sections: []ast.NameSection{{Identifier: "x"}}}}},
		}},
	}
	mod := &ast.Module{Scoped: ast.Scoped{Base: ast.Base{Scope: nat.Root()}, Self: modSelf}, Name: "m", Decls: []ast.Decl{fn}}

	require.NoError(t, ConstructSymbols(arena, []*ast.Module{mod}))
	require.NoError(t, Bind(arena, nat, nat.Root(), []*ast.Module{mod}))

	fnSym := arena.FindBySelf(fnSelf)
	require.NotNil(t, fnSym.Body)
	require.Len(t, fnSym.Body.Block.Stmts, 2)

	decl := fnSym.Body.Block.Stmts[0].(*bound.VarDecl)
	assert.Equal(t, "x", decl.Sym.Name)
	intT, _ := nat.Type("Int")
	assert.Same(t, intT, decl.Sym.Type)

	ret := fnSym.Body.Block.Stmts[1].(*bound.Return)
	varRef := ret.Value.(*bound.VarRef)
	assert.Same(t, decl.Sym, varRef.Sym)
}

func TestBind_ReturnTypeMismatchErrors(t *testing.T) {
	arena, nat := newBindArena(t)
	modSelf := arena.NewScope(nat.Root(), "m")
	fnSelf := arena.NewScope(modSelf, "f")
	boolName := &ast.Name{Sections: []ast.NameSection{{Identifier: "Bool"}}}

	fn := &ast.Function{
		Scoped: ast.Scoped{Base: ast.Base{Scope: modSelf}, Self: fnSelf},
		Name:   "f", ReturnType: boolName,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.Return{Value: &ast.Literal{Kind: ast.LitInt, Text: "1"}},
		}},
	}
	mod := &ast.Module{Scoped: ast.Scoped{Base: ast.Base{Scope: nat.Root()}, Self: modSelf}, Name: "m", Decls: []ast.Decl{fn}}

	require.NoError(t, ConstructSymbols(arena, []*ast.Module{mod}))
	err := Bind(arena, nat, nat.Root(), []*ast.Module{mod})
	require.Error(t, err)
}

func TestBind_AssignmentToNonLvalueErrors(t *testing.T) {
	arena, nat := newBindArena(t)
	modSelf := arena.NewScope(nat.Root(), "m")
	fnSelf := arena.NewScope(modSelf, "f")

	fn := &ast.Function{
		Scoped: ast.Scoped{Base: ast.Base{Scope: modSelf}, Self: fnSelf},
		Name:   "f",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.Assignment{LHS: &ast.Literal{Kind: ast.LitInt, Text: "1"}, RHS: &ast.Literal{Kind: ast.LitInt, Text: "2"}},
		}},
	}
	mod := &ast.Module{Scoped: ast.Scoped{Base: ast.Base{Scope: nat.Root()}, Self: modSelf}, Name: "m", Decls: []ast.Decl{fn}}

	require.NoError(t, ConstructSymbols(arena, []*ast.Module{mod}))
	err := Bind(arena, nat, nat.Root(), []*ast.Module{mod})
	require.Error(t, err)
}

func TestBind_WhileCarriesOwningScopeForLabelAllocation(t *testing.T) {
	arena, nat := newBindArena(t)
	modSelf := arena.NewScope(nat.Root(), "m")
	fnSelf := arena.NewScope(modSelf, "f")

	fn := &ast.Function{
		Scoped: ast.Scoped{Base: ast.Base{Scope: modSelf}, Self: fnSelf},
		Name:   "f",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.While{Cond: &ast.Literal{Kind: ast.LitBool, Text: "true"}, Body: &ast.Block{}},
		}},
	}
	mod := &ast.Module{Scoped: ast.Scoped{Base: ast.Base{Scope: nat.Root()}, Self: modSelf}, Name: "m", Decls: []ast.Decl{fn}}

	require.NoError(t, ConstructSymbols(arena, []*ast.Module{mod}))
	require.NoError(t, Bind(arena, nat, nat.Root(), []*ast.Module{mod}))

	fnSym := arena.FindBySelf(fnSelf)
	w := fnSym.Body.Block.Stmts[0].(*bound.While)
	assert.Equal(t, fnSelf, w.Scope)
}
