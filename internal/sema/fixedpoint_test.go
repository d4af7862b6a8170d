package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

// everChangingStmt never reaches a fixed point: every TypeCheck/Lower call
// reports Changed, exercising Stabilize's divergence panic.
type everChangingStmt struct {
	bound.StmtBase
}

func (s *everChangingStmt) Children() []bound.Node                        { return nil }
func (s *everChangingStmt) TypeCheck(ctx *bound.Context) (bound.Result, error) { return bound.Changed(s), nil }
func (s *everChangingStmt) Lower(ctx *bound.Context) (bound.Result, error)     { return bound.Changed(s), nil }

func testContext(t *testing.T) (*bound.Context, *sym.Arena) {
	t.Helper()
	arena := sym.NewArena()
	nat, err := natives.Init(arena, arena.Root())
	require.NoError(t, err)
	return &bound.Context{Arena: arena, Natives: nat}, arena
}

func TestStabilize_NoBodyIsNoop(t *testing.T) {
	ctx, arena := testContext(t)
	fn := &sym.Symbol{Variant: sym.Function, Name: "extern", Owner: arena.Root()}
	assert.NoError(t, Stabilize(ctx, fn))
}

func TestStabilize_ConvergesLoweringWhileOnce(t *testing.T) {
	ctx, arena := testContext(t)
	voidT, _ := ctx.Natives.Type("Void")
	self := arena.NewScope(arena.Root(), "f")
	fn := &sym.Symbol{Variant: sym.Function, Name: "f", Owner: arena.Root(), Self: self, ReturnType: voidT}

	loop := &bound.While{
		Cond:  &bound.Literal{},
		Body:  &bound.Block{Stmts: nil},
		Scope: self,
	}
	fn.Body = &sym.Emittable{Block: &bound.Block{Stmts: []bound.Stmt{loop}}}

	require.NoError(t, Stabilize(ctx, fn))

	block := fn.Body.Block.(*bound.Block)
	// Lowering must have replaced the While with its label/jump expansion.
	assert.Greater(t, len(block.Stmts), 1)
	_, stillWhile := block.Stmts[0].(*bound.While)
	assert.False(t, stillWhile)
}

func TestStabilize_DivergesPanics(t *testing.T) {
	ctx, arena := testContext(t)
	fn := &sym.Symbol{Variant: sym.Function, Name: "f", Owner: arena.Root()}
	fn.Body = &sym.Emittable{Block: &bound.Block{Stmts: []bound.Stmt{&everChangingStmt{}}}}

	assert.PanicsWithValue(t, &FixedPointDivergedError{Function: "f"}, func() {
		_ = Stabilize(ctx, fn)
	})
}
