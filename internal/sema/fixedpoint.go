package sema

import (
	"fmt"

	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/sym"
)

// maxFixedPointIterations bounds the outer loop (4.G). Every lowering this
// pipeline performs (While and Assert rewriting) strictly shrinks the set
// of not-yet-lowered constructs in a function body, so a well-formed
// program converges in one or two outer iterations; eight is headroom, not
// a tuned limit.
const maxFixedPointIterations = 8

// FixedPointDivergedError marks a function body that failed to reach a
// fixed point within maxFixedPointIterations. spec.md §9 treats this as a
// compiler-internal invariant violation rather than a diagnosable source
// error, so Stabilize panics with it instead of returning it — only
// cmd/acec's top level recovers from it.
type FixedPointDivergedError struct {
	Function string
}

func (e *FixedPointDivergedError) Error() string {
	return fmt.Sprintf("fixed-point transform diverged on function %q after %d iterations", e.Function, maxFixedPointIterations)
}

// Stabilize runs the fixed-point transformer (4.G) over fn's body:
// type-check, lower, type-check again, repeating the whole three-step
// sequence until the final type-check step alone reports no change. Each
// step's error return is a genuine diagnosable compile error and is
// returned normally; only non-convergence panics.
func Stabilize(ctx *bound.Context, fn *sym.Symbol) error {
	if fn.Body == nil || fn.Body.Block == nil {
		return nil
	}
	block := fn.Body.Block.(*bound.Block)

	for i := 0; i < maxFixedPointIterations; i++ {
		b1, err := block.TypeCheck(ctx)
		if err != nil {
			return err
		}
		b2, err := b1.Node.(*bound.Block).Lower(ctx)
		if err != nil {
			return err
		}
		b3, err := b2.Node.(*bound.Block).TypeCheck(ctx)
		if err != nil {
			return err
		}
		block = b3.Node.(*bound.Block)
		if !b3.Changed {
			fn.Body.Block = block
			return nil
		}
	}
	panic(&FixedPointDivergedError{Function: fn.Name})
}
