// Package compiler implements the top-level compile() entry point (spec
// §6): wiring Scope/Symbol Construction (4.D) through the Type-Size
// Validator (4.K) into a single ordered pipeline. The package is pure and
// side-effect-free — it never touches a filesystem, a clock, or a
// database; those belong to cmd/acec and internal/rundb.
package compiler

import (
	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/binder"
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/diag"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sema"
	"github.com/ace-lang/acec/internal/sym"
)

// Artifact is CompilationArtifact (spec §6's emitter contract): everything
// the emitter needs and nothing it must query the scope tree for again.
type Artifact struct {
	Arena     *sym.Arena
	Root      sym.ScopeID
	Functions []*sym.Symbol // every finalized function, original + instantiated + glue
	IRTypeOf  func(s *sym.Symbol) (string, bool)
}

// Compile runs the full pipeline (4.D through 4.K) over modules, using nat
// as the native-symbol catalog (already Init'd by the caller, since
// building it is the caller's one-time setup cost, not part of a single
// compilation). The first recoverable error short-circuits and is
// returned; FixedPointDiverged is not among them — sema.Stabilize panics
// on it instead, and only cmd/acec's top level recovers that panic (§9).
func Compile(modules []*ast.Module, nat *natives.Registry) (*Artifact, error) {
	arena := nat.Arena()
	root := nat.Root()

	if err := binder.ConstructSymbols(arena, modules); err != nil {
		return nil, diag.Wrap(nil, err)
	}
	if err := binder.Associate(arena, root, modules); err != nil {
		return nil, diag.Wrap(nil, err)
	}
	if err := binder.Bind(arena, nat, root, modules); err != nil {
		return nil, err
	}

	native := &binder.NativeInstantiator{Arena: arena, Natives: nat}
	inst := sema.NewInstantiator(arena, nat, native, modules)
	b := &binder.Binder{Arena: arena, Natives: nat, Inst: native}
	ctx := &bound.Context{Arena: arena, Natives: nat, Inst: inst}

	// Stabilizing a function can, mid-TypeCheck/Lower, instantiate a
	// user template (a Box or StructConstruction expression resolving a
	// TypeTemplate/FunctionTemplate) — that only queues the clone's body
	// for binding (4.I's deferred phase). Drain binds whatever is queued;
	// binding never itself triggers further instantiation (only
	// TypeCheck/Lower does), so newly bound bodies must go through their
	// own Stabilize pass before the next Drain can discover anything
	// further. The loop alternates the two until a Drain adds no new
	// functions.
	pending := arena.CollectAll(root, sym.Function)
	for len(pending) > 0 {
		for _, fn := range pending {
			if err := sema.Stabilize(ctx, fn); err != nil {
				return nil, err
			}
		}
		before := len(arena.CollectAll(root, sym.Function))
		if err := inst.Drain(b); err != nil {
			return nil, err
		}
		all := arena.CollectAll(root, sym.Function)
		if len(all) == before {
			break
		}
		pending = all[before:]
	}

	stabilized := arena.CollectAll(root, sym.Function)
	for _, fn := range stabilized {
		if err := sema.CheckControlFlow(fn); err != nil {
			return nil, err
		}
	}

	beforeGlue := len(arena.CollectAll(root, sym.Function))
	if err := sema.SynthesizeGlue(arena, root, nat, inst); err != nil {
		return nil, err
	}
	// Each glue function is bound ahead of time (SynthesizeGlue builds its
	// body directly), but it still has to run through the fixed-point
	// TypeCheck/Lower pass (4.G) exactly like a user function before (K)'s
	// size check can trust it.
	for _, fn := range arena.CollectAll(root, sym.Function)[beforeGlue:] {
		if err := sema.Stabilize(ctx, fn); err != nil {
			return nil, err
		}
	}
	if err := sema.ValidateSizes(arena, root); err != nil {
		return nil, err
	}

	return &Artifact{
		Arena:     arena,
		Root:      root,
		Functions: arena.CollectAll(root, sym.Function),
		IRTypeOf:  nat.IRTypeOf,
	}, nil
}
