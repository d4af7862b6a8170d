package binder

import (
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/sym"
)

// Ranker implements sym.ConversionRanker using the native conversion
// tables plus user-defined `op_implicit_from` operators, so overload
// selection (4.A) can rank candidates the same way the binder itself
// would resolve an implicit conversion.
type Ranker struct {
	Arena   *sym.Arena
	Natives interimNatives
}

// interimNatives is the narrow slice of *natives.Registry the ranker and
// conversion search need; kept as an interface so this file doesn't need
// to repeat the natives import in every signature.
type interimNatives interface {
	ImplicitConversion(from, to *sym.Symbol) (*sym.Symbol, bool)
	ExplicitConversion(from, to *sym.Symbol) (*sym.Symbol, bool)
}

func (r *Ranker) Rank(from, to *sym.Symbol) sym.ConversionRank {
	if from == to {
		return sym.RankExact
	}
	if _, ok := r.Natives.ImplicitConversion(from, to); ok {
		return sym.RankImplicitNative
	}
	if _, ok := findUserConversion(r.Arena, to, "op_implicit_from", from); ok {
		return sym.RankImplicitUser
	}
	// Address-of-then-recurse (4.F step 4): an argument ranks against a
	// Reference<T> parameter the same way it would against T itself — this
	// is how every instance-method call ranks against its own self
	// parameter, since self is declared Reference<Self> but withSelf always
	// supplies the bare receiver type as its argument.
	if to.IsReference() {
		return r.Rank(from, to.Referent())
	}
	return sym.RankNoConversion
}

// findUserConversion looks for a static `name` function on to's self-scope
// taking exactly one parameter of type from.
func findUserConversion(arena *sym.Arena, to *sym.Symbol, name string, from *sym.Symbol) (*sym.Symbol, bool) {
	if to == nil || to.Self == sym.NoScope {
		return nil, false
	}
	for _, cand := range arena.Lookup(to.Self, name) {
		if cand.Variant == sym.Function && !cand.Instance && len(cand.Params) == 1 && cand.Params[0].Type == from {
			return cand, true
		}
	}
	return nil, false
}

// findDeref reports whether from has a zero-argument instance "value"
// accessor (StrongPointer<T>/WeakPointer<T>'s unwrap shape) and, if so,
// the type it produces.
func findDeref(arena *sym.Arena, from *sym.Symbol) (*sym.Symbol, *sym.Symbol, bool) {
	if from == nil || from.Self == sym.NoScope {
		return nil, nil, false
	}
	for _, cand := range arena.Lookup(from.Self, "value") {
		if cand.Variant == sym.Function && cand.Instance && len(cand.Params) == 1 {
			return cand, cand.ReturnType, true
		}
	}
	return nil, nil, false
}

// FindImplicitConversion implements 4.F's implicit-conversion search order:
// native map, then user `op_implicit_from`, then deref-then-recurse, then
// address-of-then-recurse. It returns the rewritten expression (a
// ConversionPlaceholder/AddressOf wrapper, or expr unchanged if already of
// type to) and whether a path was found at all.
func (b *Binder) FindImplicitConversion(expr bound.Expr, to *sym.Symbol) (bound.Expr, bool) {
	from := expr.Type().Type
	if from == to {
		return expr, true
	}
	if fn, ok := b.Natives.ImplicitConversion(from, to); ok {
		return wrapConversionCall(expr, to, fn), true
	}
	if fn, ok := findUserConversion(b.Arena, to, "op_implicit_from", from); ok {
		return wrapConversionCall(expr, to, fn), true
	}
	if _, derefType, ok := findDeref(b.Arena, from); ok {
		derefed := bound.Expr(&bound.ConversionPlaceholder{
			Base:    bound.Base{Rng: expr.Range(), TI: sym.TypeInfo{Type: derefType, ValueKind: sym.RValue}},
			Operand: expr, Deref: true,
		})
		if conv, ok := b.FindImplicitConversion(derefed, to); ok {
			return conv, true
		}
	}
	// Address-of-then-recurse (4.F step 4): an L-value expr can bind to a
	// Reference<from> parameter/field without an explicit `&`, since the
	// call site never spells the reference out itself.
	if refTmpl, ok := b.Natives.Template("Reference"); ok && to.Template == refTmpl && expr.Type().ValueKind == sym.LValue {
		if refType, err := b.Inst.ResolveOrInstantiate(refTmpl, nil, []*sym.Symbol{from}); err == nil {
			addressed := bound.Expr(&bound.ConversionPlaceholder{
				Base:    bound.Base{Rng: expr.Range(), TI: sym.TypeInfo{Type: refType, ValueKind: sym.RValue}},
				Operand: expr, AddrOf: true,
			})
			if conv, ok := b.FindImplicitConversion(addressed, to); ok {
				return conv, true
			}
		}
	}
	return nil, false
}

// FindExplicitConversion extends FindImplicitConversion with the native
// and user "explicit" conversion sources (lossy numeric casts, `as`).
func (b *Binder) FindExplicitConversion(expr bound.Expr, to *sym.Symbol) (bound.Expr, bool) {
	if conv, ok := b.FindImplicitConversion(expr, to); ok {
		return conv, ok
	}
	from := expr.Type().Type
	if fn, ok := b.Natives.ExplicitConversion(from, to); ok {
		return wrapConversionCall(expr, to, fn), true
	}
	if fn, ok := findUserConversion(b.Arena, to, "op_explicit_from", from); ok {
		return wrapConversionCall(expr, to, fn), true
	}
	return nil, false
}

func wrapConversionCall(expr bound.Expr, to *sym.Symbol, fn *sym.Symbol) bound.Expr {
	return &bound.ConversionPlaceholder{
		Base:    bound.Base{Rng: expr.Range(), TI: sym.TypeInfo{Type: to, ValueKind: sym.RValue}},
		Operand: expr, Fn: fn,
	}
}
