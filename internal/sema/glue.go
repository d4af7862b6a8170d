package sema

import (
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

// glueSynthesizer holds the shared state SynthesizeGlue's recursive field
// walk needs: the arena to define functions into, Void's symbol (every
// glue function returns Void), the native Reference<T> template (dst/src
// params are references per spec.md 4.J), an instantiator to instantiate
// it, and a memo so a type visited through more than one containing
// struct gets its glue synthesized exactly once.
type glueSynthesizer struct {
	arena   *sym.Arena
	voidT   *sym.Symbol
	refTmpl *sym.Symbol
	inst    sym.Instantiator
	done    map[sym.ID]bool
}

// SynthesizeGlue runs Glue Synthesis (4.J) over every Struct symbol
// reachable from root: a copy_glue$<Name>/drop_glue$<Name> pair for every
// type except placeholders and Reference instances (eligibleForGlue).
// Trivial types, native ones included, get glue with trivial bodies;
// unsized types are not singled out. inst instantiates the Reference<T>
// wrapper dst/src parameters carry.
func SynthesizeGlue(arena *sym.Arena, root sym.ScopeID, nat *natives.Registry, inst sym.Instantiator) error {
	voidT, _ := nat.Type("Void")
	refTmpl, _ := nat.Template("Reference")
	g := &glueSynthesizer{arena: arena, voidT: voidT, refTmpl: refTmpl, inst: inst, done: map[sym.ID]bool{}}

	for _, t := range arena.CollectAll(root, sym.Struct) {
		if err := g.ensure(t); err != nil {
			return err
		}
	}
	return nil
}

func eligibleForGlue(t *sym.Symbol) bool {
	if t.IsPlaceholder() {
		return false
	}
	// Reference is the one native template whose instances are never
	// copied/dropped by value — a reference is a borrowed view, not an
	// owner — so it is the sole native type excluded here.
	if t.Template != nil && t.Template.Name == "Reference" {
		return false
	}
	return true
}

func (g *glueSynthesizer) ensure(t *sym.Symbol) error {
	if g.done[t.ID] || !eligibleForGlue(t) {
		return nil
	}
	g.done[t.ID] = true

	copyFn, err := g.buildGlue(t, true)
	if err != nil {
		return err
	}
	t.CopyGlue = copyFn

	dropFn, err := g.buildGlue(t, false)
	if err != nil {
		return err
	}
	t.DropGlue = dropFn
	return nil
}

// buildGlue synthesizes either copy_glue$<Name> or drop_glue$<Name> for t,
// choosing among the four cases 4.J distinguishes: trivial (direct
// load/store, or a no-op for drop), user operator delegation, or
// structural recursion over fields in declaration order (copy) or reverse
// declaration order (drop).
func (g *glueSynthesizer) buildGlue(t *sym.Symbol, isCopy bool) (*sym.Symbol, error) {
	prefix := "drop_glue$"
	if isCopy {
		prefix = "copy_glue$"
	}
	name := prefix + t.Name

	refT, err := g.inst.ResolveOrInstantiate(g.refTmpl, nil, []*sym.Symbol{t})
	if err != nil {
		return nil, err
	}

	self := g.arena.NewScope(t.Owner, name)
	dst := &sym.Symbol{Variant: sym.ParameterVar, Name: "dst", Owner: self, Type: refT, Index: 0}
	if err := g.arena.Define(dst); err != nil {
		return nil, err
	}
	params := []*sym.Symbol{dst}

	var src *sym.Symbol
	if isCopy {
		src = &sym.Symbol{Variant: sym.ParameterVar, Name: "src", Owner: self, Type: refT, Index: 1}
		if err := g.arena.Define(src); err != nil {
			return nil, err
		}
		params = append(params, src)
	}

	stmts, err := g.glueBody(t, dst, src, isCopy)
	if err != nil {
		return nil, err
	}

	fn := &sym.Symbol{
		Variant: sym.Function, Name: name, Owner: t.Owner, Access: sym.Public,
		Self: self, Native: true, ReturnType: g.voidT, Params: params,
		Body: &sym.Emittable{Block: &bound.Block{Stmts: stmts}},
	}
	if err := g.arena.Define(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

func (g *glueSynthesizer) glueBody(t, dst, src *sym.Symbol, isCopy bool) ([]bound.Stmt, error) {
	switch {
	case isCopy && t.Trivial.Copyable():
		return []bound.Stmt{&bound.Assignment{Op: bound.AssignNormal, LHS: varRef(dst), RHS: varRef(src)}}, nil
	case !isCopy && t.Trivial.Droppable():
		return nil, nil
	case isCopy && t.UserCopy != nil:
		call := &bound.InstanceCall{Object: varRef(dst), Fn: t.UserCopy, Args: []bound.Expr{varRef(src)}}
		return []bound.Stmt{&bound.ExprStmt{Value: call}}, nil
	case !isCopy && t.UserDrop != nil:
		call := &bound.InstanceCall{Object: varRef(dst), Fn: t.UserDrop}
		return []bound.Stmt{&bound.ExprStmt{Value: call}}, nil
	default:
		return g.structuralGlue(t, dst, src, isCopy)
	}
}

// structuralGlue sequences a call to each field's own glue function,
// declaration order for copy and reverse declaration order for drop
// (4.J), recursing to synthesize that field's glue first if it has not
// been visited yet.
func (g *glueSynthesizer) structuralGlue(t, dst, src *sym.Symbol, isCopy bool) ([]bound.Stmt, error) {
	fields := g.arena.CollectDefined(t.Self, sym.InstanceVar)
	order := make([]*sym.Symbol, len(fields))
	for i, f := range fields {
		order[i] = f
	}
	if !isCopy {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	var stmts []bound.Stmt
	for _, f := range order {
		ft := f.Type
		if ft == nil {
			continue
		}
		if err := g.ensure(ft); err != nil {
			return nil, err
		}
		if !eligibleForGlue(ft) {
			continue
		}
		args := []bound.Expr{fieldAccess(dst, f)}
		var fn *sym.Symbol
		if isCopy {
			fn = ft.CopyGlue
			args = append(args, fieldAccess(src, f))
		} else {
			fn = ft.DropGlue
		}
		if fn == nil {
			continue
		}
		stmts = append(stmts, &bound.ExprStmt{Value: &bound.StaticCall{Fn: fn, Args: args}})
	}
	return stmts, nil
}

func varRef(s *sym.Symbol) bound.Expr {
	return &bound.VarRef{Base: bound.Base{TI: sym.TypeInfo{Type: s.Type.Referent(), ValueKind: sym.LValue}}, Sym: s}
}

func fieldAccess(obj *sym.Symbol, field *sym.Symbol) bound.Expr {
	return &bound.FieldAccess{
		Base:   bound.Base{TI: sym.TypeInfo{Type: field.Type, ValueKind: sym.LValue}},
		Object: varRef(obj),
		Field:  field,
	}
}
