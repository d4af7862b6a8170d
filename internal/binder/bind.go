package binder

import (
	"errors"

	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/diag"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

// Binder carries the dependencies the Binding pass (4.F) needs to resolve
// names and conversions: the scope/symbol arena, the native catalog, and a
// native-only instantiator for template type references appearing
// directly in signatures (see NativeInstantiator's doc comment).
type Binder struct {
	Arena   *sym.Arena
	Natives *natives.Registry
	Inst    *NativeInstantiator
}

// Bind runs the Binding pass (4.F) over every already-associated module in
// roots: module-level function bodies and plain impl-block method bodies.
// Function-template bodies and templated-impl method bodies are bound
// individually, later, when their owning template is instantiated (4.I) —
// see BindFunction, which the instantiator calls directly.
func Bind(arena *sym.Arena, nat *natives.Registry, root sym.ScopeID, roots []*ast.Module) error {
	b := &Binder{Arena: arena, Natives: nat, Inst: &NativeInstantiator{Arena: arena, Natives: nat}}
	return b.bindForest(root, roots)
}

func (b *Binder) bindForest(root sym.ScopeID, mods []*ast.Module) error {
	for _, m := range mods {
		var nested []*ast.Module
		for _, d := range m.Decls {
			switch dd := d.(type) {
			case *ast.Module:
				nested = append(nested, dd)
			case *ast.Function:
				if err := b.BindFunction(dd, nil); err != nil {
					return err
				}
			case *ast.Impl:
				target, err := resolveTypeName(b.Arena, root, dd.TargetType)
				if err != nil {
					return err
				}
				for _, fn := range dd.Functions {
					if err := b.BindFunction(fn, target); err != nil {
						return err
					}
				}
			}
		}
		if err := b.bindForest(root, nested); err != nil {
			return err
		}
	}
	return nil
}

// BindFunction binds one function declaration's signature and (if present)
// body. selfType is nil for a static function; for an instance function it
// is the enclosing type self resolves to once named inside the body — the
// self parameter's declared Type is Reference<selfType> (SPEC_FULL.md §5),
// so naming self still yields an L-value of selfType itself (sym.Referent).
func (b *Binder) BindFunction(fn *ast.Function, selfType *sym.Symbol) error {
	s := b.Arena.FindBySelf(fn.SelfScope())
	if s == nil {
		return diag.New(diag.UnresolvedSymbol, fn, "function %q has no constructed symbol", fn.Name)
	}
	ret, err := b.resolveTypeRef(fn.SelfScope(), fn.ReturnType)
	if err != nil {
		return diag.Wrap(fn, err)
	}
	s.ReturnType = ret

	offset := 0
	if fn.IsInstance {
		selfRef, err := b.referenceOf(selfType)
		if err != nil {
			return diag.Wrap(fn, err)
		}
		s.Params[0].Type = selfRef
		offset = 1
	}
	for i, p := range fn.Params {
		pt, err := b.resolveTypeRef(fn.SelfScope(), p.TypeName)
		if err != nil {
			return diag.Wrap(fn, err)
		}
		s.Params[offset+i].Type = pt
	}

	if fn.Body == nil {
		return nil
	}
	blk, err := b.bindBlock(fn.SelfScope(), selfType, s, fn.Body)
	if err != nil {
		return err
	}
	s.Body = &sym.Emittable{Block: blk}
	return nil
}

func (b *Binder) resolveTypeRef(scope sym.ScopeID, name *ast.Name) (*sym.Symbol, error) {
	if name == nil {
		t, _ := b.Natives.Type("Void")
		return t, nil
	}
	sections := make([]sym.Section, len(name.Sections))
	for i, sec := range name.Sections {
		sections[i] = sym.Section{Identifier: sec.Identifier}
		if len(sec.TemplateArgs) > 0 {
			args := make([]*sym.Symbol, len(sec.TemplateArgs))
			for j, a := range sec.TemplateArgs {
				at, err := b.resolveTypeRef(scope, a)
				if err != nil {
					return nil, err
				}
				args[j] = at
			}
			sections[i].TemplateArgs = args
		}
	}
	return b.Arena.ResolveStatic(scope, sections, nil, b.Inst)
}

func (b *Binder) boolType() *sym.Symbol {
	t, _ := b.Natives.Type("Bool")
	return t
}

// referenceOf instantiates the native Reference<T> template over t, the
// type every self and Reference-typed parameter carries (SPEC_FULL.md §5).
func (b *Binder) referenceOf(t *sym.Symbol) (*sym.Symbol, error) {
	refTmpl, ok := b.Natives.Template("Reference")
	if !ok {
		return nil, errors.New("native Reference template not registered")
	}
	return b.Inst.ResolveOrInstantiate(refTmpl, nil, []*sym.Symbol{t})
}

// --- Statements ---

func (b *Binder) bindBlock(scope sym.ScopeID, selfType *sym.Symbol, fnSym *sym.Symbol, blk *ast.Block) (*bound.Block, error) {
	out := make([]bound.Stmt, 0, len(blk.Stmts))
	for _, st := range blk.Stmts {
		bs, err := b.bindStmt(scope, selfType, fnSym, st)
		if err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return &bound.Block{Rng: rangeOf(blk), Stmts: out}, nil
}

func (b *Binder) bindStmt(scope sym.ScopeID, selfType *sym.Symbol, fnSym *sym.Symbol, st ast.Stmt) (bound.Stmt, error) {
	switch s := st.(type) {
	case *ast.Block:
		return b.bindBlock(scope, selfType, fnSym, s)

	case *ast.If:
		cond, err := b.bindExpr(scope, selfType, s.Cond)
		if err != nil {
			return nil, err
		}
		cond, err = b.convertOrError(s.Cond, cond, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		then, err := b.bindBlock(scope, selfType, fnSym, s.Then)
		if err != nil {
			return nil, err
		}
		var otherwise *bound.Block
		if s.Otherwise != nil {
			otherwise, err = b.bindBlock(scope, selfType, fnSym, s.Otherwise)
			if err != nil {
				return nil, err
			}
		}
		return &bound.If{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Cond: cond, Then: then, Otherwise: otherwise}, nil

	case *ast.While:
		cond, err := b.bindExpr(scope, selfType, s.Cond)
		if err != nil {
			return nil, err
		}
		cond, err = b.convertOrError(s.Cond, cond, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		body, err := b.bindBlock(scope, selfType, fnSym, s.Body)
		if err != nil {
			return nil, err
		}
		return &bound.While{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Cond: cond, Body: body, Scope: scope}, nil

	case *ast.Return:
		if s.Value == nil {
			return &bound.Return{StmtBase: bound.StmtBase{Rng: rangeOf(s)}}, nil
		}
		val, err := b.bindExpr(scope, selfType, s.Value)
		if err != nil {
			return nil, err
		}
		val, err = b.convertOrError(s.Value, val, fnSym.ReturnType, diag.ReturnTypeMismatch)
		if err != nil {
			return nil, err
		}
		return &bound.Return{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Value: val}, nil

	case *ast.Assert:
		cond, err := b.bindExpr(scope, selfType, s.Cond)
		if err != nil {
			return nil, err
		}
		cond, err = b.convertOrError(s.Cond, cond, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		return &bound.Assert{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Cond: cond}, nil

	case *ast.Assignment:
		lhs, err := b.bindExpr(scope, selfType, s.LHS)
		if err != nil {
			return nil, err
		}
		if lhs.Type().ValueKind != sym.LValue {
			return nil, diag.New(diag.UnexpectedValueKind, s.LHS, "assignment target must be an lvalue")
		}
		rhs, err := b.bindExpr(scope, selfType, s.RHS)
		if err != nil {
			return nil, err
		}
		rhs, err = b.convertOrError(s.RHS, rhs, lhs.Type().Type, diag.NoImplicitConversion)
		if err != nil {
			return nil, err
		}
		return &bound.Assignment{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Op: bound.AssignOp(s.Op), LHS: lhs, RHS: rhs}, nil

	case *ast.ExprStmt:
		val, err := b.bindExpr(scope, selfType, s.Value)
		if err != nil {
			return nil, err
		}
		return &bound.ExprStmt{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Value: val}, nil

	case *ast.LabelStmt:
		if len(b.Arena.Lookup(scope, s.Name)) == 0 {
			_ = b.Arena.Define(&sym.Symbol{Variant: sym.Label, Name: s.Name, Owner: scope})
		}
		return &bound.LabelStmt{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Name: s.Name}, nil

	case *ast.NormalJump:
		return &bound.NormalJump{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Target: s.Target}, nil

	case *ast.ConditionalJump:
		cond, err := b.bindExpr(scope, selfType, s.Cond)
		if err != nil {
			return nil, err
		}
		return &bound.ConditionalJump{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Cond: cond, Target: s.Target}, nil

	case *ast.VarDecl:
		var declared *sym.Symbol
		var err error
		if s.TypeName != nil {
			declared, err = b.resolveTypeRef(scope, s.TypeName)
			if err != nil {
				return nil, diag.Wrap(s, err)
			}
		}
		var init bound.Expr
		if s.Init != nil {
			init, err = b.bindExpr(scope, selfType, s.Init)
			if err != nil {
				return nil, err
			}
			if declared == nil {
				declared = init.Type().Type
			} else {
				init, err = b.convertOrError(s.Init, init, declared, diag.NoImplicitConversion)
				if err != nil {
					return nil, err
				}
			}
		}
		vs := &sym.Symbol{Variant: sym.LocalVar, Name: s.Name, Owner: scope, Type: declared}
		if err := b.Arena.Define(vs); err != nil {
			return nil, diag.Wrap(s, err)
		}
		return &bound.VarDecl{StmtBase: bound.StmtBase{Rng: rangeOf(s)}, Sym: vs, Init: init}, nil
	}
	return nil, diag.New(diag.UnresolvedSymbol, st, "unhandled statement kind")
}

// convertOrError applies FindImplicitConversion and reports kind as a
// diag.Error located at n if no conversion path exists.
func (b *Binder) convertOrError(n ast.Node, expr bound.Expr, to *sym.Symbol, kind diag.Kind) (bound.Expr, error) {
	conv, ok := b.FindImplicitConversion(expr, to)
	if !ok {
		return nil, diag.New(kind, n, "cannot convert %q to %q", expr.Type().Type.Name, to.Name)
	}
	return conv, nil
}

func rangeOf(n ast.Node) bound.Range {
	r := n.Range()
	return bound.Range{File: r.File, StartLine: r.StartLine, StartColumn: r.StartColumn, EndLine: r.EndLine, EndColumn: r.EndColumn}
}
