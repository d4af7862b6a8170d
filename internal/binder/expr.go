package binder

import (
	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/diag"
	"github.com/ace-lang/acec/internal/sym"
)

var unaryOpFn = map[string]string{
	"-": "op_unary_minus",
	"~": "op_bit_not",
	"!": "op_logical_not",
}

func (b *Binder) bindExpr(scope sym.ScopeID, selfType *sym.Symbol, e ast.Expr) (bound.Expr, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return b.bindLiteral(n)

	case *ast.SymbolRef:
		return b.bindSymbolRef(scope, n)

	case *ast.MemberAccess:
		obj, err := b.bindExpr(scope, selfType, n.Object)
		if err != nil {
			return nil, err
		}
		field, err := b.findField(obj.Type().Type, n.Identifier)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		return &bound.FieldAccess{
			Base:   bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: field.Type, ValueKind: obj.Type().ValueKind}},
			Object: obj, Field: field,
		}, nil

	case *ast.Call:
		return b.bindCall(scope, selfType, n)

	case *ast.UserUnary:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		fname, ok := unaryOpFn[n.Op]
		if !ok {
			return nil, diag.New(diag.UnresolvedSymbol, n, "unknown unary operator %q", n.Op)
		}
		fn, err := b.resolveInstanceMethod(scope, operand.Type().Type, fname, nil)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		return &bound.UserUnary{
			Base:    bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: fn.ReturnType, ValueKind: sym.RValue}},
			Op:      n.Op, Operand: operand, OpFn: fn,
		}, nil

	case *ast.LogicalNegation:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		operand, err = b.convertOrError(n.Operand, operand, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		return &bound.LogicalNegation{
			Base: bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: b.boolType(), ValueKind: sym.RValue}}, Operand: operand,
		}, nil

	case *ast.Logical:
		left, err := b.bindExpr(scope, selfType, n.Left)
		if err != nil {
			return nil, err
		}
		left, err = b.convertOrError(n.Left, left, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		right, err := b.bindExpr(scope, selfType, n.Right)
		if err != nil {
			return nil, err
		}
		right, err = b.convertOrError(n.Right, right, b.boolType(), diag.NonBooleanCondition)
		if err != nil {
			return nil, err
		}
		return &bound.Logical{
			Base: bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: b.boolType(), ValueKind: sym.RValue}},
			Kind: bound.LogicalKind(n.Kind), Left: left, Right: right,
		}, nil

	case *ast.Cast:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		target, err := b.resolveTypeRef(scope, n.TypeName)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		conv, ok := b.FindExplicitConversion(operand, target)
		if !ok {
			return nil, diag.New(diag.NoExplicitConversion, n, "no explicit conversion from %q to %q", operand.Type().Type.Name, target.Name)
		}
		return conv, nil

	case *ast.DerefAs:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		target, err := b.resolveTypeRef(scope, n.TypeName)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		opType := operand.Type().Type
		isWeak := opType.Template != nil && opType.Template.Name == "WeakPointer"
		if !isWeak && (opType.Template == nil || opType.Template.Name != "StrongPointer") {
			return nil, diag.New(diag.InvalidDerefTarget, n, "derefas requires a StrongPointer or WeakPointer operand, got %q", opType.Name)
		}
		return &bound.DerefAs{
			Base:    bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: target, ValueKind: sym.RValue}},
			Operand: operand, IsWeak: isWeak,
		}, nil

	case *ast.Box:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		elem := operand.Type().Type
		strongTmpl, ok := b.Natives.Template("StrongPointer")
		if !ok {
			return nil, diag.New(diag.UnresolvedSymbol, n, "native StrongPointer template not registered")
		}
		instance, err := b.Inst.ResolveOrInstantiate(strongTmpl, nil, []*sym.Symbol{elem})
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		return &bound.Box{
			Base:    bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: instance, ValueKind: sym.RValue}},
			Operand: operand, Elem: elem,
		}, nil

	case *ast.Unbox:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		valueFn, err := b.resolveInstanceMethod(scope, operand.Type().Type, "value", nil)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		return &bound.Unbox{
			Base:    bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: valueFn.ReturnType, ValueKind: sym.RValue}},
			Operand: operand,
		}, nil

	case *ast.SizeOf:
		target, err := b.resolveTypeRef(scope, n.TypeName)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		intT, _ := b.Natives.Type("Int")
		return &bound.SizeOf{
			Base:   bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: intT, ValueKind: sym.RValue}},
			Target: target,
		}, nil

	case *ast.StructConstruction:
		target, err := b.resolveTypeRef(scope, n.TypeName)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		fields := make([]bound.FieldValue, len(n.Fields))
		for i, f := range n.Fields {
			cands := b.Arena.Lookup(target.Self, f.Name)
			var field *sym.Symbol
			for _, c := range cands {
				if c.Variant == sym.InstanceVar {
					field = c
					break
				}
			}
			if field == nil {
				return nil, diag.New(diag.UnresolvedSymbol, n, "%q has no field %q", target.Name, f.Name)
			}
			val, err := b.bindExpr(scope, selfType, f.Value)
			if err != nil {
				return nil, err
			}
			val, err = b.convertOrError(f.Value, val, field.Type, diag.NoImplicitConversion)
			if err != nil {
				return nil, err
			}
			fields[i] = bound.FieldValue{Field: field, Value: val}
		}
		return &bound.StructConstruction{
			Base:   bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: target, ValueKind: sym.RValue}},
			Target: target, Fields: fields,
		}, nil

	case *ast.AddressOf:
		operand, err := b.bindExpr(scope, selfType, n.Operand)
		if err != nil {
			return nil, err
		}
		if operand.Type().ValueKind != sym.LValue {
			return nil, diag.New(diag.UnexpectedValueKind, n, "cannot take the address of an rvalue")
		}
		return &bound.AddressOf{
			Base:    bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: operand.Type().Type, ValueKind: sym.RValue}},
			Operand: operand,
		}, nil
	}
	return nil, diag.New(diag.UnresolvedSymbol, e, "unhandled expression kind")
}

func (b *Binder) bindLiteral(n *ast.Literal) (bound.Expr, error) {
	var typeName string
	switch n.Kind {
	case ast.LitInt:
		typeName = "Int"
	case ast.LitFloat:
		typeName = "Float64"
	case ast.LitBool:
		typeName = "Bool"
	case ast.LitString:
		typeName = "String"
	default:
		return nil, diag.New(diag.UnresolvedSymbol, n, "unknown literal kind")
	}
	t, ok := b.Natives.Type(typeName)
	if !ok {
		return nil, diag.New(diag.UnresolvedSymbol, n, "native type %q not registered", typeName)
	}
	return &bound.Literal{
		Base:  bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: t, ValueKind: sym.RValue}},
		Kind:  int(n.Kind), Value: n.Text,
	}, nil
}

func (b *Binder) bindSymbolRef(scope sym.ScopeID, n *ast.SymbolRef) (bound.Expr, error) {
	last := n.Name.Last()
	if len(n.Name.Sections) == 1 && !n.Name.Global && len(last.TemplateArgs) == 0 {
		if cands := b.Arena.LookupChain(scope, last.Identifier); len(cands) > 0 && isVarVariant(cands[0].Variant) {
			s := cands[0]
			return &bound.VarRef{
				Base: bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: s.Type.Referent(), ValueKind: sym.LValue}}, Sym: s,
			}, nil
		}
	}
	sections, err := b.buildSections(scope, n.Name)
	if err != nil {
		return nil, diag.Wrap(n, err)
	}
	s, err := b.Arena.ResolveStatic(scope, sections, nil, b.Inst)
	if err != nil {
		return nil, diag.Wrap(n, err)
	}
	vk := sym.RValue
	if isVarVariant(s.Variant) {
		vk = sym.LValue
	}
	return &bound.VarRef{Base: bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: s.Type.Referent(), ValueKind: vk}}, Sym: s}, nil
}

func isVarVariant(v sym.Variant) bool {
	switch v {
	case sym.StaticVar, sym.LocalVar, sym.ParameterVar, sym.SelfParameterVar:
		return true
	}
	return false
}

func (b *Binder) buildSections(scope sym.ScopeID, name *ast.Name) ([]sym.Section, error) {
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
	return sections, nil
}

func (b *Binder) findField(t *sym.Symbol, name string) (*sym.Symbol, error) {
	if t != nil {
		t = t.Referent()
	}
	if t == nil || t.Self == sym.NoScope {
		return nil, &notFoundError{what: name, on: "<non-struct type>"}
	}
	for _, c := range b.Arena.Lookup(t.Self, name) {
		if c.Variant == sym.InstanceVar {
			return c, nil
		}
	}
	return nil, &notFoundError{what: name, on: t.Name}
}

type notFoundError struct{ what, on string }

func (e *notFoundError) Error() string { return e.what + " not found on " + e.on }

// resolveInstanceMethod gathers same-named instance-method candidates on
// t's self-scope (and, for a template instance, its template's self-scope)
// and picks the best match with the binder's own conversion ranker —
// unlike sym.Arena.ResolveInstance, which only accepts exact-type matches.
// scope is the calling context, checked against the picked method's Access
// (4.A). t is unwrapped through Referent first: a Reference<T>'s own
// self-scope carries no methods, only T's does.
func (b *Binder) resolveInstanceMethod(scope sym.ScopeID, t *sym.Symbol, name string, argTypes []*sym.Symbol) (*sym.Symbol, error) {
	if t != nil {
		t = t.Referent()
	}
	if t == nil || t.Self == sym.NoScope {
		return nil, &notFoundError{what: name, on: "<unknown>"}
	}
	cands := b.Arena.Lookup(t.Self, name)
	if t.Template != nil {
		cands = append(cands, b.Arena.Lookup(t.Template.Self, name)...)
	}
	if len(cands) == 0 {
		return nil, &notFoundError{what: name, on: t.Name}
	}
	var picked *sym.Symbol
	if argTypes == nil {
		picked = cands[0]
	} else {
		var err error
		picked, err = sym.SelectOverloadRanked(cands, withSelf(argTypes, t), &Ranker{Arena: b.Arena, Natives: b.Natives})
		if err != nil {
			return nil, err
		}
	}
	if err := b.Arena.CheckAccess(picked, scope); err != nil {
		return nil, err
	}
	return picked, nil
}

// withSelf prepends t so argTypes lines up with a candidate's Params,
// whose slot 0 is always the implicit self parameter.
func withSelf(argTypes []*sym.Symbol, t *sym.Symbol) []*sym.Symbol {
	out := make([]*sym.Symbol, 0, len(argTypes)+1)
	out = append(out, t)
	out = append(out, argTypes...)
	return out
}

func (b *Binder) resolveCallTarget(scope sym.ScopeID, name *ast.Name, argTypes []*sym.Symbol) (*sym.Symbol, error) {
	cur := scope
	var found *sym.Symbol
	for i, sec := range name.Sections {
		last := i == len(name.Sections)-1
		cands := b.Arena.LookupChain(cur, sec.Identifier)
		if len(cands) == 0 {
			return nil, &notFoundError{what: sec.Identifier, on: "<scope>"}
		}
		var picked *sym.Symbol
		if last {
			var err error
			picked, err = sym.SelectOverloadRanked(cands, argTypes, &Ranker{Arena: b.Arena, Natives: b.Natives})
			if err != nil {
				return nil, err
			}
		} else {
			picked = cands[0]
		}
		if err := b.Arena.CheckAccess(picked, scope); err != nil {
			return nil, err
		}
		if len(sec.TemplateArgs) > 0 {
			args := make([]*sym.Symbol, len(sec.TemplateArgs))
			for j, a := range sec.TemplateArgs {
				at, err := b.resolveTypeRef(scope, a)
				if err != nil {
					return nil, err
				}
				args[j] = at
			}
			inst, err := b.Inst.ResolveOrInstantiate(picked, nil, args)
			if err != nil {
				return nil, err
			}
			picked = inst
		}
		found = picked
		if found.IsScopeOpener() {
			cur = found.Self
		}
	}
	return found, nil
}

func (b *Binder) bindCall(scope sym.ScopeID, selfType *sym.Symbol, n *ast.Call) (bound.Expr, error) {
	args := make([]bound.Expr, len(n.Args))
	argTypes := make([]*sym.Symbol, len(n.Args))
	for i, a := range n.Args {
		be, err := b.bindExpr(scope, selfType, a)
		if err != nil {
			return nil, err
		}
		args[i] = be
		argTypes[i] = be.Type().Type
	}

	switch callee := n.Callee.(type) {
	case *ast.MemberAccess:
		obj, err := b.bindExpr(scope, selfType, callee.Object)
		if err != nil {
			return nil, err
		}
		fn, err := b.resolveInstanceMethod(scope, obj.Type().Type, callee.Identifier, argTypes)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		convArgs, err := b.convertArgs(n.Args, args, fn.Params[1:])
		if err != nil {
			return nil, err
		}
		return &bound.InstanceCall{
			Base:   bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: fn.ReturnType, ValueKind: sym.RValue}},
			Object: obj, Fn: fn, Args: convArgs,
		}, nil

	case *ast.SymbolRef:
		last := callee.Name.Last()
		if selfType != nil && len(callee.Name.Sections) == 1 && !callee.Name.Global {
			if fn, err := b.resolveInstanceMethod(scope, selfType, last.Identifier, argTypes); err == nil {
				selfVar, serr := b.bindSymbolRef(scope, &ast.SymbolRef{Base: callee.Base, Name: &ast.Name{Sections: []ast.NameSection{{Identifier: "self"}}}})
				if serr != nil {
					return nil, serr
				}
				convArgs, err := b.convertArgs(n.Args, args, fn.Params[1:])
				if err != nil {
					return nil, err
				}
				return &bound.InstanceCall{
					Base:   bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: fn.ReturnType, ValueKind: sym.RValue}},
					Object: selfVar, Fn: fn, Args: convArgs,
				}, nil
			}
		}
		fn, err := b.resolveCallTarget(scope, callee.Name, argTypes)
		if err != nil {
			return nil, diag.Wrap(n, err)
		}
		convArgs, err := b.convertArgs(n.Args, args, fn.Params)
		if err != nil {
			return nil, err
		}
		return &bound.StaticCall{
			Base: bound.Base{Rng: rangeOf(n), TI: sym.TypeInfo{Type: fn.ReturnType, ValueKind: sym.RValue}},
			Fn:   fn, Args: convArgs,
		}, nil
	}
	return nil, diag.New(diag.UnresolvedSymbol, n, "unsupported call target")
}

func (b *Binder) convertArgs(argNodes []ast.Expr, args []bound.Expr, params []*sym.Symbol) ([]bound.Expr, error) {
	out := make([]bound.Expr, len(args))
	for i, a := range args {
		conv, err := b.convertOrError(argNodes[i], a, params[i].Type, diag.NoImplicitConversion)
		if err != nil {
			return nil, err
		}
		out[i] = conv
	}
	return out, nil
}
