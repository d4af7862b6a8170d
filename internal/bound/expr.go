package bound

import "github.com/ace-lang/acec/internal/sym"

// Literal is a fully-typed constant; binding copies the source Text into
// Value unparsed, and nothing about it ever changes under TypeCheck/Lower.
type Literal struct {
	Base
	Kind  int // mirrors ast.LiteralKind; kept untyped here to avoid an ast import
	Value string
}

func (e *Literal) Children() []Node                        { return nil }
func (e *Literal) TypeCheck(ctx *Context) (Result, error) { return Unchanged(e), nil }
func (e *Literal) Lower(ctx *Context) (Result, error)     { return Unchanged(e), nil }

// VarRef is a resolved reference to any variable-like symbol: a local,
// parameter, static variable or self parameter. Which one is determined
// entirely by Sym.Variant; the bound tree does not need a separate node
// type per spec.md's four variable-reference symbol variants because they
// all reduce to "read this symbol's slot".
type VarRef struct {
	Base
	Sym *sym.Symbol
}

func (e *VarRef) Children() []Node                        { return nil }
func (e *VarRef) TypeCheck(ctx *Context) (Result, error) { return Unchanged(e), nil }
func (e *VarRef) Lower(ctx *Context) (Result, error)     { return Unchanged(e), nil }

// FieldAccess is `object.field` resolved to a concrete InstanceVar symbol.
type FieldAccess struct {
	Base
	Object Expr
	Field  *sym.Symbol
}

func (e *FieldAccess) Children() []Node { return []Node{e.Object} }
func (e *FieldAccess) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Object.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Object = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *FieldAccess) Lower(ctx *Context) (Result, error) {
	r, err := e.Object.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Object = r.Node.(Expr)
	return Changed(&c), nil
}

// StaticCall invokes a non-instance function: a free function, a static
// type method (e.g. a conversion `Type::from_x`) or a fully-resolved
// template instantiation's static method.
type StaticCall struct {
	Base
	Fn   *sym.Symbol
	Args []Expr
}

func (e *StaticCall) Children() []Node {
	out := make([]Node, len(e.Args))
	for i, a := range e.Args {
		out[i] = a
	}
	return out
}
func (e *StaticCall) TypeCheck(ctx *Context) (Result, error) {
	args, changed, err := typeCheckExprs(ctx, e.Args)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Args = args
	return Changed(&c), nil
}
func (e *StaticCall) Lower(ctx *Context) (Result, error) {
	args, changed, err := lowerExprs(ctx, e.Args)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Args = args
	return Changed(&c), nil
}

// InstanceCall invokes an instance method: `object.method(args...)` or a
// lowered Unbox/DerefAs.
type InstanceCall struct {
	Base
	Object Expr
	Fn     *sym.Symbol
	Args   []Expr
}

func (e *InstanceCall) Children() []Node {
	out := make([]Node, 0, 1+len(e.Args))
	out = append(out, e.Object)
	for _, a := range e.Args {
		out = append(out, a)
	}
	return out
}
func (e *InstanceCall) TypeCheck(ctx *Context) (Result, error) {
	obj, err := e.Object.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	args, argsChanged, err := typeCheckExprs(ctx, e.Args)
	if err != nil {
		return Result{}, err
	}
	if !obj.Changed && !argsChanged {
		return Unchanged(e), nil
	}
	c := *e
	c.Object = obj.Node.(Expr)
	c.Args = args
	return Changed(&c), nil
}
func (e *InstanceCall) Lower(ctx *Context) (Result, error) {
	obj, err := e.Object.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	args, argsChanged, err := lowerExprs(ctx, e.Args)
	if err != nil {
		return Result{}, err
	}
	if !obj.Changed && !argsChanged {
		return Unchanged(e), nil
	}
	c := *e
	c.Object = obj.Node.(Expr)
	c.Args = args
	return Changed(&c), nil
}

// UserUnary is a unary operator whose type defines it as a user/native
// operator function; Lower rewrites it to a StaticCall of that function
// with the operand as its single argument.
type UserUnary struct {
	Base
	Op      string
	Operand Expr
	OpFn    *sym.Symbol // resolved by the binder at bind time
}

func (e *UserUnary) Children() []Node { return []Node{e.Operand} }
func (e *UserUnary) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *UserUnary) Lower(ctx *Context) (Result, error) {
	operand, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	call := &StaticCall{Base: Base{Rng: e.Rng, TI: e.TI}, Fn: e.OpFn, Args: []Expr{operand.Node.(Expr)}}
	return Changed(call), nil
}

// LogicalNegation is `!operand`, a primitive Bool operation never lowered
// to a call (op_logical_not stays a direct bound node, not a dispatch, to
// keep short-circuiting control flow out of the call-lowering machinery).
type LogicalNegation struct {
	Base
	Operand Expr
}

func (e *LogicalNegation) Children() []Node { return []Node{e.Operand} }
func (e *LogicalNegation) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *LogicalNegation) Lower(ctx *Context) (Result, error) {
	r, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}

// LogicalKind mirrors ast.LogicalKind.
type LogicalKind int

const (
	LogicalAnd LogicalKind = iota
	LogicalOr
)

// Logical is a short-circuiting `&&`/`||`.
type Logical struct {
	Base
	Kind        LogicalKind
	Left, Right Expr
}

func (e *Logical) Children() []Node { return []Node{e.Left, e.Right} }
func (e *Logical) TypeCheck(ctx *Context) (Result, error) {
	l, err := e.Left.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	r, err := e.Right.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !l.Changed && !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Left, c.Right = l.Node.(Expr), r.Node.(Expr)
	return Changed(&c), nil
}
func (e *Logical) Lower(ctx *Context) (Result, error) {
	l, err := e.Left.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	r, err := e.Right.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !l.Changed && !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Left, c.Right = l.Node.(Expr), r.Node.(Expr)
	return Changed(&c), nil
}

// ConversionPlaceholder wraps an operand awaiting the resolved conversion
// call the binder found for it (native `from_x`, a user `op_implicit_from`/
// `op_explicit_from`, or a deref/address-of step composed with one of
// those). Lower rewrites it into the concrete call; kept as its own node
// (named after original_source's ConversionPlaceholder.hpp) rather than
// emitting the call directly at bind time so the fixed-point loop can
// re-type-check the operand first if a prior rewrite changed its type.
type ConversionPlaceholder struct {
	Base
	Operand Expr
	Fn      *sym.Symbol // nil for a pure deref/address-of step with no call
	Deref   bool        // apply before Fn, if Fn's "from" path required a deref
	AddrOf  bool        // apply before Fn, if Fn's "from" path required &operand
}

func (e *ConversionPlaceholder) Children() []Node { return []Node{e.Operand} }
func (e *ConversionPlaceholder) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *ConversionPlaceholder) Lower(ctx *Context) (Result, error) {
	operand, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	cur := operand.Node.(Expr)
	if e.Deref {
		cur = &InstanceCall{Base: Base{Rng: e.Rng}, Object: cur, Fn: nil}
	}
	if e.AddrOf {
		cur = &AddressOf{Base: Base{Rng: e.Rng}, Operand: cur}
	}
	if e.Fn == nil {
		return Changed(cur), nil
	}
	if e.Fn.Instance {
		return Changed(&InstanceCall{Base: Base{Rng: e.Rng, TI: e.TI}, Object: cur, Fn: e.Fn}), nil
	}
	return Changed(&StaticCall{Base: Base{Rng: e.Rng, TI: e.TI}, Fn: e.Fn, Args: []Expr{cur}}), nil
}

// Box is `box operand`; Lower rewrites it to `StrongPointer<T>::new(operand)`
// once the owning StrongPointer<T> instance has been instantiated.
type Box struct {
	Base
	Operand Expr
	Elem    *sym.Symbol // the resolved element type, for instantiating StrongPointer<Elem>
}

func (e *Box) Children() []Node { return []Node{e.Operand} }
func (e *Box) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *Box) Lower(ctx *Context) (Result, error) {
	operand, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	strongTmpl, _ := ctx.Natives.Template("StrongPointer")
	instance, err := ctx.Inst.ResolveOrInstantiate(strongTmpl, nil, []*sym.Symbol{e.Elem})
	if err != nil {
		return Result{}, err
	}
	newFn, err := ctx.Arena.ResolveInstance(instance, "new", nil, ctx.Arena.Root())
	if err != nil {
		return Result{}, err
	}
	call := &StaticCall{
		Base: Base{Rng: e.Rng, TI: sym.TypeInfo{Type: instance, ValueKind: sym.RValue}},
		Fn:   newFn,
		Args: []Expr{operand.Node.(Expr)},
	}
	return Changed(call), nil
}

// Unbox is `unbox operand`; Lower rewrites it to `operand.value()`.
type Unbox struct {
	Base
	Operand Expr
}

func (e *Unbox) Children() []Node { return []Node{e.Operand} }
func (e *Unbox) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *Unbox) Lower(ctx *Context) (Result, error) {
	operand, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	operandType := e.Operand.Type().Type
	valueFn, err := ctx.Arena.ResolveInstance(operandType, "value", nil, ctx.Arena.Root())
	if err != nil {
		return Result{}, err
	}
	call := &InstanceCall{Base: Base{Rng: e.Rng, TI: e.TI}, Object: operand.Node.(Expr), Fn: valueFn}
	return Changed(call), nil
}

// DerefAs is `derefas<T>(operand)`: upgrade a WeakPointer<T> (if needed)
// then unwrap to the element value, in a single surface construct.
type DerefAs struct {
	Base
	Operand  Expr
	IsWeak   bool
}

func (e *DerefAs) Children() []Node { return []Node{e.Operand} }
func (e *DerefAs) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *DerefAs) Lower(ctx *Context) (Result, error) {
	operand, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	cur := operand.Node.(Expr)
	operandType := e.Operand.Type().Type
	if e.IsWeak {
		upgradeFn, err := ctx.Arena.ResolveInstance(operandType, "upgrade", nil, ctx.Arena.Root())
		if err != nil {
			return Result{}, err
		}
		cur = &InstanceCall{Base: Base{Rng: e.Rng}, Object: cur, Fn: upgradeFn}
		operandType = upgradeFn.ReturnType
	}
	valueFn, err := ctx.Arena.ResolveInstance(operandType, "value", nil, ctx.Arena.Root())
	if err != nil {
		return Result{}, err
	}
	return Changed(&InstanceCall{Base: Base{Rng: e.Rng, TI: e.TI}, Object: cur, Fn: valueFn}), nil
}

// SizeOf is `sizeof<TypeName>`, resolved to a constant once the target
// type's SizeKind is known (4.K); it is never lowered, only validated.
type SizeOf struct {
	Base
	Target *sym.Symbol
}

func (e *SizeOf) Children() []Node                        { return nil }
func (e *SizeOf) TypeCheck(ctx *Context) (Result, error) { return Unchanged(e), nil }
func (e *SizeOf) Lower(ctx *Context) (Result, error)     { return Unchanged(e), nil }

// FieldValue is one resolved `name: expr` pair of a StructConstruction,
// already matched against the target struct's InstanceVar by name.
type FieldValue struct {
	Field *sym.Symbol
	Value Expr
}

// StructConstruction is `TypeName { field: expr, ... }`.
type StructConstruction struct {
	Base
	Target *sym.Symbol
	Fields []FieldValue
}

func (e *StructConstruction) Children() []Node {
	out := make([]Node, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Value
	}
	return out
}
func (e *StructConstruction) TypeCheck(ctx *Context) (Result, error) {
	out, changed, err := fieldsTypeCheck(ctx, e.Fields)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Fields = out
	return Changed(&c), nil
}
func (e *StructConstruction) Lower(ctx *Context) (Result, error) {
	out, changed, err := fieldsLower(ctx, e.Fields)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Fields = out
	return Changed(&c), nil
}

// AddressOf is `&operand`; requires an LValue operand (enforced at bind
// time only; TypeCheck and Lower do not re-check the operand's ValueKind).
type AddressOf struct {
	Base
	Operand Expr
}

func (e *AddressOf) Children() []Node { return []Node{e.Operand} }
func (e *AddressOf) TypeCheck(ctx *Context) (Result, error) {
	r, err := e.Operand.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}
func (e *AddressOf) Lower(ctx *Context) (Result, error) {
	r, err := e.Operand.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(e), nil
	}
	c := *e
	c.Operand = r.Node.(Expr)
	return Changed(&c), nil
}

func typeCheckExprs(ctx *Context, in []Expr) ([]Expr, bool, error) {
	out := make([]Expr, len(in))
	changed := false
	for i, e := range in {
		r, err := e.TypeCheck(ctx)
		if err != nil {
			return nil, false, err
		}
		out[i] = r.Node.(Expr)
		changed = changed || r.Changed
	}
	return out, changed, nil
}

func lowerExprs(ctx *Context, in []Expr) ([]Expr, bool, error) {
	out := make([]Expr, len(in))
	changed := false
	for i, e := range in {
		r, err := e.Lower(ctx)
		if err != nil {
			return nil, false, err
		}
		out[i] = r.Node.(Expr)
		changed = changed || r.Changed
	}
	return out, changed, nil
}

func fieldsTypeCheck(ctx *Context, in []FieldValue) ([]FieldValue, bool, error) {
	out := make([]FieldValue, len(in))
	changed := false
	for i, f := range in {
		r, err := f.Value.TypeCheck(ctx)
		if err != nil {
			return nil, false, err
		}
		out[i] = FieldValue{Field: f.Field, Value: r.Node.(Expr)}
		changed = changed || r.Changed
	}
	return out, changed, nil
}

func fieldsLower(ctx *Context, in []FieldValue) ([]FieldValue, bool, error) {
	out := make([]FieldValue, len(in))
	changed := false
	for i, f := range in {
		r, err := f.Value.Lower(ctx)
		if err != nil {
			return nil, false, err
		}
		out[i] = FieldValue{Field: f.Field, Value: r.Node.(Expr)}
		changed = changed || r.Changed
	}
	return out, changed, nil
}
