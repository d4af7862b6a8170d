package bound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

func testCtx(t *testing.T) (*Context, *natives.Registry) {
	t.Helper()
	arena := sym.NewArena()
	nat, err := natives.Init(arena, arena.Root())
	require.NoError(t, err)
	inst := testNativeInstantiator{arena: arena, nat: nat}
	return &Context{Arena: arena, Natives: nat, Inst: inst}, nat
}

// testNativeInstantiator instantiates the native type templates through the
// arena's template cache and Registry.PopulateInstance. bound cannot import
// binder.NativeInstantiator here, since binder itself imports bound.
type testNativeInstantiator struct {
	arena *sym.Arena
	nat   *natives.Registry
}

func (f testNativeInstantiator) ResolveOrInstantiate(template *sym.Symbol, implArgs, args []*sym.Symbol) (*sym.Symbol, error) {
	key := sym.TemplateCacheKey(implArgs, args)
	if inst, ok := f.arena.TemplateCacheLookup(template, key); ok {
		return inst, nil
	}
	self := f.arena.NewScope(template.Owner, template.Name)
	instance := &sym.Symbol{
		Variant: sym.Struct, Name: template.Name, Owner: template.Owner,
		Self: self, Native: true, Template: template, TemplateArgs: args,
	}
	f.arena.DefineInstance(instance)
	if err := f.nat.PopulateInstance(template, instance, args, f); err != nil {
		return nil, err
	}
	f.arena.TemplateCacheStore(template, key, instance)
	return instance, nil
}

func TestBlock_TypeCheck_PropagatesChangedFromAnyStmt(t *testing.T) {
	ctx, _ := testCtx(t)
	changing := &VarDecl{Sym: &sym.Symbol{Name: "x"}, Init: &everChangingExpr{}}
	block := &Block{Stmts: []Stmt{changing}}

	r, err := block.TypeCheck(ctx)
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.NotSame(t, block, r.Node)
}

func TestBlock_TypeCheck_UnchangedWhenNoStmtChanges(t *testing.T) {
	ctx, _ := testCtx(t)
	lit := &Literal{}
	block := &Block{Stmts: []Stmt{&ExprStmt{Value: lit}}}

	r, err := block.TypeCheck(ctx)
	require.NoError(t, err)
	assert.False(t, r.Changed)
	assert.Same(t, block, r.Node)
}

func TestBlock_Lower_SplicesWhileIntoSiblingStatements(t *testing.T) {
	ctx, _ := testCtx(t)
	self := ctx.Arena.NewScope(ctx.Arena.Root(), "f")
	boolT, _ := ctx.Natives.Type("Bool")

	w := &While{
		Cond:  &Literal{Base: Base{TI: sym.TypeInfo{Type: boolT}}},
		Body:  &Block{Stmts: nil},
		Scope: self,
	}
	block := &Block{Stmts: []Stmt{w}}

	r, err := block.Lower(ctx)
	require.NoError(t, err)
	require.True(t, r.Changed)

	lowered := r.Node.(*Block)
	require.Len(t, lowered.Stmts, 5)
	assert.IsType(t, &LabelStmt{}, lowered.Stmts[0])
	assert.IsType(t, &ConditionalJump{}, lowered.Stmts[1])
	assert.IsType(t, &Block{}, lowered.Stmts[2])
	assert.IsType(t, &NormalJump{}, lowered.Stmts[3])
	assert.IsType(t, &LabelStmt{}, lowered.Stmts[4])
}

func TestIf_TypeCheck_ChangedWhenEitherBranchChanges(t *testing.T) {
	ctx, _ := testCtx(t)
	lit := &Literal{}
	thenBlock := &Block{Stmts: []Stmt{&VarDecl{Sym: &sym.Symbol{Name: "x"}, Init: &everChangingExpr{}}}}
	s := &If{Cond: lit, Then: thenBlock}

	r, err := s.TypeCheck(ctx)
	require.NoError(t, err)
	assert.True(t, r.Changed)
}

func TestIf_TypeCheck_UnchangedWhenNeitherBranchChanges(t *testing.T) {
	ctx, _ := testCtx(t)
	s := &If{Cond: &Literal{}, Then: &Block{}}

	r, err := s.TypeCheck(ctx)
	require.NoError(t, err)
	assert.False(t, r.Changed)
	assert.Same(t, s, r.Node)
}

func TestWhile_Lower_RewritesOnceIntoLabelJumpGroup(t *testing.T) {
	ctx, _ := testCtx(t)
	self := ctx.Arena.NewScope(ctx.Arena.Root(), "f")
	boolT, _ := ctx.Natives.Type("Bool")

	w := &While{
		Cond:  &Literal{Base: Base{TI: sym.TypeInfo{Type: boolT}}},
		Body:  &Block{Stmts: nil},
		Scope: self,
	}

	r, err := w.Lower(ctx)
	require.NoError(t, err)
	require.True(t, r.Changed)

	group, ok := r.Node.(*stmtGroup)
	require.True(t, ok)
	require.Len(t, group.Stmts, 5)

	start := group.Stmts[0].(*LabelStmt)
	jump := group.Stmts[1].(*ConditionalJump)
	end := group.Stmts[4].(*LabelStmt)
	assert.Equal(t, end.Name, jump.Target)
	assert.NotEqual(t, start.Name, end.Name)

	negated, ok := jump.Cond.(*LogicalNegation)
	require.True(t, ok)
	assert.Same(t, w.Cond, negated.Operand)

	normalJump := group.Stmts[3].(*NormalJump)
	assert.Equal(t, start.Name, normalJump.Target)
}

func TestAssert_Lower_RewritesIntoIfWrappingExit(t *testing.T) {
	ctx, _ := testCtx(t)
	cond := &Literal{}
	a := &Assert{Cond: cond}

	r, err := a.Lower(ctx)
	require.NoError(t, err)
	require.True(t, r.Changed)

	lowered, ok := r.Node.(*If)
	require.True(t, ok)
	assert.Nil(t, lowered.Otherwise)

	negated, ok := lowered.Cond.(*LogicalNegation)
	require.True(t, ok)
	assert.Same(t, cond, negated.Operand)

	require.Len(t, lowered.Then.Stmts, 1)
	assert.IsType(t, &Exit{}, lowered.Then.Stmts[0])
}

func TestReturn_TypeCheck_NilValueIsNoop(t *testing.T) {
	ctx, _ := testCtx(t)
	s := &Return{}
	r, err := s.TypeCheck(ctx)
	require.NoError(t, err)
	assert.False(t, r.Changed)
	assert.Same(t, s, r.Node)
}

func TestLogicalNegation_Unchanged_SharesIdentity(t *testing.T) {
	ctx, _ := testCtx(t)
	e := &LogicalNegation{Operand: &Literal{}}
	r, err := e.TypeCheck(ctx)
	require.NoError(t, err)
	assert.False(t, r.Changed)
	assert.Same(t, e, r.Node)
}

func TestConversionPlaceholder_Lower_PureDerefWithNoFn(t *testing.T) {
	ctx, _ := testCtx(t)
	operand := &Literal{}
	p := &ConversionPlaceholder{Operand: operand, Deref: true}

	r, err := p.Lower(ctx)
	require.NoError(t, err)
	require.True(t, r.Changed)

	call, ok := r.Node.(*InstanceCall)
	require.True(t, ok)
	assert.Same(t, operand, call.Object)
	assert.Nil(t, call.Fn)
}

func TestConversionPlaceholder_Lower_StaticConversionCall(t *testing.T) {
	ctx, nat := testCtx(t)
	intT, _ := nat.Type("Int32")
	int64T, _ := nat.Type("Int64")
	fn, ok := nat.ImplicitConversion(intT, int64T)
	require.True(t, ok)

	operand := &Literal{Base: Base{TI: sym.TypeInfo{Type: intT}}}
	p := &ConversionPlaceholder{Base: Base{TI: sym.TypeInfo{Type: int64T}}, Operand: operand, Fn: fn}

	r, err := p.Lower(ctx)
	require.NoError(t, err)
	call, ok := r.Node.(*StaticCall)
	require.True(t, ok)
	assert.Same(t, fn, call.Fn)
	require.Len(t, call.Args, 1)
	assert.Same(t, operand, call.Args[0])
}

func TestBox_Lower_RewritesToStrongPointerNew(t *testing.T) {
	ctx, nat := testCtx(t)
	intT, _ := nat.Type("Int32")
	operand := &Literal{Base: Base{TI: sym.TypeInfo{Type: intT}}}
	b := &Box{Operand: operand, Elem: intT}

	r, err := b.Lower(ctx)
	require.NoError(t, err)
	require.True(t, r.Changed)

	call, ok := r.Node.(*StaticCall)
	require.True(t, ok)
	assert.Equal(t, "new", call.Fn.Name)
	require.Len(t, call.Args, 1)
	assert.Same(t, operand, call.Args[0])
}

func TestUnbox_Lower_RewritesToValueCall(t *testing.T) {
	ctx, nat := testCtx(t)
	intT, _ := nat.Type("Int32")
	strongTmpl, _ := nat.Template("StrongPointer")
	instance, err := ctx.Inst.ResolveOrInstantiate(strongTmpl, nil, []*sym.Symbol{intT})
	require.NoError(t, err)

	operand := &Literal{Base: Base{TI: sym.TypeInfo{Type: instance}}}
	u := &Unbox{Base: Base{TI: sym.TypeInfo{Type: intT}}, Operand: operand}

	r, err := u.Lower(ctx)
	require.NoError(t, err)
	call, ok := r.Node.(*InstanceCall)
	require.True(t, ok)
	assert.Equal(t, "value", call.Fn.Name)
	assert.Same(t, operand, call.Object)
}

func TestDerefAs_Lower_WeakUpgradesThenUnwraps(t *testing.T) {
	ctx, nat := testCtx(t)
	intT, _ := nat.Type("Int32")
	weakTmpl, _ := nat.Template("WeakPointer")
	weakInst, err := ctx.Inst.ResolveOrInstantiate(weakTmpl, nil, []*sym.Symbol{intT})
	require.NoError(t, err)

	operand := &Literal{Base: Base{TI: sym.TypeInfo{Type: weakInst}}}
	d := &DerefAs{Base: Base{TI: sym.TypeInfo{Type: intT}}, Operand: operand, IsWeak: true}

	r, err := d.Lower(ctx)
	require.NoError(t, err)
	outer, ok := r.Node.(*InstanceCall)
	require.True(t, ok)
	assert.Equal(t, "value", outer.Fn.Name)

	inner, ok := outer.Object.(*InstanceCall)
	require.True(t, ok)
	assert.Equal(t, "upgrade", inner.Fn.Name)
	assert.Same(t, operand, inner.Object)
}

// everChangingExpr is a minimal Expr that always reports Changed, used only
// to exercise the Changed-propagation branch of statement TypeCheck/Lower
// without depending on a real rewrite rule.
type everChangingExpr struct {
	Base
}

func (e *everChangingExpr) Children() []Node { return nil }
func (e *everChangingExpr) TypeCheck(ctx *Context) (Result, error) {
	return Changed(&everChangingExpr{}), nil
}
func (e *everChangingExpr) Lower(ctx *Context) (Result, error) {
	return Changed(&everChangingExpr{}), nil
}
