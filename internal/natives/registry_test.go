package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ace-lang/acec/internal/sym"
)

func newRegistry(t *testing.T) (*sym.Arena, *Registry) {
	t.Helper()
	arena := sym.NewArena()
	nat, err := Init(arena, arena.Root())
	require.NoError(t, err)
	return arena, nat
}

func TestInit_DefinesSimpleTypes(t *testing.T) {
	_, nat := newRegistry(t)
	for _, name := range []string{"Void", "Bool", "Pointer", "String"} {
		typ, ok := nat.Type(name)
		require.True(t, ok, name)
		assert.Equal(t, name, typ.Name)
	}
	ir, ok := nat.IRTypeOf(mustType(t, nat, "Bool"))
	require.True(t, ok)
	assert.Equal(t, "i1", ir)
}

func TestInit_DefinesAllNumerics(t *testing.T) {
	_, nat := newRegistry(t)
	for _, n := range numerics {
		typ, ok := nat.Type(n.name)
		require.True(t, ok, n.name)
		ir, ok := nat.IRTypeOf(typ)
		require.True(t, ok)
		assert.Equal(t, n.irType, ir)
	}
}

func TestInit_BoolGetsLogicalNotAndEquality(t *testing.T) {
	arena, nat := newRegistry(t)
	boolT := mustType(t, nat, "Bool")

	_, err := arena.ResolveInstance(boolT, "op_logical_not", nil, arena.Root())
	require.NoError(t, err)
	_, err = arena.ResolveInstance(boolT, "op_equals", []*sym.Symbol{boolT}, arena.Root())
	require.NoError(t, err)
}

func TestInit_NumericGetsArithmeticBitwiseAndComparisonOps(t *testing.T) {
	arena, nat := newRegistry(t)
	intT := mustType(t, nat, "Int32")
	boolT := mustType(t, nat, "Bool")

	for _, op := range arithmeticOps {
		fn, err := arena.ResolveInstance(intT, op, []*sym.Symbol{intT}, arena.Root())
		require.NoError(t, err, op)
		assert.Same(t, intT, fn.ReturnType)
	}
	for _, op := range bitwiseOps {
		_, err := arena.ResolveInstance(intT, op, []*sym.Symbol{intT}, arena.Root())
		require.NoError(t, err, op)
	}
	for _, op := range comparisonOps {
		fn, err := arena.ResolveInstance(intT, op, []*sym.Symbol{intT}, arena.Root())
		require.NoError(t, err, op)
		assert.Same(t, boolT, fn.ReturnType)
	}
}

func TestInit_FloatGetsNoBitwiseOps(t *testing.T) {
	arena, nat := newRegistry(t)
	f32 := mustType(t, nat, "Float32")

	for _, op := range bitwiseOps {
		_, err := arena.ResolveInstance(f32, op, []*sym.Symbol{f32}, arena.Root())
		assert.Error(t, err, op)
	}
}

func TestInit_WideningIsImplicitNarrowingIsExplicitOnly(t *testing.T) {
	_, nat := newRegistry(t)
	i32 := mustType(t, nat, "Int32")
	i64 := mustType(t, nat, "Int64")

	_, ok := nat.ImplicitConversion(i32, i64)
	assert.True(t, ok, "Int32 -> Int64 should widen implicitly")

	_, ok = nat.ImplicitConversion(i64, i32)
	assert.False(t, ok, "Int64 -> Int32 narrows, so must not be implicit")
	_, ok = nat.ExplicitConversion(i64, i32)
	assert.True(t, ok, "Int64 -> Int32 should still be explicitly castable")
}

func TestRank_ExactBeatsImplicitBeatsNoConversion(t *testing.T) {
	_, nat := newRegistry(t)
	i32 := mustType(t, nat, "Int32")
	i64 := mustType(t, nat, "Int64")
	boolT := mustType(t, nat, "Bool")

	assert.Equal(t, sym.RankExact, nat.Rank(i32, i32))
	assert.Equal(t, sym.RankImplicitNative, nat.Rank(i32, i64))
	assert.Equal(t, sym.RankNoConversion, nat.Rank(i32, boolT))
	assert.Equal(t, sym.RankNoConversion, nat.Rank(boolT, i32))
}

func TestDefineTemplates_RegistersReferenceStrongWeak(t *testing.T) {
	_, nat := newRegistry(t)
	for _, name := range []string{"Reference", "StrongPointer", "WeakPointer"} {
		tmpl, ok := nat.Template(name)
		require.True(t, ok, name)
		assert.True(t, tmpl.Native)
		assert.Len(t, tmpl.TemplateParams, 1)
	}
	refTmpl, _ := nat.Template("Reference")
	assert.Equal(t, sym.TriviallyCopyableAndDroppable, refTmpl.Trivial)
}

func TestPopulateInstance_StrongPointerGetsNewAndValue(t *testing.T) {
	arena, nat := newRegistry(t)
	intT := mustType(t, nat, "Int32")
	strongTmpl, _ := nat.Template("StrongPointer")

	self := arena.NewScope(strongTmpl.Owner, "StrongPointer")
	instance := &sym.Symbol{
		Variant: sym.Struct, Name: "StrongPointer", Owner: strongTmpl.Owner,
		Self: self, Native: true, Template: strongTmpl, TemplateArgs: []*sym.Symbol{intT},
	}
	arena.DefineInstance(instance)

	fakeInst := fakeNativeInstantiator{arena: arena, nat: nat}
	require.NoError(t, nat.PopulateInstance(strongTmpl, instance, []*sym.Symbol{intT}, fakeInst))

	newFn, err := arena.ResolveInstance(instance, "new", nil, arena.Root())
	require.NoError(t, err)
	assert.Same(t, instance, newFn.ReturnType)

	valueFn, err := arena.ResolveInstance(instance, "value", nil, arena.Root())
	require.NoError(t, err)
	assert.Same(t, intT, valueFn.ReturnType)
}

func TestPopulateInstance_RejectsWrongArity(t *testing.T) {
	arena, nat := newRegistry(t)
	strongTmpl, _ := nat.Template("StrongPointer")
	self := arena.NewScope(strongTmpl.Owner, "StrongPointer")
	instance := &sym.Symbol{Variant: sym.Struct, Name: "StrongPointer", Self: self, Template: strongTmpl}

	err := nat.PopulateInstance(strongTmpl, instance, nil, fakeNativeInstantiator{arena: arena, nat: nat})
	require.Error(t, err)
}

func mustType(t *testing.T, nat *Registry, name string) *sym.Symbol {
	t.Helper()
	typ, ok := nat.Type(name)
	require.True(t, ok, name)
	return typ
}

// fakeNativeInstantiator is a minimal sym.Instantiator handed to
// PopulateInstance in these tests, implementing the same interface as the
// real binder.NativeInstantiator (a WeakPointer<T> instance would use it to
// instantiate its companion StrongPointer<T>).
type fakeNativeInstantiator struct {
	arena *sym.Arena
	nat   *Registry
}

func (f fakeNativeInstantiator) ResolveOrInstantiate(template *sym.Symbol, implArgs, args []*sym.Symbol) (*sym.Symbol, error) {
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
