package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_DefineDuplicateNameErrors(t *testing.T) {
	a := NewArena()
	s1 := &Symbol{Variant: Struct, Name: "Foo", Owner: a.Root()}
	require.NoError(t, a.Define(s1))

	s2 := &Symbol{Variant: Struct, Name: "Foo", Owner: a.Root()}
	err := a.Define(s2)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrDuplicateSymbol, se.Kind)
}

func TestArena_DefineFunctionOverloadsByParamType(t *testing.T) {
	a := NewArena()
	intT := &Symbol{Variant: Struct, Name: "Int", Owner: a.Root()}
	boolT := &Symbol{Variant: Struct, Name: "Bool", Owner: a.Root()}
	require.NoError(t, a.Define(intT))
	require.NoError(t, a.Define(boolT))

	f1 := &Symbol{Variant: Function, Name: "f", Owner: a.Root(), Params: []*Symbol{{Type: intT}}}
	require.NoError(t, a.Define(f1))

	// Same name, different parameter types: legal overload.
	f2 := &Symbol{Variant: Function, Name: "f", Owner: a.Root(), Params: []*Symbol{{Type: boolT}}}
	require.NoError(t, a.Define(f2))

	// Same name, identical parameter types: duplicate.
	f3 := &Symbol{Variant: Function, Name: "f", Owner: a.Root(), Params: []*Symbol{{Type: intT}}}
	err := a.Define(f3)
	require.Error(t, err)
}

func TestArena_ModuleReopeningIsLegal(t *testing.T) {
	a := NewArena()
	m1 := &Symbol{Variant: Module, Name: "app", Owner: a.Root(), Access: Public}
	require.NoError(t, a.Define(m1))

	m2 := &Symbol{Variant: Module, Name: "app", Owner: a.Root(), Access: Public}
	require.NoError(t, a.Define(m2))

	defined := a.CollectDefined(a.Root(), Module)
	require.Len(t, defined, 1, "re-opening a module must not insert a second symbol")
}

func TestArena_ModuleReopeningWithConflictingAccessErrors(t *testing.T) {
	a := NewArena()
	m1 := &Symbol{Variant: Module, Name: "app", Owner: a.Root(), Access: Public}
	require.NoError(t, a.Define(m1))

	m2 := &Symbol{Variant: Module, Name: "app", Owner: a.Root(), Access: Private}
	assert.Error(t, a.Define(m2))
}

func TestArena_DefineInstanceBypassesNameCollisionCheck(t *testing.T) {
	a := NewArena()
	self := a.NewScope(a.Root(), "StrongPointer")
	tmpl := &Symbol{Variant: TypeTemplate, Name: "StrongPointer", Owner: a.Root(), Self: self}
	require.NoError(t, a.Define(tmpl))

	instSelf := a.NewScope(a.Root(), "StrongPointer")
	instance := &Symbol{Variant: Struct, Name: "StrongPointer", Owner: a.Root(), Self: instSelf, Template: tmpl}
	a.DefineInstance(instance)

	assert.NotEqual(t, tmpl.ID, instance.ID)
	assert.Same(t, tmpl, a.FindBySelf(self))
	assert.Same(t, instance, a.FindBySelf(instSelf))
}

func TestArena_CollectAllDescendsIntoChildren(t *testing.T) {
	a := NewArena()
	child := a.NewScope(a.Root(), "child")
	grandchild := a.NewScope(child, "grandchild")

	f1 := &Symbol{Variant: Function, Name: "top", Owner: a.Root()}
	f2 := &Symbol{Variant: Function, Name: "mid", Owner: child}
	f3 := &Symbol{Variant: Function, Name: "deep", Owner: grandchild}
	require.NoError(t, a.Define(f1))
	require.NoError(t, a.Define(f2))
	require.NoError(t, a.Define(f3))

	all := a.CollectAll(a.Root(), Function)
	assert.Len(t, all, 3)

	direct := a.CollectDefined(a.Root(), Function)
	assert.Len(t, direct, 1)
}

func TestArena_LookupChainWalksToParent(t *testing.T) {
	a := NewArena()
	child := a.NewScope(a.Root(), "child")

	root := &Symbol{Variant: Struct, Name: "Global", Owner: a.Root()}
	require.NoError(t, a.Define(root))

	found := a.LookupChain(child, "Global")
	require.Len(t, found, 1)
	assert.Same(t, root, found[0])

	assert.Empty(t, a.LookupChain(a.Root(), "NotThere"))
}

func TestArena_IsAncestor(t *testing.T) {
	a := NewArena()
	child := a.NewScope(a.Root(), "child")
	grandchild := a.NewScope(child, "grandchild")

	assert.True(t, a.IsAncestor(a.Root(), grandchild))
	assert.True(t, a.IsAncestor(child, grandchild))
	assert.True(t, a.IsAncestor(grandchild, grandchild))
	assert.False(t, a.IsAncestor(grandchild, a.Root()))
}

func TestArena_NewAnonymousLabelIsUniquePerScope(t *testing.T) {
	a := NewArena()
	s := a.NewScope(a.Root(), "f")

	l1 := a.NewAnonymousLabel(s)
	l2 := a.NewAnonymousLabel(s)
	assert.NotEqual(t, l1, l2)
}

func TestArena_TemplateCacheRoundTrip(t *testing.T) {
	a := NewArena()
	self := a.NewScope(a.Root(), "Box")
	tmpl := &Symbol{Variant: TypeTemplate, Name: "Box", Owner: a.Root(), Self: self}
	require.NoError(t, a.Define(tmpl))

	arg := &Symbol{Variant: Struct, Name: "Int", Owner: a.Root(), ID: 42}
	key := TemplateCacheKey(nil, []*Symbol{arg})

	_, ok := a.TemplateCacheLookup(tmpl, key)
	assert.False(t, ok)

	instance := &Symbol{Variant: Struct, Name: "Box", Template: tmpl}
	a.TemplateCacheStore(tmpl, key, instance)

	got, ok := a.TemplateCacheLookup(tmpl, key)
	require.True(t, ok)
	assert.Same(t, instance, got)
}

func TestSymbol_IsPlaceholder(t *testing.T) {
	param := &Symbol{Variant: TypeTemplateParameter, Name: "T"}
	concrete := &Symbol{Variant: Struct, Name: "Int"}
	tmpl := &Symbol{Variant: TypeTemplate, Name: "Box"}

	generic := &Symbol{Template: tmpl, TemplateArgs: []*Symbol{param}}
	assert.True(t, generic.IsPlaceholder())

	instantiated := &Symbol{Template: tmpl, TemplateArgs: []*Symbol{concrete}}
	assert.False(t, instantiated.IsPlaceholder())

	notATemplate := &Symbol{}
	assert.False(t, notATemplate.IsPlaceholder())
}

func TestTrivialKind_CopyableAndDroppable(t *testing.T) {
	assert.True(t, TriviallyCopyable.Copyable())
	assert.False(t, TriviallyCopyable.Droppable())
	assert.True(t, TriviallyDroppable.Droppable())
	assert.False(t, TriviallyDroppable.Copyable())
	assert.True(t, TriviallyCopyableAndDroppable.Copyable())
	assert.True(t, TriviallyCopyableAndDroppable.Droppable())
	assert.False(t, NotTrivial.Copyable())
	assert.False(t, NotTrivial.Droppable())
}
