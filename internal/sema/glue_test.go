package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ace-lang/acec/internal/binder"
	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/sym"
)

func TestSynthesizeGlue_TrivialStructGetsDirectCopyAndNoopDrop(t *testing.T) {
	arena, nat := newTestRegistry(t)
	boolT, _ := nat.Type("Bool")
	s := defineStruct(t, arena, arena.Root(), "Point")
	defineField(t, arena, s.Self, "ok", boolT, 0)
	s.Trivial = sym.TriviallyCopyableAndDroppable

	require.NoError(t, SynthesizeGlue(arena, arena.Root(), nat, &binder.NativeInstantiator{Arena: arena, Natives: nat}))

	require.NotNil(t, s.CopyGlue)
	require.NotNil(t, s.DropGlue)
	assert.Equal(t, "copy_glue$Point", s.CopyGlue.Name)
	assert.Equal(t, "drop_glue$Point", s.DropGlue.Name)

	copyBody := s.CopyGlue.Body.Block.(*bound.Block)
	require.Len(t, copyBody.Stmts, 1)
	_, isAssign := copyBody.Stmts[0].(*bound.Assignment)
	assert.True(t, isAssign)

	dropBody := s.DropGlue.Body.Block.(*bound.Block)
	assert.Empty(t, dropBody.Stmts)
}

func TestSynthesizeGlue_UserOperatorDelegation(t *testing.T) {
	arena, nat := newTestRegistry(t)
	s := defineStruct(t, arena, arena.Root(), "Handle")
	userCopy := &sym.Symbol{Variant: sym.Function, Name: "op_copy", Owner: s.Self, Instance: true}
	userDrop := &sym.Symbol{Variant: sym.Function, Name: "op_drop", Owner: s.Self, Instance: true}
	require.NoError(t, arena.Define(userCopy))
	require.NoError(t, arena.Define(userDrop))
	s.UserCopy = userCopy
	s.UserDrop = userDrop

	require.NoError(t, SynthesizeGlue(arena, arena.Root(), nat, &binder.NativeInstantiator{Arena: arena, Natives: nat}))

	copyBody := s.CopyGlue.Body.Block.(*bound.Block)
	require.Len(t, copyBody.Stmts, 1)
	call, ok := copyBody.Stmts[0].(*bound.ExprStmt).Value.(*bound.InstanceCall)
	require.True(t, ok)
	assert.Equal(t, userCopy, call.Fn)

	dropBody := s.DropGlue.Body.Block.(*bound.Block)
	require.Len(t, dropBody.Stmts, 1)
	dropCall, ok := dropBody.Stmts[0].(*bound.ExprStmt).Value.(*bound.InstanceCall)
	require.True(t, ok)
	assert.Equal(t, userDrop, dropCall.Fn)
}

func TestSynthesizeGlue_StructuralRecursesFieldsInDeclAndReverseOrder(t *testing.T) {
	arena, nat := newTestRegistry(t)
	boolT, _ := nat.Type("Bool")

	inner := defineStruct(t, arena, arena.Root(), "Inner")
	defineField(t, arena, inner.Self, "v", boolT, 0)
	inner.Trivial = sym.TriviallyCopyableAndDroppable

	outer := defineStruct(t, arena, arena.Root(), "Outer")
	defineField(t, arena, outer.Self, "a", inner, 0)
	defineField(t, arena, outer.Self, "b", inner, 1)

	require.NoError(t, SynthesizeGlue(arena, arena.Root(), nat, &binder.NativeInstantiator{Arena: arena, Natives: nat}))

	require.NotNil(t, inner.CopyGlue, "recursing into a field type must synthesize its glue too")

	copyBody := outer.CopyGlue.Body.Block.(*bound.Block)
	require.Len(t, copyBody.Stmts, 2)
	firstCall := copyBody.Stmts[0].(*bound.ExprStmt).Value.(*bound.StaticCall)
	firstField := firstCall.Args[0].(*bound.FieldAccess).Field
	assert.Equal(t, "a", firstField.Name, "copy must visit fields in declaration order")

	dropBody := outer.DropGlue.Body.Block.(*bound.Block)
	require.Len(t, dropBody.Stmts, 2)
	firstDropCall := dropBody.Stmts[0].(*bound.ExprStmt).Value.(*bound.StaticCall)
	firstDropField := firstDropCall.Args[0].(*bound.FieldAccess).Field
	assert.Equal(t, "b", firstDropField.Name, "drop must visit fields in reverse declaration order")
}

func TestSynthesizeGlue_ReferenceInstanceExcluded(t *testing.T) {
	arena, nat := newTestRegistry(t)
	refTmpl, ok := nat.Template("Reference")
	require.True(t, ok)

	instance := &sym.Symbol{
		Variant: sym.Struct, Name: "Reference", Owner: arena.Root(),
		Self: arena.NewScope(arena.Root(), "Reference$Bool"),
		Template: refTmpl,
	}
	arena.DefineInstance(instance)

	require.NoError(t, SynthesizeGlue(arena, arena.Root(), nat, &binder.NativeInstantiator{Arena: arena, Natives: nat}))
	assert.Nil(t, instance.CopyGlue)
	assert.Nil(t, instance.DropGlue)
}

func TestSynthesizeGlue_PlaceholderExcluded(t *testing.T) {
	arena, nat := newTestRegistry(t)
	paramSym := &sym.Symbol{Variant: sym.TypeTemplateParameter, Name: "T", Owner: arena.Root()}
	s := defineStruct(t, arena, arena.Root(), "Box$T")
	s.Template = &sym.Symbol{Variant: sym.TypeTemplate, Name: "Box"}
	s.TemplateArgs = []*sym.Symbol{paramSym}

	require.NoError(t, SynthesizeGlue(arena, arena.Root(), nat, &binder.NativeInstantiator{Arena: arena, Natives: nat}))
	assert.Nil(t, s.CopyGlue)
	assert.Nil(t, s.DropGlue)
}
