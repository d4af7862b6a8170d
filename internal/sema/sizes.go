package sema

import (
	"fmt"

	"github.com/ace-lang/acec/internal/sym"
)

// UnresolvableSizeError reports a type whose layout can never be computed:
// typically a struct containing itself by value with no indirection in
// between (4.K).
type UnresolvableSizeError struct {
	Type string
}

func (e *UnresolvableSizeError) Error() string {
	return fmt.Sprintf("type %q has unresolvable size", e.Type)
}

// ValidateSizes runs the Type-Size Validator (4.K) over every Struct
// symbol reachable from root, rejecting any whose size_kind() computes to
// SizeError. Placeholders (still-generic template instances, 4.I) are
// exempt, matching glue synthesis's (4.J) own exemption.
func ValidateSizes(arena *sym.Arena, root sym.ScopeID) error {
	for _, t := range arena.CollectAll(root, sym.Struct) {
		if t.IsPlaceholder() {
			continue
		}
		if sizeKind(arena, t, map[sym.ID]bool{}) == sym.SizeError {
			return &UnresolvableSizeError{Type: t.Name}
		}
	}
	return nil
}

// sizeKind computes a type symbol's size_kind() (4.K). It reports
// SizeError for a cycle met while recursing through fields or a TypeAlias
// chain without passing through a native-template indirection, and for a
// field with no type or an alias with no target; every other type is
// Sized. No type is reported Unsized here, though an Unsized result from a
// field would be passed up unchanged.
func sizeKind(arena *sym.Arena, t *sym.Symbol, visiting map[sym.ID]bool) sym.SizeKind {
	if visiting[t.ID] {
		return sym.SizeError
	}
	visiting[t.ID] = true
	defer delete(visiting, t.ID)

	switch t.Variant {
	case sym.TypeAlias:
		if t.AliasTarget == nil {
			return sym.SizeError
		}
		return sizeKind(arena, t.AliasTarget, visiting)
	case sym.Struct:
		// A template instance whose Template points at a native type
		// template (StrongPointer, WeakPointer, Reference) is always a
		// single pointer-width indirection: sized regardless of its
		// argument's own size, and specifically how those templates break
		// otherwise-cyclic self-referential structures.
		if t.Template != nil && t.Template.Native {
			return sym.Sized
		}
		for _, f := range arena.CollectDefined(t.Self, sym.InstanceVar) {
			if f.Type == nil {
				return sym.SizeError
			}
			if k := sizeKind(arena, f.Type, visiting); k != sym.Sized {
				return k
			}
		}
		return sym.Sized
	default:
		return sym.Sized
	}
}
