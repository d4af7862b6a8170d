// Package diag defines the uniform error value the whole pipeline returns,
// per spec §7: a kind drawn from a fixed catalogue plus the source range of
// the offending parse or bound node.
package diag

import (
	"fmt"

	"github.com/ace-lang/acec/internal/ast"
)

// Kind is one of the error kinds spec §7 lists as surfaced by the core.
type Kind string

const (
	DuplicateSymbol      Kind = "DuplicateSymbol"
	UnresolvedSymbol     Kind = "UnresolvedSymbol"
	Inaccessible         Kind = "Inaccessible"
	AmbiguousOverload    Kind = "AmbiguousOverload"
	ArgCountMismatch     Kind = "ArgCountMismatch"
	NoImplicitConversion Kind = "NoImplicitConversion"
	NoExplicitConversion Kind = "NoExplicitConversion"
	UnexpectedValueKind  Kind = "UnexpectedValueKind"
	MissingReturn        Kind = "MissingReturn"
	ReturnTypeMismatch   Kind = "ReturnTypeMismatch"
	UnreachableCode      Kind = "UnreachableCode"
	UnresolvableSize     Kind = "UnresolvableSize"
	UsedUnsizedType      Kind = "UsedUnsizedType"
	CyclicAlias          Kind = "CyclicAlias"
	TemplateArityMismatch Kind = "TemplateArityMismatch"
	FixedPointDiverged   Kind = "FixedPointDiverged"
	NonBooleanCondition  Kind = "NonBooleanCondition"
	InvalidDerefTarget   Kind = "InvalidDerefTarget"
	InvalidBoxTarget     Kind = "InvalidBoxTarget"
)

// Error is the error value every recoverable failure in the pipeline
// returns. FixedPointDiverged and internal-assertion failures are not
// represented here: per spec §7 they are fatal and abort the process
// instead (see internal/compiler.Compile).
type Error struct {
	Kind    Kind
	Message string
	Range   ast.Range
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s:%d:%d: %s", e.Kind, e.Range.File, e.Range.StartLine, e.Range.StartColumn, e.Message)
}

// New constructs an Error located at n's range.
func New(kind Kind, n ast.Node, format string, args ...any) *Error {
	rng := ast.Range{}
	if n != nil {
		rng = n.Range()
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Range: rng}
}

// Wrap attaches a source range to an error coming from a lower layer (e.g.
// internal/sym) that cannot itself depend on ast.Range. If err already
// carries a diag.Kind (via sym.Error), that kind is preserved; otherwise it
// is classified as UnresolvedSymbol, the most common lower-layer failure.
func Wrap(n ast.Node, err error) *Error {
	if de, ok := err.(*Error); ok {
		return de
	}
	kind := UnresolvedSymbol
	if kinder, ok := err.(interface{ DiagKind() string }); ok {
		kind = Kind(kinder.DiagKind())
	}
	return New(kind, n, "%s", err.Error())
}
