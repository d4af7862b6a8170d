// Package sym implements the scope tree and symbol table: the single
// authority for name resolution and symbol ownership (spec component 4.A),
// plus the template-instance memoization it doubles as.
package sym

import "fmt"

// Variant tags the kind of program entity a Symbol names.
type Variant int

const (
	Module Variant = iota
	Struct
	TypeAlias
	TypeTemplateParameter
	ImplTemplateParameter
	TypeTemplate
	FunctionTemplate
	TemplatedImpl
	Function
	StaticVar
	InstanceVar
	LocalVar
	ParameterVar
	SelfParameterVar
	Label
)

func (v Variant) String() string {
	switch v {
	case Module:
		return "Module"
	case Struct:
		return "Struct"
	case TypeAlias:
		return "TypeAlias"
	case TypeTemplateParameter:
		return "TypeTemplateParameter"
	case ImplTemplateParameter:
		return "ImplTemplateParameter"
	case TypeTemplate:
		return "TypeTemplate"
	case FunctionTemplate:
		return "FunctionTemplate"
	case TemplatedImpl:
		return "TemplatedImpl"
	case Function:
		return "Function"
	case StaticVar:
		return "StaticVar"
	case InstanceVar:
		return "InstanceVar"
	case LocalVar:
		return "LocalVar"
	case ParameterVar:
		return "ParameterVar"
	case SelfParameterVar:
		return "SelfParameterVar"
	case Label:
		return "Label"
	default:
		return "Unknown"
	}
}

// Access is the two-tier visibility model; no Protected/Internal tier
// exists in this language.
type Access int

const (
	Private Access = iota
	Public
)

// ValueKind distinguishes an addressable L-value from a transient R-value;
// paired with a type symbol it forms a TypeInfo, which drives conversion
// selection (4.F).
type ValueKind int

const (
	RValue ValueKind = iota
	LValue
)

// TypeInfo is the (type-symbol, value-kind) pair the binder computes for
// every expression.
type TypeInfo struct {
	Type      *Symbol
	ValueKind ValueKind
}

func (t TypeInfo) IsVoid() bool { return t.Type != nil && t.Type.Name == "Void" }

// SizeKind is the result of a type symbol's size_kind() query (4.K).
type SizeKind int

const (
	Sized SizeKind = iota
	Unsized
	SizeError
)

// ID opaquely identifies a Symbol so that other symbols and scopes can
// reference it without holding a pointer into a mutable arena.
type ID int

// Symbol is a tagged record identifying a named program entity. Every
// variant shares the fields in Symbol's common section; variant-specific
// payload is documented per field below.
type Symbol struct {
	ID ID

	Variant  Variant
	Name     string
	Owner    ScopeID // the scope this symbol is defined in
	Access   Access
	Instance bool // instance-vs-static flag

	// Self is set for scope-opening variants: Module, Struct, TypeTemplate,
	// Function, FunctionTemplate, TemplatedImpl. -1 otherwise.
	Self ScopeID

	// Native marks a symbol as registry-provided rather than backed by a
	// parse-tree node: native types, native type templates (Reference,
	// StrongPointer, WeakPointer) and native/glue functions all set this.
	Native bool

	// --- Function payload ---
	ReturnType *Symbol
	Params     []*Symbol // ParameterVar symbols, declared order, no gaps
	Body       *Emittable

	// --- Template payload (TypeTemplate, FunctionTemplate, TemplatedImpl) ---
	TemplateParams     []*Symbol // TypeTemplateParameter symbols in declared order
	ImplTemplateParams []*Symbol // ImplTemplateParameter symbols in declared order

	// --- Template-instance payload (set on symbols produced by 4.I) ---
	Template     *Symbol   // the template this symbol instantiates; nil if not an instance
	TemplateArgs []*Symbol // value/type argument vector used to instantiate
	ImplArgs     []*Symbol // impl-parameter argument vector used to instantiate

	// --- TypeAlias payload ---
	AliasTarget *Symbol

	// --- Variable payload (StaticVar, InstanceVar, LocalVar, ParameterVar,
	// SelfParameterVar) ---
	Type     *Symbol
	Index    int  // declaration order for InstanceVar (glue field order) and parameters
	IsSelf   bool // true only for the implicit self parameter

	// --- Struct payload ---
	// Fields are looked up on demand via Arena.CollectDefined(Self, InstanceVar);
	// Index above gives declaration order.
	UserCopy *Symbol // op_copy, if user-defined
	UserDrop *Symbol // op_drop, if user-defined
	CopyGlue *Symbol // synthesized copy_glue$<sig>, attached by 4.J
	DropGlue *Symbol // synthesized drop_glue$<sig>, attached by 4.J
	Trivial  TrivialKind

	// --- Label payload: nothing extra; Label symbols are resolved purely by
	// name within the function's self-scope.
}

// TrivialKind records whether a struct is known to be trivially copyable
// and/or droppable, short-circuiting glue synthesis (4.J).
type TrivialKind int

const (
	NotTrivial TrivialKind = iota
	TriviallyCopyable
	TriviallyDroppable
	TriviallyCopyableAndDroppable
)

func (t TrivialKind) Copyable() bool {
	return t == TriviallyCopyable || t == TriviallyCopyableAndDroppable
}

func (t TrivialKind) Droppable() bool {
	return t == TriviallyDroppable || t == TriviallyCopyableAndDroppable
}

// IsReference reports whether s is an instantiation of the native
// Reference type template.
func (s *Symbol) IsReference() bool {
	return s != nil && s.Template != nil && s.Template.Name == "Reference" && len(s.TemplateArgs) == 1
}

// Referent returns s's pointee type when s is a Reference<T> instance,
// otherwise s itself. A Reference-typed variable is a transparent alias
// for its pointee (the same convention
// original_source/include/BoundNode/Variable/Parameter/Normal.hpp uses for
// self): naming it yields an L-value of the pointee's type, not of the
// reference type.
func (s *Symbol) Referent() *Symbol {
	if s.IsReference() {
		return s.TemplateArgs[0]
	}
	return s
}

// IsScopeOpener reports whether this symbol carries a self-scope.
func (s *Symbol) IsScopeOpener() bool {
	switch s.Variant {
	case Module, Struct, TypeTemplate, Function, FunctionTemplate, TemplatedImpl:
		return true
	default:
		return false
	}
}

// IsPlaceholder reports whether s is a template instantiation whose argument
// vector itself contains a template parameter — i.e. it is still generic
// and must be exempted from size validation (4.K) and glue synthesis (4.J).
func (s *Symbol) IsPlaceholder() bool {
	if s.Template == nil {
		return false
	}
	for _, a := range s.TemplateArgs {
		if a.Variant == TypeTemplateParameter {
			return true
		}
	}
	for _, a := range s.ImplArgs {
		if a.Variant == ImplTemplateParameter {
			return true
		}
	}
	return false
}

// Emittable is the opaque body of a function symbol: either a bound
// statement block or a native code-generation closure. Exactly one of the
// two fields is set.
type Emittable struct {
	Block  any // *bound.Block; kept as `any` to avoid an import cycle with the bound package
	Native func(ctx any) error
}

// Error kinds surfaced by the scope/symbol table (4.A) and reused by the
// rest of the pipeline; see spec §7.
type Kind string

const (
	ErrDuplicateSymbol  Kind = "DuplicateSymbol"
	ErrUnresolvedSymbol Kind = "UnresolvedSymbol"
	ErrInaccessible     Kind = "Inaccessible"
	ErrAmbiguousOverload   Kind = "AmbiguousOverload"
	ErrArgCountMismatch    Kind = "ArgCountMismatch"
	ErrCyclicAlias         Kind = "CyclicAlias"
	ErrTemplateArityMismatch Kind = "TemplateArityMismatch"
)

// NewTemplateArityError reports a template instantiated with the wrong
// number of type/impl arguments.
func NewTemplateArityError(template string, want, got int) *Error {
	return newErr(ErrTemplateArityMismatch, "template %q expects %d argument(s), got %d", template, want, got)
}

// Error is the scope/symbol table's uniform error value. It carries no
// source range itself — callers (the binder) attach one, since only they
// know the offending parse node.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// DiagKind lets internal/diag classify a sym.Error without sym depending
// on diag (which in turn depends on ast, which sym must not import).
func (e *Error) DiagKind() string { return string(e.Kind) }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}
