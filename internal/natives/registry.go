package natives

import (
	"fmt"

	"github.com/ace-lang/acec/internal/sym"
)

// Registry holds static descriptors for built-in types, type templates and
// free functions, resolved against the scope tree during Init. Failure
// during Init is fatal (a broken native catalog is a compiler bug, not a
// recoverable user error).
type Registry struct {
	arena *sym.Arena
	root  sym.ScopeID

	types     map[string]*sym.Symbol
	templates map[string]*sym.Symbol
	free      map[string]*sym.Symbol

	irTypes  map[*sym.Symbol]string
	implicit map[*sym.Symbol]map[*sym.Symbol]*sym.Symbol
	explicit map[*sym.Symbol]map[*sym.Symbol]*sym.Symbol
}

// Init resolves every native descriptor against arena's scope tree rooted
// at root, defining the corresponding symbols. Returns a ready Registry.
func Init(arena *sym.Arena, root sym.ScopeID) (*Registry, error) {
	r := &Registry{
		arena:     arena,
		root:      root,
		types:     map[string]*sym.Symbol{},
		templates: map[string]*sym.Symbol{},
		free:      map[string]*sym.Symbol{},
		irTypes:   map[*sym.Symbol]string{},
		implicit:  map[*sym.Symbol]map[*sym.Symbol]*sym.Symbol{},
		explicit:  map[*sym.Symbol]map[*sym.Symbol]*sym.Symbol{},
	}

	if err := r.defineSimpleTypes(); err != nil {
		return nil, fmt.Errorf("natives: defining Void/Bool/Pointer/String: %w", err)
	}
	if err := r.defineNumerics(); err != nil {
		return nil, fmt.Errorf("natives: defining numeric types: %w", err)
	}
	if err := r.defineTemplates(); err != nil {
		return nil, fmt.Errorf("natives: defining type templates: %w", err)
	}
	if err := r.defineFreeFunctions(); err != nil {
		return nil, fmt.Errorf("natives: defining free functions: %w", err)
	}
	return r, nil
}

func (r *Registry) defineType(name string, irType string) (*sym.Symbol, error) {
	self := r.arena.NewScope(r.root, name)
	t := &sym.Symbol{
		Variant: sym.Struct,
		Name:    name,
		Owner:   r.root,
		Access:  sym.Public,
		Self:    self,
		Native:  true,
		Trivial: sym.TriviallyCopyableAndDroppable,
	}
	if err := r.arena.Define(t); err != nil {
		return nil, err
	}
	r.types[name] = t
	if irType != "" {
		r.irTypes[t] = irType
	}
	return t, nil
}

func (r *Registry) defineSimpleTypes() error {
	for _, n := range []struct{ name, ir string }{
		{"Void", "void"}, {"Bool", "i1"}, {"Pointer", "ptr"}, {"String", "ptr"},
	} {
		if _, err := r.defineType(n.name, n.ir); err != nil {
			return err
		}
	}
	// Bool gets a logical-negation operator and equality; String and
	// Pointer get identity equality only.
	boolT := r.types["Bool"]
	if err := r.defineOp(boolT, "op_logical_not", nil, boolT); err != nil {
		return err
	}
	for _, op := range []string{"op_equals", "op_not_equals"} {
		if err := r.defineOp(boolT, op, []*sym.Symbol{boolT}, boolT); err != nil {
			return err
		}
	}
	for _, t := range []*sym.Symbol{r.types["String"], r.types["Pointer"]} {
		for _, op := range []string{"op_equals", "op_not_equals"} {
			if err := r.defineOp(t, op, []*sym.Symbol{t}, boolT); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) defineNumerics() error {
	for _, d := range numerics {
		t, err := r.defineType(d.name, d.irType)
		if err != nil {
			return err
		}
		for _, op := range arithmeticOps {
			if err := r.defineOp(t, op, []*sym.Symbol{t}, t); err != nil {
				return err
			}
		}
		if d.kind != float {
			for _, op := range bitwiseOps {
				if err := r.defineOp(t, op, []*sym.Symbol{t}, t); err != nil {
					return err
				}
			}
			if err := r.defineOp(t, "op_bit_not", nil, t); err != nil {
				return err
			}
		}
		boolT := r.types["Bool"]
		for _, op := range comparisonOps {
			if err := r.defineOp(t, op, []*sym.Symbol{t}, boolT); err != nil {
				return err
			}
		}
		if err := r.defineOp(t, "op_unary_minus", nil, t); err != nil {
			return err
		}
	}

	// Conversion operators + implicit/explicit maps. Every ordered pair of
	// distinct numeric types gets an explicit `Type::from_x` conversion
	// function; pairs where `widens` holds are additionally registered as
	// implicit.
	for _, from := range numerics {
		for _, to := range numerics {
			if from.name == to.name {
				continue
			}
			fromSym, toSym := r.types[from.name], r.types[to.name]
			fname := "from_" + lowerFirst(from.name)
			fn, err := r.defineStaticOp(toSym, fname, []*sym.Symbol{fromSym}, toSym)
			if err != nil {
				return err
			}
			r.registerExplicit(fromSym, toSym, fn)
			if widens(from, to) {
				r.registerImplicit(fromSym, toSym, fn)
			}
		}
	}
	return nil
}

// defineOp defines an instance method on t's self-scope.
func (r *Registry) defineOp(t *sym.Symbol, name string, params []*sym.Symbol, ret *sym.Symbol) error {
	self := &sym.Symbol{Variant: sym.SelfParameterVar, Name: "self", Owner: t.Self, Type: t, IsSelf: true, Instance: true}
	fn := &sym.Symbol{
		Variant:    sym.Function,
		Name:       name,
		Owner:      t.Self,
		Access:     sym.Public,
		Instance:   true,
		Native:     true,
		ReturnType: ret,
		Params:     append([]*sym.Symbol{self}, wrapParams(params, t.Self)...),
	}
	return r.arena.Define(fn)
}

// defineStaticOp defines a static method on t's self-scope (used for
// conversion operators, which are called as Type::from_x(value)).
func (r *Registry) defineStaticOp(t *sym.Symbol, name string, params []*sym.Symbol, ret *sym.Symbol) (*sym.Symbol, error) {
	fn := &sym.Symbol{
		Variant:    sym.Function,
		Name:       name,
		Owner:      t.Self,
		Access:     sym.Public,
		Instance:   false,
		Native:     true,
		ReturnType: ret,
		Params:     wrapParams(params, t.Self),
	}
	if err := r.arena.Define(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

func wrapParams(types []*sym.Symbol, owner sym.ScopeID) []*sym.Symbol {
	out := make([]*sym.Symbol, len(types))
	for i, t := range types {
		out[i] = &sym.Symbol{Variant: sym.ParameterVar, Name: fmt.Sprintf("arg%d", i), Owner: owner, Type: t, Index: i}
	}
	return out
}

func (r *Registry) registerImplicit(from, to, fn *sym.Symbol) {
	m := r.implicit[from]
	if m == nil {
		m = map[*sym.Symbol]*sym.Symbol{}
		r.implicit[from] = m
	}
	m[to] = fn
}

func (r *Registry) registerExplicit(from, to, fn *sym.Symbol) {
	m := r.explicit[from]
	if m == nil {
		m = map[*sym.Symbol]*sym.Symbol{}
		r.explicit[from] = m
	}
	m[to] = fn
}

// Arena returns the scope/symbol arena the registry was Init'd against.
// internal/compiler.Compile builds on top of this same arena rather than
// allocating a fresh one, since every native symbol Init defined carries
// ScopeIDs that are only meaningful within it.
func (r *Registry) Arena() *sym.Arena { return r.arena }

// Root returns the scope Init defined every native symbol into.
func (r *Registry) Root() sym.ScopeID { return r.root }

// Type looks up a native type symbol by name (e.g. "Int32", "Bool").
func (r *Registry) Type(name string) (*sym.Symbol, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Template looks up a native type template symbol by name ("Reference",
// "StrongPointer", "WeakPointer").
func (r *Registry) Template(name string) (*sym.Symbol, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Free looks up a native free function by name.
func (r *Registry) Free(name string) (*sym.Symbol, bool) {
	f, ok := r.free[name]
	return f, ok
}

// IRTypeOf returns the opaque IR type tag for a native primitive symbol.
// Non-primitive (or non-native) symbols have no entry.
func (r *Registry) IRTypeOf(s *sym.Symbol) (string, bool) {
	t, ok := r.irTypes[s]
	return t, ok
}

// ImplicitConversion returns the conversion function from -> to, if the
// native registry knows a lossless widening between them.
func (r *Registry) ImplicitConversion(from, to *sym.Symbol) (*sym.Symbol, bool) {
	fn, ok := r.implicit[from][to]
	return fn, ok
}

// ExplicitConversion returns the conversion function from -> to, if the
// native registry knows any castable pair between them (including lossy
// truncations and float<->int).
func (r *Registry) ExplicitConversion(from, to *sym.Symbol) (*sym.Symbol, bool) {
	fn, ok := r.explicit[from][to]
	return fn, ok
}

// Rank implements sym.ConversionRanker using only the native conversion
// tables; the binder wraps this with a ranker that also consults
// user-defined op_implicit_from operators.
func (r *Registry) Rank(from, to *sym.Symbol) sym.ConversionRank {
	if from == to {
		return sym.RankExact
	}
	if _, ok := r.ImplicitConversion(from, to); ok {
		return sym.RankImplicitNative
	}
	return sym.RankNoConversion
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
