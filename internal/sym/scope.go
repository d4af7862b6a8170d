package sym

import (
	"fmt"
	"strings"
	"sync"
)

// ScopeID is an opaque handle into an Arena. Symbols and scopes reference
// each other by ID rather than by pointer, breaking the ownership cycle
// between a scope (which owns its symbols) and a symbol (which points back
// at its owning scope).
type ScopeID int

// NoScope is the zero-value sentinel meaning "not applicable" (e.g. a
// non-scope-opening symbol's Self field).
const NoScope ScopeID = -1

// Scope is a node in the tree of naming environments.
type Scope struct {
	id       ScopeID
	parent   ScopeID // NoScope at the root
	name     string
	level    int // root = 0
	children []ScopeID

	symbols []*Symbol
	byName  map[string][]*Symbol // name -> overload set (functions) or singleton

	instanceCache map[string]*Symbol // template-instance memo, keyed by structural signature

	anonCounter int
}

// Arena owns every scope and symbol created during a compilation. Exactly
// one root scope exists per compilation; child scopes never outlive their
// parent because nothing in the arena is ever removed.
type Arena struct {
	mu     sync.RWMutex
	scopes []*Scope
	nextID ID
}

// NewArena creates an arena containing only the root scope.
func NewArena() *Arena {
	a := &Arena{}
	root := &Scope{id: 0, parent: NoScope, name: "", level: 0, byName: map[string][]*Symbol{}, instanceCache: map[string]*Symbol{}}
	a.scopes = append(a.scopes, root)
	return a
}

// Root returns the root scope's ID.
func (a *Arena) Root() ScopeID { return 0 }

// NewScope allocates a child scope of parent. Self-scope allocation for a
// declaration is always driven by the node that owns it (the AST
// constructor for a fresh tree, or Node.Clone for a template instance).
func (a *Arena) NewScope(parent ScopeID, name string) ScopeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.scopes[parent]
	id := ScopeID(len(a.scopes))
	s := &Scope{
		id:            id,
		parent:        parent,
		name:          name,
		level:         p.level + 1,
		byName:        map[string][]*Symbol{},
		instanceCache: map[string]*Symbol{},
	}
	a.scopes = append(a.scopes, s)
	p.children = append(p.children, id)
	return id
}

func (a *Arena) scope(id ScopeID) *Scope { return a.scopes[id] }

// Parent returns id's parent and whether one exists (false at the root).
func (a *Arena) Parent(id ScopeID) (ScopeID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p := a.scope(id).parent
	return p, p != NoScope
}

// IsAncestor reports whether anc is an ancestor of (or equal to) desc,
// walking parent links. Used by the Inaccessible check and by tests
// validating the universal scope-tree invariant.
func (a *Arena) IsAncestor(anc, desc ScopeID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for cur := desc; ; {
		if cur == anc {
			return true
		}
		s := a.scope(cur)
		if s.parent == NoScope {
			return cur == anc
		}
		cur = s.parent
	}
}

// NewAnonymousLabel allocates a fresh "$anonymous_N" identifier scoped to
// the given scope's own counter, for synthesized While-lowering labels.
func (a *Arena) NewAnonymousLabel(id ScopeID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.scope(id)
	s.anonCounter++
	return fmt.Sprintf("$anonymous_%d", s.anonCounter)
}

// Define inserts sym into its owning scope (sym.Owner). Fails with
// DuplicateSymbol when a Function with an identical (name, param-type
// signature) already exists, or (for every other variant) when a symbol
// with the identical name exists. An access-modifier mismatch against a
// prior *partial* definition of the same name is also fatal.
func (a *Arena) Define(s *Symbol) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	scope := a.scope(s.Owner)
	existing := scope.byName[s.Name]

	if s.Variant == Function {
		for _, e := range existing {
			if e.Variant == Function && sameParamTypes(e.Params, s.Params) {
				return newErr(ErrDuplicateSymbol, "function %q already defined with identical parameter types in scope %q", s.Name, scope.name)
			}
		}
	} else {
		for _, e := range existing {
			if e.Variant == Module && s.Variant == Module {
				if e.Access != s.Access {
					return newErr(ErrDuplicateSymbol, "module %q re-opened with conflicting access modifier", s.Name)
				}
				// Re-opening a module is legal; do not duplicate-insert.
				return nil
			}
			return newErr(ErrDuplicateSymbol, "%q already defined in scope %q", s.Name, scope.name)
		}
	}

	s.ID = a.nextID
	a.nextID++
	scope.symbols = append(scope.symbols, s)
	scope.byName[s.Name] = append(scope.byName[s.Name], s)
	return nil
}

// DefineInstance registers a template instance (4.I) directly into its own
// scope's symbol list without going through Define's by-name duplicate
// check. An instance necessarily shares its template's name in its
// template's owning scope (e.g. both are called "StrongPointer"), so
// by-name insertion would always collide with the template symbol itself.
// Instances are never looked up by name in the first place — callers reach
// them only through the *Symbol ResolveOrInstantiate returns, memoized by
// TemplateCacheStore/TemplateCacheLookup — so DefineInstance only needs to
// hand out an ID and make the symbol visible to scope-tree walks
// (CollectAll, FindBySelf).
func (a *Arena) DefineInstance(s *Symbol) {
	a.mu.Lock()
	defer a.mu.Unlock()
	scope := a.scope(s.Owner)
	s.ID = a.nextID
	a.nextID++
	scope.symbols = append(scope.symbols, s)
}

// FindBySelf scans every defined symbol for the one whose Self scope
// equals self, letting the binder (4.F) recover a declaration's
// already-constructed symbol from its AST node without Construction (4.D)
// or Association (4.E) threading extra bookkeeping through.
func (a *Arena) FindBySelf(self ScopeID) *Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, scope := range a.scopes {
		for _, s := range scope.symbols {
			if s.IsScopeOpener() && s.Self == self {
				return s
			}
		}
	}
	return nil
}

func sameParamTypes(a, b []*Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

// CollectDefined returns the symbols of the given variant directly defined
// in scope (no recursion into children).
func (a *Arena) CollectDefined(scope ScopeID, variant Variant) []*Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*Symbol
	for _, s := range a.scope(scope).symbols {
		if s.Variant == variant {
			out = append(out, s)
		}
	}
	return out
}

// CollectAll recursively collects symbols of the given variant starting at
// scope and descending into every child scope.
func (a *Arena) CollectAll(scope ScopeID, variant Variant) []*Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*Symbol
	a.collectAllLocked(scope, variant, &out)
	return out
}

func (a *Arena) collectAllLocked(scope ScopeID, variant Variant, out *[]*Symbol) {
	s := a.scope(scope)
	for _, sy := range s.symbols {
		if sy.Variant == variant {
			*out = append(*out, sy)
		}
	}
	for _, c := range s.children {
		a.collectAllLocked(c, variant, out)
	}
}

// Lookup finds symbols named `name` directly defined in scope.
func (a *Arena) Lookup(scope ScopeID, name string) []*Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Symbol(nil), a.scope(scope).byName[name]...)
}

// LookupChain walks from scope up through parents (not into children),
// returning the first scope with a matching name.
func (a *Arena) LookupChain(scope ScopeID, name string) []*Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for cur := scope; ; {
		s := a.scope(cur)
		if hits := s.byName[name]; len(hits) > 0 {
			return append([]*Symbol(nil), hits...)
		}
		if s.parent == NoScope {
			return nil
		}
		cur = s.parent
	}
}

// Section is a single resolved segment of a qualified name: an identifier
// plus already-resolved template-argument symbols (resolved recursively by
// the binder before calling ResolveStatic, so this package never needs to
// understand ast.Name itself).
type Section struct {
	Identifier   string
	TemplateArgs []*Symbol // type arguments, already-resolved; nil if not a template section
}

// ResolveStatic walks name sections from root. For each section except the
// last it looks up by name (and, if the section carries template
// arguments, instantiates via inst); for the last, if argTypes is
// non-nil, overload selection (SelectOverload) picks among same-named
// Function candidates.
func (a *Arena) ResolveStatic(root ScopeID, sections []Section, argTypes []*Symbol, inst Instantiator) (*Symbol, error) {
	if len(sections) == 0 {
		return nil, newErr(ErrUnresolvedSymbol, "empty name")
	}

	cur := root
	var found *Symbol
	for i, sec := range sections {
		last := i == len(sections)-1

		candidates := a.LookupChain(cur, sec.Identifier)
		if len(candidates) == 0 {
			return nil, newErr(ErrUnresolvedSymbol, "%q not found", sec.Identifier)
		}

		var picked *Symbol
		if last && argTypes != nil {
			var err error
			picked, err = SelectOverload(candidates, argTypes)
			if err != nil {
				return nil, err
			}
		} else {
			picked = candidates[0]
		}

		if err := a.CheckAccess(picked, root); err != nil {
			return nil, err
		}

		if len(sec.TemplateArgs) > 0 {
			if inst == nil {
				return nil, newErr(ErrUnresolvedSymbol, "%q requires template instantiation support", sec.Identifier)
			}
			instantiated, err := inst.ResolveOrInstantiate(picked, nil, sec.TemplateArgs)
			if err != nil {
				return nil, err
			}
			picked = instantiated
		}

		found = picked
		if picked.IsScopeOpener() {
			cur = picked.Self
		}
	}

	return found, nil
}

// ResolveInstance resolves a name starting from selfType's self-scope and
// (for methods) impl scopes attached to the type's template. from is the
// scope the reference appears in, checked against the picked symbol's
// Access (4.A).
func (a *Arena) ResolveInstance(selfType *Symbol, name string, argTypes []*Symbol, from ScopeID) (*Symbol, error) {
	candidates := a.Lookup(selfType.Self, name)
	if selfType.Template != nil {
		candidates = append(candidates, a.Lookup(selfType.Template.Self, name)...)
	}
	if len(candidates) == 0 {
		return nil, newErr(ErrUnresolvedSymbol, "%q not found on type %q", name, selfType.Name)
	}
	var picked *Symbol
	if argTypes == nil {
		picked = candidates[0]
	} else {
		var err error
		picked, err = SelectOverload(candidates, argTypes)
		if err != nil {
			return nil, err
		}
	}
	if err := a.CheckAccess(picked, from); err != nil {
		return nil, err
	}
	return picked, nil
}

// CheckAccess enforces the two-tier visibility model (4.A): a Private
// symbol is nameable only from within its own owning scope (or a scope
// nested inside it); a Public symbol is nameable from anywhere.
func (a *Arena) CheckAccess(candidate *Symbol, from ScopeID) error {
	if candidate.Access == Public || a.IsAncestor(candidate.Owner, from) {
		return nil
	}
	a.mu.RLock()
	name := a.scope(candidate.Owner).name
	a.mu.RUnlock()
	return newErr(ErrInaccessible, "%q is private to scope %q", candidate.Name, name)
}

// Instantiator is implemented by the template instantiator (4.I); ResolveStatic
// depends on it only through this narrow interface to avoid an import cycle.
type Instantiator interface {
	ResolveOrInstantiate(template *Symbol, implArgs, args []*Symbol) (*Symbol, error)
}

// TemplateCacheKey builds a stable structural key for a template-instance
// cache lookup. Arguments are alias-unwrapped first (4.I step 1) so two
// resolve_or_instantiate calls whose argument vectors reach the same
// underlying type through different TypeAlias symbols hit the same cache
// entry and return the same instance symbol.
func TemplateCacheKey(implArgs, args []*Symbol) string {
	var b strings.Builder
	for _, s := range implArgs {
		fmt.Fprintf(&b, "I%d;", unwrapAlias(s).ID)
	}
	for _, s := range args {
		fmt.Fprintf(&b, "A%d;", unwrapAlias(s).ID)
	}
	return b.String()
}

// unwrapAlias follows a TypeAlias chain to its ultimate non-alias target.
func unwrapAlias(s *Symbol) *Symbol {
	for s != nil && s.Variant == TypeAlias && s.AliasTarget != nil {
		s = s.AliasTarget
	}
	return s
}

// TemplateCacheLookup memoizes instantiations per spec.md's
// template_instance_cache operation.
func (a *Arena) TemplateCacheLookup(template *Symbol, key string) (*Symbol, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.scope(template.Owner).instanceCache[templateKey(template, key)]
	return s, s != nil
}

func (a *Arena) TemplateCacheStore(template *Symbol, key string, instance *Symbol) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scope(template.Owner).instanceCache[templateKey(template, key)] = instance
}

func templateKey(template *Symbol, key string) string {
	return fmt.Sprintf("%d:%s", template.ID, key)
}
