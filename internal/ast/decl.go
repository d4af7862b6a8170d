package ast

import "github.com/ace-lang/acec/internal/sym"

// Decl is implemented by every top-level (symbol-producing) declaration.
type Decl interface {
	Node
	declNode()
}

// TemplateParamName is one formal parameter of a function/type template:
// a type parameter (`T`) or an implementing-type parameter (`Impl:
// SomeInterface`, matched against the concrete self-type a templated impl
// is instantiated for).
type TemplateParamName struct {
	Name string
}

// Param is one function parameter: `name: TypeName`.
type Param struct {
	Name     string
	TypeName *Name
}

// Module is `module name { decls... }`. Re-opening an existing module
// (same qualified name, possibly in another file) is legal provided the
// access modifier matches (4.D's IPartiallyCreatable).
type Module struct {
	Scoped
	Name      string
	Access    AccessLevel
	Reopening bool
	Decls     []Decl
}

func (d *Module) declNode() {}
func (d *Module) ContinuesExisting() bool { return d.Reopening }
func (d *Module) Children() []Node {
	out := make([]Node, len(d.Decls))
	for i, c := range d.Decls {
		out[i] = c
	}
	return out
}
func (d *Module) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, d.Name))
	c.Decls = make([]Decl, len(d.Decls))
	for i, decl := range d.Decls {
		c.Decls[i] = decl.Clone(a, c.Self).(Decl)
	}
	return &c
}

// StructField is one `name: TypeName` member of a struct or type template.
type StructField struct {
	Name     string
	TypeName *Name
}

// Struct is `struct Name { fields... }` with no template parameters.
type Struct struct {
	Scoped
	Name   string
	Access AccessLevel
	Fields []StructField
}

func (d *Struct) declNode()        {}
func (d *Struct) Children() []Node { return nil }
func (d *Struct) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, d.Name))
	c.Fields = append([]StructField(nil), d.Fields...)
	return &c
}

// TypeTemplate is `struct Name<T, ...> { fields... }`: a generic struct
// declaration. Instantiating it (4.I) produces a Struct-variant symbol
// whose Template field points back at this template's symbol.
type TypeTemplate struct {
	Scoped
	Name       string
	Access     AccessLevel
	TypeParams []TemplateParamName
	Fields     []StructField
	// Methods accumulated by the Association pass (4.E) from templated
	// impl blocks targeting this template; copied into every instance.
	Methods []*Function
}

func (d *TypeTemplate) declNode()        {}
func (d *TypeTemplate) Children() []Node { return nil }
func (d *TypeTemplate) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, d.Name))
	c.Fields = append([]StructField(nil), d.Fields...)
	c.Methods = make([]*Function, len(d.Methods))
	for i, m := range d.Methods {
		c.Methods[i] = m.Clone(a, c.Self).(*Function)
	}
	return &c
}

// TypeAlias is `type Name = TypeName;`. Chains must be acyclic (4.A).
type TypeAlias struct {
	Base
	Name     string
	Access   AccessLevel
	TypeName *Name
}

func (d *TypeAlias) declNode()        {}
func (d *TypeAlias) Children() []Node { return nil }
func (d *TypeAlias) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	tn := *d.TypeName
	tn.Sections = append([]NameSection(nil), d.TypeName.Sections...)
	c.TypeName = &tn
	return &c
}

// Function is a function (or method) declaration, with or without a body.
// A nil Body means a native function (the body is supplied by the natives
// registry, not a parse tree).
type Function struct {
	Scoped
	Name       string
	Access     AccessLevel
	IsInstance bool
	Params     []Param
	ReturnType *Name // nil means Void
	Body       *Block
	Attrs      []*Attribute
}

func (d *Function) declNode() {}
func (d *Function) Children() []Node {
	if d.Body == nil {
		return nil
	}
	return []Node{d.Body}
}
func (d *Function) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, d.Name))
	c.Params = append([]Param(nil), d.Params...)
	if d.ReturnType != nil {
		rt := *d.ReturnType
		c.ReturnType = &rt
	}
	if d.Body != nil {
		c.Body = d.Body.Clone(a, c.Self).(*Block)
	}
	return &c
}

// FunctionTemplate is a generic function declaration: `fn name[T](params)
// -> Ret { body }`.
type FunctionTemplate struct {
	Scoped
	Name       string
	Access     AccessLevel
	IsInstance bool
	TypeParams []TemplateParamName
	Params     []Param
	ReturnType *Name
	Body       *Block
}

func (d *FunctionTemplate) declNode() {}
func (d *FunctionTemplate) Children() []Node {
	if d.Body == nil {
		return nil
	}
	return []Node{d.Body}
}
func (d *FunctionTemplate) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, d.Name))
	c.Params = append([]Param(nil), d.Params...)
	if d.ReturnType != nil {
		rt := *d.ReturnType
		c.ReturnType = &rt
	}
	if d.Body != nil {
		c.Body = d.Body.Clone(a, c.Self).(*Block)
	}
	return &c
}

// Impl is a plain (non-templated) impl block: `impl TargetType { fns... }`.
// It produces no symbol of its own (4.E): the Association pass appends its
// functions directly into TargetType's self-scope.
type Impl struct {
	Base
	TargetType *Name
	Functions  []*Function
}

func (d *Impl) declNode() {}
func (d *Impl) Children() []Node {
	out := make([]Node, len(d.Functions))
	for i, f := range d.Functions {
		out[i] = f
	}
	return out
}
func (d *Impl) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	tn := *d.TargetType
	c.TargetType = &tn
	c.Functions = make([]*Function, len(d.Functions))
	for i, f := range d.Functions {
		c.Functions[i] = f.Clone(a, parent).(*Function)
	}
	return &c
}

// TemplatedImpl is `impl[T] TargetTemplate<T> { fns... }`: an impl block
// whose target is a type *template*. Association (4.E) records its
// function nodes on the target template so every future instantiation
// copies them; TemplatedImpl itself produces a symbol (so it can carry
// impl-template-parameters and be instantiated alongside its target).
type TemplatedImpl struct {
	Scoped
	ImplParams []TemplateParamName
	TargetType *Name
	Functions  []*Function
}

func (d *TemplatedImpl) declNode() {}
func (d *TemplatedImpl) Children() []Node {
	out := make([]Node, len(d.Functions))
	for i, f := range d.Functions {
		out[i] = f
	}
	return out
}
func (d *TemplatedImpl) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *d
	c.SetEnclosingScope(parent)
	c.SetSelfScope(a.NewScope(parent, "$impl"))
	tn := *d.TargetType
	c.TargetType = &tn
	c.Functions = make([]*Function, len(d.Functions))
	for i, f := range d.Functions {
		c.Functions[i] = f.Clone(a, c.Self).(*Function)
	}
	return &c
}
