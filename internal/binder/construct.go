// Package binder implements Symbol Construction (4.D), the Association
// pass (4.E) and the Binding pass (4.F): turning a parse-tree forest plus
// the native registry into a populated sym.Arena and bound-tree function
// bodies.
package binder

import (
	"sort"

	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/sym"
)

// ConstructSymbols runs Symbol Construction (4.D) over every module in
// roots, defining symbols into arena in the two-key order spec.md
// prescribes: primary order by declaration kind (module, then type-level
// declaration, then function; template parameters and fields are defined
// while their owning declaration is constructed), suborder by
// module nesting depth (so an outer module's symbol exists before an inner
// module re-opens or nests under it).
//
// A plain impl block's functions (4.E) and a templated impl block's
// functions (recorded onto their target template, 4.E, and only given
// symbols when that template is later instantiated, 4.I) are deliberately
// not visited here — ConstructSymbols only walks declarations reachable
// directly through Module.Decls.
//
// Self-scopes for scope-opening nodes are never allocated here: the parser
// contract allocates one for every fresh declaration, and Node.Clone
// allocates one for every template-instance subtree (4.I). This pass only
// defines symbols into scopes that already exist.
func ConstructSymbols(arena *sym.Arena, roots []*ast.Module) error {
	var entries []constructEntry
	collectDecls(roots, 0, &entries)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].bucket != entries[j].bucket {
			return entries[i].bucket < entries[j].bucket
		}
		return entries[i].suborder < entries[j].suborder
	})

	for _, e := range entries {
		if err := constructOne(arena, e.node); err != nil {
			return err
		}
	}
	return nil
}

type constructEntry struct {
	node     ast.Node
	bucket   int
	suborder int
}

// collectDecls walks the module forest through Module.Decls only,
// classifying each declaration into Symbol Construction's three ordering
// buckets (0 modules, 1 type-level declarations, 3 functions) and
// recording module nesting depth as the suborder. Impl blocks contribute
// no entry of their own and their nested Functions are skipped entirely —
// Association (4.E) is solely responsible for giving them symbols.
func collectDecls(mods []*ast.Module, depth int, out *[]constructEntry) {
	for _, m := range mods {
		*out = append(*out, constructEntry{node: m, bucket: 0, suborder: depth})
		var nested []*ast.Module
		for _, d := range m.Decls {
			switch dd := d.(type) {
			case *ast.Module:
				nested = append(nested, dd)
			case *ast.Struct, *ast.TypeAlias, *ast.TypeTemplate, *ast.TemplatedImpl:
				*out = append(*out, constructEntry{node: dd, bucket: 1, suborder: 0})
			case *ast.Function, *ast.FunctionTemplate:
				*out = append(*out, constructEntry{node: dd, bucket: 3, suborder: 0})
			case *ast.Impl:
				// No symbol of its own; its functions belong to Associate.
			}
		}
		collectDecls(nested, depth+1, out)
	}
}

func constructOne(arena *sym.Arena, n ast.Node) error {
	switch d := n.(type) {
	case *ast.Module:
		return constructModule(arena, d)
	case *ast.Struct:
		return constructStruct(arena, d)
	case *ast.TypeAlias:
		return constructTypeAlias(arena, d)
	case *ast.TypeTemplate:
		return constructTypeTemplate(arena, d)
	case *ast.TemplatedImpl:
		return constructTemplatedImpl(arena, d)
	case *ast.Function:
		return constructFunction(arena, d)
	case *ast.FunctionTemplate:
		return constructFunctionTemplate(arena, d)
	}
	return nil
}

// selfScopeOf returns d's already-allocated self-scope. Per spec.md's
// design note, scope-opening nodes allocate their own self-scope at
// AST-construction time (the external parser) or at Node.Clone time
// (template instantiation, 4.I); Symbol Construction only ever defines
// symbols into scopes that already exist.
func selfScopeOf(n ast.ScopeOpener) sym.ScopeID { return n.SelfScope() }

func constructModule(arena *sym.Arena, d *ast.Module) error {
	self := selfScopeOf(d)
	s := &sym.Symbol{
		Variant: sym.Module, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: self,
	}
	// A re-opened module returns nil from arena.Define without error and
	// without a second insertion; d.Reopening is not consulted.
	return arena.Define(s)
}

func constructStruct(arena *sym.Arena, d *ast.Struct) error {
	self := selfScopeOf(d)
	s := &sym.Symbol{
		Variant: sym.Struct, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: self,
	}
	if err := arena.Define(s); err != nil {
		return err
	}
	for i, f := range d.Fields {
		fs := &sym.Symbol{
			Variant: sym.InstanceVar, Name: f.Name, Owner: self, Access: sym.Public,
			Instance: true, Index: i,
		}
		if err := arena.Define(fs); err != nil {
			return err
		}
	}
	return nil
}

func constructTypeAlias(arena *sym.Arena, d *ast.TypeAlias) error {
	s := &sym.Symbol{
		Variant: sym.TypeAlias, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: sym.NoScope,
	}
	return arena.Define(s)
}

func constructTypeTemplate(arena *sym.Arena, d *ast.TypeTemplate) error {
	self := selfScopeOf(d)
	s := &sym.Symbol{
		Variant: sym.TypeTemplate, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: self,
	}
	if err := arena.Define(s); err != nil {
		return err
	}
	params := make([]*sym.Symbol, len(d.TypeParams))
	for i, p := range d.TypeParams {
		ps := &sym.Symbol{Variant: sym.TypeTemplateParameter, Name: p.Name, Owner: self}
		if err := arena.Define(ps); err != nil {
			return err
		}
		params[i] = ps
	}
	s.TemplateParams = params
	for i, f := range d.Fields {
		fs := &sym.Symbol{
			Variant: sym.InstanceVar, Name: f.Name, Owner: self, Access: sym.Public,
			Instance: true, Index: i,
		}
		if err := arena.Define(fs); err != nil {
			return err
		}
	}
	return nil
}

func constructTemplatedImpl(arena *sym.Arena, d *ast.TemplatedImpl) error {
	self := selfScopeOf(d)
	s := &sym.Symbol{
		Variant: sym.TemplatedImpl, Name: "$impl", Owner: d.EnclosingScope(), Self: self,
	}
	if err := arena.Define(s); err != nil {
		return err
	}
	params := make([]*sym.Symbol, len(d.ImplParams))
	for i, p := range d.ImplParams {
		ps := &sym.Symbol{Variant: sym.ImplTemplateParameter, Name: p.Name, Owner: self}
		if err := arena.Define(ps); err != nil {
			return err
		}
		params[i] = ps
	}
	s.ImplTemplateParams = params
	return nil
}

func constructFunction(arena *sym.Arena, d *ast.Function) error {
	self := selfScopeOf(d)
	params := constructParams(arena, self, d.Params, d.IsInstance)
	fs := &sym.Symbol{
		Variant: sym.Function, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: self, Instance: d.IsInstance, Params: params,
	}
	return arena.Define(fs)
}

func constructFunctionTemplate(arena *sym.Arena, d *ast.FunctionTemplate) error {
	self := selfScopeOf(d)
	typeParams := make([]*sym.Symbol, len(d.TypeParams))
	for i, p := range d.TypeParams {
		ps := &sym.Symbol{Variant: sym.TypeTemplateParameter, Name: p.Name, Owner: self}
		if err := arena.Define(ps); err != nil {
			return err
		}
		typeParams[i] = ps
	}
	params := constructParams(arena, self, d.Params, d.IsInstance)
	fs := &sym.Symbol{
		Variant: sym.FunctionTemplate, Name: d.Name, Owner: d.EnclosingScope(),
		Access: accessOf(d.Access), Self: self, Instance: d.IsInstance,
		TemplateParams: typeParams, Params: params,
	}
	return arena.Define(fs)
}

// ConstructParams exposes constructParams to the template instantiator
// (4.I), which needs to build a function-template instance's parameter
// symbols the same way an ordinary function's are built, without
// duplicating the self-parameter/ordering logic.
func ConstructParams(arena *sym.Arena, self sym.ScopeID, decls []ast.Param, instance bool) []*sym.Symbol {
	return constructParams(arena, self, decls, instance)
}

// constructParams defines a SelfParameterVar (for instance functions) ahead
// of the declared ParameterVar symbols; their Type fields are left nil
// here and filled in by the binding pass once type-names can be resolved.
func constructParams(arena *sym.Arena, self sym.ScopeID, decls []ast.Param, instance bool) []*sym.Symbol {
	var out []*sym.Symbol
	if instance {
		sp := &sym.Symbol{Variant: sym.SelfParameterVar, Name: "self", Owner: self, IsSelf: true, Instance: true}
		_ = arena.Define(sp)
		out = append(out, sp)
	}
	for i, p := range decls {
		ps := &sym.Symbol{Variant: sym.ParameterVar, Name: p.Name, Owner: self, Index: i}
		_ = arena.Define(ps)
		out = append(out, ps)
	}
	return out
}

func accessOf(a ast.AccessLevel) sym.Access {
	if a == ast.Public {
		return sym.Public
	}
	return sym.Private
}
