// Package sema implements the passes that run after Binding (4.F): the
// fixed-point transformer (4.G), control-flow analysis (4.H), template
// instantiation (4.I), glue synthesis (4.J) and the type-size validator
// (4.K). Unlike internal/binder, which only ever walks a fixed parse-tree
// forest once, these passes interact — instantiating a template attaches
// new function bodies that must themselves be bound, stabilized and
// control-flow-checked before compilation can finish.
package sema

import (
	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/binder"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
	"github.com/ace-lang/acec/internal/walk"
)

// Instantiator implements sym.Instantiator (4.I) for every template kind.
// Native type templates (Reference, StrongPointer, WeakPointer) delegate
// to Native, shared with the Binding pass so the two can never produce two
// distinct instance symbols for the same template/argument pair — both
// consult the same arena template-instance cache. User TypeTemplate and
// FunctionTemplate declarations go through the two-phase
// eager-symbols/deferred-semantics scheme spec.md 4.I prescribes: symbols
// are constructed immediately (so the instance pointer can be cached and
// returned before its body is bound), and the clone's body is bound only
// once Drain runs, breaking the cycle where instantiating template A from
// inside template B's body would otherwise need to bind B before B's own
// symbols exist.
type Instantiator struct {
	Arena   *sym.Arena
	Natives *natives.Registry
	Native  *binder.NativeInstantiator

	nodesBySelf map[sym.ScopeID]ast.Node
	pending     []*pendingInstance
}

// pendingInstance is one instantiated clone awaiting semantic
// instantiation: Binding (4.F), deferred until Drain runs.
type pendingInstance struct {
	instance *sym.Symbol
	node     ast.Node // the cloned *ast.TypeTemplate or *ast.FunctionTemplate
}

// NewInstantiator builds an Instantiator able to find any template's
// stored parse-tree node (for cloning) by indexing every module in roots
// once up front.
func NewInstantiator(arena *sym.Arena, nat *natives.Registry, native *binder.NativeInstantiator, roots []*ast.Module) *Instantiator {
	in := &Instantiator{
		Arena: arena, Natives: nat, Native: native,
		nodesBySelf: map[sym.ScopeID]ast.Node{},
	}
	for _, n := range walk.Modules(roots) {
		if so, ok := n.(ast.ScopeOpener); ok {
			in.nodesBySelf[so.SelfScope()] = n
		}
	}
	return in
}

// ResolveOrInstantiate is sym.Instantiator's single operation (4.I's
// resolve_or_instantiate): normalize-and-cache-check, then either delegate
// to the native path or clone+construct the user template's instance and
// queue it for deferred binding.
func (in *Instantiator) ResolveOrInstantiate(template *sym.Symbol, implArgs, args []*sym.Symbol) (*sym.Symbol, error) {
	if template.Native {
		return in.Native.ResolveOrInstantiate(template, implArgs, args)
	}

	key := sym.TemplateCacheKey(implArgs, args)
	if inst, ok := in.Arena.TemplateCacheLookup(template, key); ok {
		return inst, nil
	}

	node, ok := in.nodesBySelf[template.Self]
	if !ok {
		return nil, sym.NewTemplateArityError(template.Name, len(template.TemplateParams), len(args))
	}

	switch tn := node.(type) {
	case *ast.TypeTemplate:
		return in.instantiateType(template, tn, implArgs, args, key)
	case *ast.FunctionTemplate:
		return in.instantiateFunction(template, tn, implArgs, args, key)
	default:
		return nil, sym.NewTemplateArityError(template.Name, len(template.TemplateParams), len(args))
	}
}

// instantiateType clones a TypeTemplate's parse subtree, defines the
// instance's own Struct symbol (via DefineInstance — never Define, since
// the instance necessarily shares the template's bare name in the
// template's owning scope), aliases each type parameter to its supplied
// argument, defines the cloned fields and method symbols, and queues the
// methods for deferred binding.
func (in *Instantiator) instantiateType(template *sym.Symbol, tn *ast.TypeTemplate, implArgs, args []*sym.Symbol, key string) (*sym.Symbol, error) {
	if len(args) != len(template.TemplateParams) {
		return nil, sym.NewTemplateArityError(template.Name, len(template.TemplateParams), len(args))
	}
	clone := tn.Clone(in.Arena, template.Owner).(*ast.TypeTemplate)
	self := clone.SelfScope()

	instance := &sym.Symbol{
		Variant: sym.Struct, Name: template.Name, Owner: template.Owner, Access: template.Access,
		Self: self, Template: template, TemplateArgs: args, ImplArgs: implArgs,
	}
	in.Arena.DefineInstance(instance)

	for i, p := range template.TemplateParams {
		alias := &sym.Symbol{Variant: sym.TypeAlias, Name: p.Name, Owner: self, AliasTarget: args[i]}
		if err := in.Arena.Define(alias); err != nil {
			return nil, err
		}
	}

	for i, f := range clone.Fields {
		fs := &sym.Symbol{
			Variant: sym.InstanceVar, Name: f.Name, Owner: self, Access: sym.Public,
			Instance: true, Index: i,
		}
		if err := in.Arena.Define(fs); err != nil {
			return nil, err
		}
	}

	for _, m := range clone.Methods {
		if err := binder.DefineInstanceFunction(in.Arena, instance.Self, m); err != nil {
			return nil, err
		}
	}

	in.Arena.TemplateCacheStore(template, key, instance)
	in.pending = append(in.pending, &pendingInstance{instance: instance, node: clone})
	return instance, nil
}

// instantiateFunction clones a FunctionTemplate's parse subtree into a
// concrete Function symbol the same way instantiateType does for a
// struct, queuing its body for deferred binding.
//
// Function templates combined with a templated impl's self-type (a
// generic method on a generic struct) are out of scope here: every caller
// of resolve_or_instantiate on a FunctionTemplate in this pipeline reaches
// it through a free (non-instance) call, never through an already-bound
// self-type's instance-method resolution, so clone.IsInstance is always
// false in practice; see DESIGN.md.
func (in *Instantiator) instantiateFunction(template *sym.Symbol, tn *ast.FunctionTemplate, implArgs, args []*sym.Symbol, key string) (*sym.Symbol, error) {
	if len(args) != len(template.TemplateParams) {
		return nil, sym.NewTemplateArityError(template.Name, len(template.TemplateParams), len(args))
	}
	clone := tn.Clone(in.Arena, template.Owner).(*ast.FunctionTemplate)
	self := clone.SelfScope()

	for i, p := range template.TemplateParams {
		alias := &sym.Symbol{Variant: sym.TypeAlias, Name: p.Name, Owner: self, AliasTarget: args[i]}
		if err := in.Arena.Define(alias); err != nil {
			return nil, err
		}
	}

	params := binder.ConstructParams(in.Arena, self, clone.Params, clone.IsInstance)
	instance := &sym.Symbol{
		Variant: sym.Function, Name: template.Name, Owner: template.Owner, Access: template.Access,
		Self: self, Instance: clone.IsInstance, Params: params,
		Template: template, TemplateArgs: args, ImplArgs: implArgs,
	}
	in.Arena.DefineInstance(instance)

	in.Arena.TemplateCacheStore(template, key, instance)
	in.pending = append(in.pending, &pendingInstance{instance: instance, node: clone})
	return instance, nil
}

// Drain runs Binding (4.F) over every instance queued since the last
// Drain call, looping until no new instantiation is triggered by binding
// the bodies it just queued (a generic function calling another generic
// function instantiates the second while binding the first's body).
func (in *Instantiator) Drain(b *binder.Binder) error {
	for len(in.pending) > 0 {
		batch := in.pending
		in.pending = nil
		for _, p := range batch {
			switch n := p.node.(type) {
			case *ast.TypeTemplate:
				for _, m := range n.Methods {
					if err := b.BindFunction(m, p.instance); err != nil {
						return err
					}
				}
			case *ast.FunctionTemplate:
				fn := &ast.Function{
					Scoped: ast.Scoped{Base: n.Base, Self: n.SelfScope()},
					Name:   n.Name, Access: n.Access, IsInstance: n.IsInstance,
					Params: n.Params, ReturnType: n.ReturnType, Body: n.Body,
				}
				var selfType *sym.Symbol
				if n.IsInstance {
					selfType = p.instance.Params[0].Type
				}
				if err := b.BindFunction(fn, selfType); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
