package binder

import (
	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/sym"
	"github.com/ace-lang/acec/internal/walk"
)

// Associate runs the Association pass (4.E): a plain impl block's
// functions are defined directly into its target type's self-scope; a
// templated impl block's functions are instead recorded on the target
// type template's AST node, so that every future instantiation of that
// template (4.I, via Node.Clone) copies them along with its fields.
func Associate(arena *sym.Arena, root sym.ScopeID, roots []*ast.Module) error {
	nodes := walk.Modules(roots)

	templatesBySelf := map[sym.ScopeID]*ast.TypeTemplate{}
	for _, n := range nodes {
		if tt, ok := n.(*ast.TypeTemplate); ok {
			templatesBySelf[tt.SelfScope()] = tt
		}
	}

	for _, n := range nodes {
		switch d := n.(type) {
		case *ast.Impl:
			if err := associatePlainImpl(arena, root, d); err != nil {
				return err
			}
		case *ast.TemplatedImpl:
			if err := associateTemplatedImpl(arena, root, d, templatesBySelf); err != nil {
				return err
			}
		}
	}
	return nil
}

func associatePlainImpl(arena *sym.Arena, root sym.ScopeID, d *ast.Impl) error {
	target, err := resolveTypeName(arena, root, d.TargetType)
	if err != nil {
		return err
	}
	for _, fn := range d.Functions {
		if err := DefineInstanceFunction(arena, target.Self, fn); err != nil {
			return err
		}
	}
	return nil
}

func associateTemplatedImpl(arena *sym.Arena, root sym.ScopeID, d *ast.TemplatedImpl, templatesBySelf map[sym.ScopeID]*ast.TypeTemplate) error {
	last := d.TargetType.Last()
	candidates := arena.LookupChain(root, last.Identifier)
	var target *sym.Symbol
	for _, c := range candidates {
		if c.Variant == sym.TypeTemplate {
			target = c
			break
		}
	}
	if target == nil {
		return sym.NewTemplateArityError(last.Identifier, 0, 0)
	}
	if len(last.TemplateArgs) != len(target.TemplateParams) {
		return sym.NewTemplateArityError(last.Identifier, len(target.TemplateParams), len(last.TemplateArgs))
	}
	tt := templatesBySelf[target.Self]
	tt.Methods = append(tt.Methods, d.Functions...)
	return nil
}

// DefineInstanceFunction defines fn's symbol directly into targetSelf, the
// self-scope of the type it extends — used both for a plain impl block's
// functions (4.E) and, identically, for a templated impl's functions once
// their owning template has been instantiated (4.I) and its Methods list
// cloned into the fresh instance.
func DefineInstanceFunction(arena *sym.Arena, targetSelf sym.ScopeID, fn *ast.Function) error {
	self := fn.SelfScope()
	params := constructParams(arena, self, fn.Params, fn.IsInstance)
	s := &sym.Symbol{
		Variant: sym.Function, Name: fn.Name, Owner: targetSelf,
		Access: accessOf(fn.Access), Self: self, Instance: fn.IsInstance, Params: params,
	}
	return arena.Define(s)
}

// resolveTypeName resolves a bare (non-template) type name to its symbol.
func resolveTypeName(arena *sym.Arena, root sym.ScopeID, name *ast.Name) (*sym.Symbol, error) {
	sections := make([]sym.Section, len(name.Sections))
	for i, s := range name.Sections {
		sections[i] = sym.Section{Identifier: s.Identifier}
	}
	return arena.ResolveStatic(root, sections, nil, nil)
}
