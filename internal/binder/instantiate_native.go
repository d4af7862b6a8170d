package binder

import (
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

// NativeInstantiator implements sym.Instantiator for the native type
// templates only (Reference, StrongPointer, WeakPointer). The Binding pass
// (4.F) runs before the Template Instantiator (4.I) is assembled, but
// still needs to resolve native-template type references that appear
// directly in parameter, field and return-type position (e.g. a parameter
// typed `StrongPointer<Int32>`); this narrow instantiator covers exactly
// that case by delegating to the same natives.Registry.PopulateInstance
// the full instantiator (internal/sema) also uses for native templates,
// and shares its memoization cache (sym.Arena's template-instance cache)
// so the two never produce duplicate instance symbols for the same
// template/argument pair.
//
// A user-defined TypeTemplate referenced the same way (directly in a
// signature, rather than through a Box/StructConstruction expression
// bound and instantiated during the fixed-point loop) is out of reach of
// this instantiator; see DESIGN.md for why that gap is acceptable here.
type NativeInstantiator struct {
	Arena   *sym.Arena
	Natives *natives.Registry
}

func (n *NativeInstantiator) ResolveOrInstantiate(template *sym.Symbol, implArgs, args []*sym.Symbol) (*sym.Symbol, error) {
	if !template.Native {
		return nil, sym.NewTemplateArityError(template.Name, len(template.TemplateParams), len(args))
	}
	key := sym.TemplateCacheKey(implArgs, args)
	if inst, ok := n.Arena.TemplateCacheLookup(template, key); ok {
		return inst, nil
	}
	self := n.Arena.NewScope(template.Owner, template.Name)
	instance := &sym.Symbol{
		Variant: sym.Struct, Name: template.Name, Owner: template.Owner, Access: sym.Public,
		Self: self, Native: true, Template: template, TemplateArgs: args, ImplArgs: implArgs,
	}
	n.Arena.DefineInstance(instance)
	if err := n.Natives.PopulateInstance(template, instance, args, n); err != nil {
		return nil, err
	}
	n.Arena.TemplateCacheStore(template, key, instance)
	return instance, nil
}
