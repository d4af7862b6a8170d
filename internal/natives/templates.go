package natives

import "github.com/ace-lang/acec/internal/sym"

// defineTemplate registers a native type template with a single type
// parameter T, returning the template symbol and T itself.
func (r *Registry) defineTemplate(name string) (*sym.Symbol, *sym.Symbol) {
	self := r.arena.NewScope(r.root, name)
	tmpl := &sym.Symbol{
		Variant: sym.TypeTemplate,
		Name:    name,
		Owner:   r.root,
		Access:  sym.Public,
		Self:    self,
		Native:  true,
	}
	_ = r.arena.Define(tmpl)

	param := &sym.Symbol{Variant: sym.TypeTemplateParameter, Name: "T", Owner: self}
	_ = r.arena.Define(param)
	tmpl.TemplateParams = []*sym.Symbol{param}

	r.templates[name] = tmpl
	return tmpl, param
}

func (r *Registry) defineTemplates() error {
	refTmpl, _ := r.defineTemplate("Reference")
	refTmpl.Trivial = sym.TriviallyCopyableAndDroppable

	r.defineTemplate("StrongPointer")
	r.defineTemplate("WeakPointer")
	return nil
}

// PopulateInstance is called by the template instantiator (4.I) in place of
// the ordinary clone/bind/associate pipeline whenever the template being
// instantiated is native (spec 4.B: "Template associated functions").
// `instance` already has a fresh, empty self-scope; args[0] is the single
// type argument (every native template here takes exactly one). `inst` is
// the live instantiator, needed only by WeakPointer to obtain its
// companion StrongPointer<T> instance.
func (r *Registry) PopulateInstance(template, instance *sym.Symbol, args []*sym.Symbol, inst sym.Instantiator) error {
	if len(args) != 1 {
		return sym.NewTemplateArityError(template.Name, 1, len(args))
	}
	elem := args[0]

	switch template.Name {
	case "Reference":
		instance.Trivial = sym.TriviallyCopyableAndDroppable
		return nil

	case "StrongPointer":
		newFn := &sym.Symbol{
			Variant: sym.Function, Name: "new", Owner: instance.Self, Access: sym.Public,
			Native: true, ReturnType: instance,
			Params: wrapParams([]*sym.Symbol{elem}, instance.Self),
		}
		if err := r.arena.Define(newFn); err != nil {
			return err
		}
		selfParam := &sym.Symbol{Variant: sym.SelfParameterVar, Name: "self", Owner: instance.Self, Type: instance, IsSelf: true, Instance: true}
		valueFn := &sym.Symbol{
			Variant: sym.Function, Name: "value", Owner: instance.Self, Access: sym.Public,
			Instance: true, Native: true, ReturnType: elem, Params: []*sym.Symbol{selfParam},
		}
		return r.arena.Define(valueFn)

	case "WeakPointer":
		strong, err := inst.ResolveOrInstantiate(r.templates["StrongPointer"], nil, []*sym.Symbol{elem})
		if err != nil {
			return err
		}
		fromParam := &sym.Symbol{Variant: sym.ParameterVar, Name: "strong", Owner: instance.Self, Type: strong, Index: 0}
		fromFn := &sym.Symbol{
			Variant: sym.Function, Name: "from", Owner: instance.Self, Access: sym.Public,
			Native: true, ReturnType: instance, Params: []*sym.Symbol{fromParam},
		}
		if err := r.arena.Define(fromFn); err != nil {
			return err
		}
		selfParam := &sym.Symbol{Variant: sym.SelfParameterVar, Name: "self", Owner: instance.Self, Type: instance, IsSelf: true, Instance: true}
		upgradeFn := &sym.Symbol{
			Variant: sym.Function, Name: "upgrade", Owner: instance.Self, Access: sym.Public,
			Instance: true, Native: true, ReturnType: strong, Params: []*sym.Symbol{selfParam},
		}
		return r.arena.Define(upgradeFn)

	default:
		return nil
	}
}
