package natives

import "github.com/ace-lang/acec/internal/sym"

func (r *Registry) defineFreeFunctions() error {
	intT, ptrT, voidT := r.types["Int"], r.types["Pointer"], r.types["Void"]

	specs := []struct {
		name   string
		params []*sym.Symbol
		ret    *sym.Symbol
	}{
		{"alloc", []*sym.Symbol{intT}, ptrT},
		{"dealloc", []*sym.Symbol{ptrT}, voidT},
		{"copy", []*sym.Symbol{ptrT, ptrT, intT}, voidT},
		{"print_int", []*sym.Symbol{intT}, voidT},
		{"print_ptr", []*sym.Symbol{ptrT}, voidT},
	}

	for _, s := range specs {
		fn := &sym.Symbol{
			Variant: sym.Function, Name: s.name, Owner: r.root, Access: sym.Public,
			Native: true, ReturnType: s.ret, Params: wrapParams(s.params, r.root),
		}
		if err := r.arena.Define(fn); err != nil {
			return err
		}
		r.free[s.name] = fn
	}
	return nil
}
