package ast

import "github.com/ace-lang/acec/internal/sym"

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind tags the native type a Literal expression produces.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
)

// Literal is a numeric, boolean or string constant.
type Literal struct {
	Base
	Kind LiteralKind
	Text string // the literal exactly as written, for the binder to parse
}

func (e *Literal) exprNode()       {}
func (e *Literal) Children() []Node { return nil }
func (e *Literal) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	return &c
}

// SymbolRef is a bare or qualified name reference (local, static or free
// function, etc.).
type SymbolRef struct {
	Base
	Name *Name
}

func (e *SymbolRef) exprNode()       {}
func (e *SymbolRef) Children() []Node { return nil }
func (e *SymbolRef) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	name := *e.Name
	c.Name = &name
	return &c
}

// MemberAccess is `expr.identifier` (instance field or method access).
type MemberAccess struct {
	Base
	Object     Expr
	Identifier string
}

func (e *MemberAccess) exprNode()       {}
func (e *MemberAccess) Children() []Node { return []Node{e.Object} }
func (e *MemberAccess) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Object = e.Object.Clone(a, parent).(Expr)
	return &c
}

// Call is a function-call expression: `callee(args...)`.
type Call struct {
	Base
	Callee Expr
	Args   []Expr
}

func (e *Call) exprNode()       {}
func (e *Call) Children() []Node {
	out := make([]Node, 0, 1+len(e.Args))
	out = append(out, e.Callee)
	for _, a := range e.Args {
		out = append(out, a)
	}
	return out
}
func (e *Call) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Callee = e.Callee.Clone(a, parent).(Expr)
	c.Args = cloneExprs(e.Args, a, parent)
	return &c
}

// UserUnary is a unary operator applied to an operand whose type defines
// the operator as a user function; lowers to a static call (4.G).
type UserUnary struct {
	Base
	Op      string
	Operand Expr
}

func (e *UserUnary) exprNode()       {}
func (e *UserUnary) Children() []Node { return []Node{e.Operand} }
func (e *UserUnary) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	return &c
}

// LogicalNegation is `!expr` over Bool.
type LogicalNegation struct {
	Base
	Operand Expr
}

func (e *LogicalNegation) exprNode()       {}
func (e *LogicalNegation) Children() []Node { return []Node{e.Operand} }
func (e *LogicalNegation) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	return &c
}

// LogicalKind distinguishes short-circuit And from Or.
type LogicalKind int

const (
	LogicalAnd LogicalKind = iota
	LogicalOr
)

// Logical is a short-circuiting `&&`/`||` expression.
type Logical struct {
	Base
	Kind        LogicalKind
	Left, Right Expr
}

func (e *Logical) exprNode()       {}
func (e *Logical) Children() []Node { return []Node{e.Left, e.Right} }
func (e *Logical) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Left = e.Left.Clone(a, parent).(Expr)
	c.Right = e.Right.Clone(a, parent).(Expr)
	return &c
}

// Cast is an explicit `expr as TypeName` conversion.
type Cast struct {
	Base
	Operand  Expr
	TypeName *Name
}

func (e *Cast) exprNode()       {}
func (e *Cast) Children() []Node { return []Node{e.Operand} }
func (e *Cast) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	tn := *e.TypeName
	c.TypeName = &tn
	return &c
}

// DerefAs is a combined dereference-and-cast used against weak/strong
// pointers: `derefas<T>(expr)`.
type DerefAs struct {
	Base
	Operand  Expr
	TypeName *Name
}

func (e *DerefAs) exprNode()       {}
func (e *DerefAs) Children() []Node { return []Node{e.Operand} }
func (e *DerefAs) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	tn := *e.TypeName
	c.TypeName = &tn
	return &c
}

// Box is `box expr`; lowers to `StrongPointer<T>::new(expr)` (4.G).
type Box struct {
	Base
	Operand Expr
}

func (e *Box) exprNode()       {}
func (e *Box) Children() []Node { return []Node{e.Operand} }
func (e *Box) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	return &c
}

// Unbox is `unbox expr`; lowers to `StrongPointer<T>::value(expr)` (4.G).
type Unbox struct {
	Base
	Operand Expr
}

func (e *Unbox) exprNode()       {}
func (e *Unbox) Children() []Node { return []Node{e.Operand} }
func (e *Unbox) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	return &c
}

// SizeOf is `sizeof<TypeName>`.
type SizeOf struct {
	Base
	TypeName *Name
}

func (e *SizeOf) exprNode()       {}
func (e *SizeOf) Children() []Node { return nil }
func (e *SizeOf) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	tn := *e.TypeName
	c.TypeName = &tn
	return &c
}

// FieldInit is one `name: expr` pair inside a StructConstruction.
type FieldInit struct {
	Name  string
	Value Expr
}

// StructConstruction is `TypeName { field: expr, ... }`.
type StructConstruction struct {
	Base
	TypeName *Name
	Fields   []FieldInit
}

func (e *StructConstruction) exprNode() {}
func (e *StructConstruction) Children() []Node {
	out := make([]Node, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Value
	}
	return out
}
func (e *StructConstruction) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	tn := *e.TypeName
	c.TypeName = &tn
	c.Fields = make([]FieldInit, len(e.Fields))
	for i, f := range e.Fields {
		c.Fields[i] = FieldInit{Name: f.Name, Value: f.Value.Clone(a, parent).(Expr)}
	}
	return &c
}

// AddressOf is `&expr`; requires an L-value operand (UnexpectedValueKind
// otherwise).
type AddressOf struct {
	Base
	Operand Expr
}

func (e *AddressOf) exprNode()       {}
func (e *AddressOf) Children() []Node { return []Node{e.Operand} }
func (e *AddressOf) Clone(a *sym.Arena, parent sym.ScopeID) Node {
	c := *e
	c.SetEnclosingScope(parent)
	c.Operand = e.Operand.Clone(a, parent).(Expr)
	return &c
}

func cloneExprs(in []Expr, a *sym.Arena, parent sym.ScopeID) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = e.Clone(a, parent).(Expr)
	}
	return out
}
