package bound

import "github.com/ace-lang/acec/internal/sym"

// Block is a sequence of statements. It carries no scope of its own; locals
// declared within it live in the enclosing function's self-scope, mirroring
// ast.Block.
type Block struct {
	Rng   Range
	Stmts []Stmt
}

func (s *Block) Range() Range { return s.Rng }
func (s *Block) Children() []Node {
	out := make([]Node, len(s.Stmts))
	for i, st := range s.Stmts {
		out[i] = st
	}
	return out
}
func (s *Block) stmtNode() {}
func (s *Block) TypeCheck(ctx *Context) (Result, error) {
	out, changed, err := typeCheckStmts(ctx, s.Stmts)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged(s), nil
	}
	return Changed(&Block{Rng: s.Rng, Stmts: out}), nil
}
func (s *Block) Lower(ctx *Context) (Result, error) {
	var out []Stmt
	changed := false
	for _, st := range s.Stmts {
		r, err := st.Lower(ctx)
		if err != nil {
			return Result{}, err
		}
		if r.Changed {
			changed = true
		}
		// A lowered While expands to several sibling statements
		// (labels/jumps); splice returns that group so the flattening
		// stays a single pass.
		if group, ok := r.Node.(*stmtGroup); ok {
			out = append(out, group.Stmts...)
		} else {
			out = append(out, r.Node.(Stmt))
		}
	}
	if !changed {
		return Unchanged(s), nil
	}
	return Changed(&Block{Rng: s.Rng, Stmts: out}), nil
}

// stmtGroup is an internal-only Stmt used solely to return several
// statements from a single Lower call (While splicing); Block.Lower
// flattens it away and no other code ever observes one.
type stmtGroup struct {
	StmtBase
	Stmts []Stmt
}

func (g *stmtGroup) Children() []Node {
	out := make([]Node, len(g.Stmts))
	for i, s := range g.Stmts {
		out[i] = s
	}
	return out
}
func (g *stmtGroup) TypeCheck(ctx *Context) (Result, error) { return Unchanged(g), nil }
func (g *stmtGroup) Lower(ctx *Context) (Result, error)     { return Unchanged(g), nil }

// If is `if (cond) { then } [else { otherwise }]`.
type If struct {
	StmtBase
	Cond      Expr
	Then      *Block
	Otherwise *Block
}

func (s *If) Children() []Node {
	out := []Node{s.Cond, s.Then}
	if s.Otherwise != nil {
		out = append(out, s.Otherwise)
	}
	return out
}
func (s *If) TypeCheck(ctx *Context) (Result, error) {
	cond, err := s.Cond.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	then, err := s.Then.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	changed := cond.Changed || then.Changed
	var otherwise *Block
	if s.Otherwise != nil {
		r, err := s.Otherwise.TypeCheck(ctx)
		if err != nil {
			return Result{}, err
		}
		otherwise = r.Node.(*Block)
		changed = changed || r.Changed
	}
	if !changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Cond, c.Then, c.Otherwise = cond.Node.(Expr), then.Node.(*Block), otherwise
	return Changed(&c), nil
}
func (s *If) Lower(ctx *Context) (Result, error) {
	cond, err := s.Cond.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	then, err := s.Then.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	changed := cond.Changed || then.Changed
	var otherwise *Block
	if s.Otherwise != nil {
		r, err := s.Otherwise.Lower(ctx)
		if err != nil {
			return Result{}, err
		}
		otherwise = r.Node.(*Block)
		changed = changed || r.Changed
	}
	if !changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Cond, c.Then, c.Otherwise = cond.Node.(Expr), then.Node.(*Block), otherwise
	return Changed(&c), nil
}

// While is `while (cond) { body }`. Lower rewrites it once into a
// label/conditional-jump/label group using a pair of anonymous labels
// allocated from the owning function's self-scope (spec.md 4.G), after
// which it never appears in the tree again.
type While struct {
	StmtBase
	Cond  Expr
	Body  *Block
	Scope sym.ScopeID // the function self-scope anonymous labels are drawn from
}

func (s *While) Children() []Node { return []Node{s.Cond, s.Body} }
func (s *While) TypeCheck(ctx *Context) (Result, error) {
	cond, err := s.Cond.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	body, err := s.Body.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !cond.Changed && !body.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Cond, c.Body = cond.Node.(Expr), body.Node.(*Block)
	return Changed(&c), nil
}
func (s *While) Lower(ctx *Context) (Result, error) {
	cond, err := s.Cond.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	body, err := s.Body.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	start := ctx.Arena.NewAnonymousLabel(s.Scope)
	end := ctx.Arena.NewAnonymousLabel(s.Scope)

	negated := &LogicalNegation{Base: Base{Rng: s.Cond.Range(), TI: cond.Node.(Expr).Type()}, Operand: cond.Node.(Expr)}

	group := &stmtGroup{Stmts: []Stmt{
		&LabelStmt{StmtBase: StmtBase{Rng: s.Rng}, Name: start},
		&ConditionalJump{StmtBase: StmtBase{Rng: s.Rng}, Cond: negated, Target: end},
		body.Node.(*Block),
		&NormalJump{StmtBase: StmtBase{Rng: s.Rng}, Target: start},
		&LabelStmt{StmtBase: StmtBase{Rng: s.Rng}, Name: end},
	}}
	return Changed(group), nil
}

// Return is `return [value];`.
type Return struct {
	StmtBase
	Value Expr
}

func (s *Return) Children() []Node {
	if s.Value == nil {
		return nil
	}
	return []Node{s.Value}
}
func (s *Return) TypeCheck(ctx *Context) (Result, error) {
	if s.Value == nil {
		return Unchanged(s), nil
	}
	r, err := s.Value.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Value = r.Node.(Expr)
	return Changed(&c), nil
}
func (s *Return) Lower(ctx *Context) (Result, error) {
	if s.Value == nil {
		return Unchanged(s), nil
	}
	r, err := s.Value.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Value = r.Node.(Expr)
	return Changed(&c), nil
}

// Exit is a process-terminating statement, produced by lowering Assert.
type Exit struct {
	StmtBase
	Code Expr
}

func (s *Exit) Children() []Node {
	if s.Code == nil {
		return nil
	}
	return []Node{s.Code}
}
func (s *Exit) TypeCheck(ctx *Context) (Result, error) { return Unchanged(s), nil }
func (s *Exit) Lower(ctx *Context) (Result, error)     { return Unchanged(s), nil }

// Assert is `assert(cond);`. Lower rewrites it once into `If(!cond) {
// Exit }` (spec.md 4.G) and never appears in the tree again afterward.
type Assert struct {
	StmtBase
	Cond Expr
}

func (s *Assert) Children() []Node { return []Node{s.Cond} }
func (s *Assert) TypeCheck(ctx *Context) (Result, error) {
	r, err := s.Cond.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.Cond = r.Node.(Expr)
	return Changed(&c), nil
}
func (s *Assert) Lower(ctx *Context) (Result, error) {
	cond, err := s.Cond.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	negated := &LogicalNegation{Base: Base{Rng: s.Rng, TI: cond.Node.(Expr).Type()}, Operand: cond.Node.(Expr)}
	lowered := &If{
		StmtBase: StmtBase{Rng: s.Rng},
		Cond:     negated,
		Then:     &Block{Rng: s.Rng, Stmts: []Stmt{&Exit{StmtBase: StmtBase{Rng: s.Rng}}}},
	}
	return Changed(lowered), nil
}

// AssignOp mirrors ast.AssignOp.
type AssignOp int

const (
	AssignNormal AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignShl
	AssignShr
)

// Assignment is `lhs = rhs;` or a compound assignment.
type Assignment struct {
	StmtBase
	Op       AssignOp
	LHS, RHS Expr
}

func (s *Assignment) Children() []Node { return []Node{s.LHS, s.RHS} }
func (s *Assignment) TypeCheck(ctx *Context) (Result, error) {
	lhs, err := s.LHS.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	rhs, err := s.RHS.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !lhs.Changed && !rhs.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.LHS, c.RHS = lhs.Node.(Expr), rhs.Node.(Expr)
	return Changed(&c), nil
}
func (s *Assignment) Lower(ctx *Context) (Result, error) {
	lhs, err := s.LHS.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	rhs, err := s.RHS.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !lhs.Changed && !rhs.Changed {
		return Unchanged(s), nil
	}
	c := *s
	c.LHS, c.RHS = lhs.Node.(Expr), rhs.Node.(Expr)
	return Changed(&c), nil
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	StmtBase
	Value Expr
}

func (s *ExprStmt) Children() []Node { return []Node{s.Value} }
func (s *ExprStmt) TypeCheck(ctx *Context) (Result, error) {
	r, err := s.Value.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&ExprStmt{StmtBase: s.StmtBase, Value: r.Node.(Expr)}), nil
}
func (s *ExprStmt) Lower(ctx *Context) (Result, error) {
	r, err := s.Value.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&ExprStmt{StmtBase: s.StmtBase, Value: r.Node.(Expr)}), nil
}

// LabelStmt declares a jump target, either written by the source program or
// synthesized by lowering a While.
type LabelStmt struct {
	StmtBase
	Name string
}

func (s *LabelStmt) Children() []Node                        { return nil }
func (s *LabelStmt) TypeCheck(ctx *Context) (Result, error) { return Unchanged(s), nil }
func (s *LabelStmt) Lower(ctx *Context) (Result, error)     { return Unchanged(s), nil }

// NormalJump is an unconditional lowered jump; only produced by lowering.
type NormalJump struct {
	StmtBase
	Target string
}

func (s *NormalJump) Children() []Node                        { return nil }
func (s *NormalJump) TypeCheck(ctx *Context) (Result, error) { return Unchanged(s), nil }
func (s *NormalJump) Lower(ctx *Context) (Result, error)     { return Unchanged(s), nil }

// ConditionalJump is a lowered `if (cond) goto target;`.
type ConditionalJump struct {
	StmtBase
	Cond   Expr
	Target string
}

func (s *ConditionalJump) Children() []Node { return []Node{s.Cond} }
func (s *ConditionalJump) TypeCheck(ctx *Context) (Result, error) {
	r, err := s.Cond.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&ConditionalJump{StmtBase: s.StmtBase, Cond: r.Node.(Expr), Target: s.Target}), nil
}
func (s *ConditionalJump) Lower(ctx *Context) (Result, error) {
	r, err := s.Cond.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&ConditionalJump{StmtBase: s.StmtBase, Cond: r.Node.(Expr), Target: s.Target}), nil
}

// VarDecl declares a local variable, already bound to its LocalVar symbol.
type VarDecl struct {
	StmtBase
	Sym  *sym.Symbol
	Init Expr
}

func (s *VarDecl) Children() []Node {
	if s.Init == nil {
		return nil
	}
	return []Node{s.Init}
}
func (s *VarDecl) TypeCheck(ctx *Context) (Result, error) {
	if s.Init == nil {
		return Unchanged(s), nil
	}
	r, err := s.Init.TypeCheck(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&VarDecl{StmtBase: s.StmtBase, Sym: s.Sym, Init: r.Node.(Expr)}), nil
}
func (s *VarDecl) Lower(ctx *Context) (Result, error) {
	if s.Init == nil {
		return Unchanged(s), nil
	}
	r, err := s.Init.Lower(ctx)
	if err != nil {
		return Result{}, err
	}
	if !r.Changed {
		return Unchanged(s), nil
	}
	return Changed(&VarDecl{StmtBase: s.StmtBase, Sym: s.Sym, Init: r.Node.(Expr)}), nil
}

func typeCheckStmts(ctx *Context, in []Stmt) ([]Stmt, bool, error) {
	out := make([]Stmt, len(in))
	changed := false
	for i, s := range in {
		r, err := s.TypeCheck(ctx)
		if err != nil {
			return nil, false, err
		}
		out[i] = r.Node.(Stmt)
		changed = changed || r.Changed
	}
	return out, changed, nil
}
