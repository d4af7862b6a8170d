// Package bound defines the semantically resolved tree (spec §3's "bound
// tree"): every name is a resolved *sym.Symbol and every expression carries
// a computed sym.TypeInfo. Its nodes implement the fixed-point
// transformer's two operations, TypeCheck and Lower (spec 4.G).
package bound

import (
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/sym"
)

// Context is threaded through every TypeCheck/Lower call. It carries no
// mutable compilation state of its own — the arena and registry it points
// at already are the mutable state — so it is cheap to pass by value were
// Go's method-on-pointer-receiver idiom not simpler to keep consistent.
type Context struct {
	Arena   *sym.Arena
	Natives *natives.Registry
	Inst    sym.Instantiator
}

// Result is MaybeChanged<Node>: the rewritten (or identical) node plus
// whether a rewrite actually occurred. The fixed-point transformer (4.G)
// uses Changed to detect convergence; Unchanged results are expected to
// share the original node's identity so that pointer-equality checks in
// tests and in the transformer's own bookkeeping hold.
type Result struct {
	Node    Node
	Changed bool
}

// Unchanged wraps n as a Result reporting no rewrite occurred.
func Unchanged(n Node) Result { return Result{Node: n, Changed: false} }

// Changed wraps n as a Result reporting a rewrite occurred.
func Changed(n Node) Result { return Result{Node: n, Changed: true} }

// Node is the common interface every bound-tree node implements.
type Node interface {
	Range() Range
	Children() []Node
	TypeCheck(ctx *Context) (Result, error)
	Lower(ctx *Context) (Result, error)
}

// Range mirrors ast.Range without importing the ast package — the bound
// tree is a sibling representation, not a consumer, of the parse tree.
type Range struct {
	File                   string
	StartLine, StartColumn int
	EndLine, EndColumn     int
}

// Expr is implemented by every bound expression node and carries the
// TypeInfo the binder computed for it.
type Expr interface {
	Node
	Type() sym.TypeInfo
}

// Stmt is implemented by every bound statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Base is embedded by every bound expression node.
type Base struct {
	Rng Range
	TI  sym.TypeInfo
}

func (b *Base) Range() Range       { return b.Rng }
func (b *Base) Type() sym.TypeInfo { return b.TI }

// StmtBase is embedded by every bound statement node.
type StmtBase struct {
	Rng Range
}

func (b *StmtBase) Range() Range { return b.Rng }
func (b *StmtBase) stmtNode()    {}
