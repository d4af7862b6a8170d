package sema

import (
	"fmt"

	"github.com/ace-lang/acec/internal/bound"
	"github.com/ace-lang/acec/internal/sym"
)

// eventKind tags one flattened control-flow event (4.H).
type eventKind int

const (
	evLabel eventKind = iota
	evNormalJump
	evCondJump
	evReturn
	evExit
)

type event struct {
	kind   eventKind
	label  string // set for evLabel
	target string // set for evNormalJump, evCondJump
}

// MissingReturnError reports a non-Void function whose control flow can
// fall off the end of its body without executing a Return or Exit (4.H).
type MissingReturnError struct {
	Function string
}

func (e *MissingReturnError) Error() string {
	return fmt.Sprintf("function %q does not return a value on every path", e.Function)
}

// CheckControlFlow runs the reachability analysis (4.H) over fn's
// (already-stabilized) body. A lowered While contributes real
// LabelStmt/NormalJump/ConditionalJump nodes to the tree directly; a
// structured If never does (the fixed-point loop only ever rewrites While
// and Assert into jumps), so flattening synthesizes equivalent internal
// jump/label events for an If's two branches purely for this analyzer's
// own linear walk — they are never written back into the bound tree.
func CheckControlFlow(fn *sym.Symbol) error {
	if fn.Body == nil || fn.Body.Block == nil {
		return nil
	}
	block := fn.Body.Block.(*bound.Block)

	gen := &labelGen{}
	var events []event
	flattenStmts(block.Stmts, &events, gen)

	labelIndex := map[string]int{}
	for i, e := range events {
		if e.kind == evLabel {
			labelIndex[e.label] = i
		}
	}

	if reachEnd(events, labelIndex, 0, map[int]bool{}) {
		if fn.ReturnType != nil && fn.ReturnType.Name != "Void" {
			return &MissingReturnError{Function: fn.Name}
		}
	}
	return nil
}

// labelGen allocates names for the synthetic labels flattenIf needs,
// distinct from lowered While labels ("$anonymous_N") and, through the
// "$" prefix, from source-level label identifiers.
type labelGen struct{ n int }

func (g *labelGen) next() string {
	g.n++
	return fmt.Sprintf("$cf_%d", g.n)
}

func flattenStmts(stmts []bound.Stmt, out *[]event, gen *labelGen) {
	for _, s := range stmts {
		flattenStmt(s, out, gen)
	}
}

func flattenStmt(s bound.Stmt, out *[]event, gen *labelGen) {
	switch n := s.(type) {
	case *bound.LabelStmt:
		*out = append(*out, event{kind: evLabel, label: n.Name})
	case *bound.NormalJump:
		*out = append(*out, event{kind: evNormalJump, target: n.Target})
	case *bound.ConditionalJump:
		*out = append(*out, event{kind: evCondJump, target: n.Target})
	case *bound.Return:
		*out = append(*out, event{kind: evReturn})
	case *bound.Exit:
		*out = append(*out, event{kind: evExit})
	case *bound.If:
		flattenIf(n, out, gen)
	case *bound.Block:
		flattenStmts(n.Stmts, out, gen)
	default:
		// Assignment, ExprStmt, VarDecl and their kin carry no control-flow
		// edges of their own; they simply fall through to the next event.
	}
}

// flattenIf synthesizes the jump/label skeleton an equivalent lowered
// While/Assert-shaped construct would have produced, purely as events:
//
//	ConditionalJump(else)
//	<then events>
//	NormalJump(end)      ; only when an otherwise branch exists
//	Label(else)
//	<otherwise events>   ; only when an otherwise branch exists
//	Label(end)
func flattenIf(n *bound.If, out *[]event, gen *labelGen) {
	elseLabel := gen.next()
	*out = append(*out, event{kind: evCondJump, target: elseLabel})
	flattenStmts(n.Then.Stmts, out, gen)

	if n.Otherwise == nil {
		*out = append(*out, event{kind: evLabel, label: elseLabel})
		return
	}

	endLabel := gen.next()
	*out = append(*out, event{kind: evNormalJump, target: endLabel})
	*out = append(*out, event{kind: evLabel, label: elseLabel})
	flattenStmts(n.Otherwise.Stmts, out, gen)
	*out = append(*out, event{kind: evLabel, label: endLabel})
}

// reachEnd reports whether control starting at events[i] can fall off the
// end of the event list. visited prevents infinite recursion around a
// While loop's back-edge: visited is shared by every branch of the walk,
// and re-visiting any index already visited is treated as not reaching the
// end along that path, since the first visit already accounts for every
// event reachable from it.
func reachEnd(events []event, labelIndex map[string]int, i int, visited map[int]bool) bool {
	if i >= len(events) {
		return true
	}
	if visited[i] {
		return false
	}
	visited[i] = true

	switch e := events[i]; e.kind {
	case evLabel:
		return reachEnd(events, labelIndex, i+1, visited)
	case evNormalJump:
		return reachEnd(events, labelIndex, labelIndex[e.target], visited)
	case evCondJump:
		if reachEnd(events, labelIndex, labelIndex[e.target], visited) {
			return true
		}
		return reachEnd(events, labelIndex, i+1, visited)
	case evReturn, evExit:
		return false
	default:
		return reachEnd(events, labelIndex, i+1, visited)
	}
}
