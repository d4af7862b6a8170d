// Package walk implements the deterministic parse-tree traversal (spec
// component 4.C) that drives Symbol Construction (4.D) and the Association
// pass (4.E).
package walk

import "github.com/ace-lang/acec/internal/ast"

// All returns every node in root's subtree (root included) in deterministic
// post-order: a node's children are visited, left to right, before the
// node itself. The traversal never copies nodes — it only collects the
// existing pointers into a flat slice.
func All(root ast.Node) []ast.Node {
	var out []ast.Node
	visit(root, &out)
	return out
}

func visit(n ast.Node, out *[]ast.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children() {
		visit(c, out)
	}
	*out = append(*out, n)
}

// Modules flattens a forest of module roots into one node list, preserving
// per-module post-order and concatenating modules in the order given.
func Modules(roots []*ast.Module) []ast.Node {
	var out []ast.Node
	for _, r := range roots {
		visit(r, &out)
	}
	return out
}
