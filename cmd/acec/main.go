// Command acec is the driver binary for the ace semantic core: it parses
// flags, loads an optional .env, discovers source files, invokes
// internal/compiler.Compile, and reports diagnostics. It is the one place
// in this repo that recovers a FixedPointDiverged panic (SPEC_FULL.md §9)
// — internal/compiler itself never recovers its own internal-assertion
// failures.
package main

import (
	"fmt"
	"os"

	"github.com/ace-lang/acec/internal/sema"
)

func main() {
	defer recoverFatal()

	if err := NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "acec: %v\n", err)
		os.Exit(1)
	}
}

// recoverFatal is the sole top-level boundary recovering
// sema.FixedPointDivergedError: every other panic is a genuine Go bug and
// is allowed to crash the process with its default trace.
func recoverFatal() {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(*sema.FixedPointDivergedError); ok {
		fmt.Fprintf(os.Stderr, "acec: internal error: %v\n", r)
		os.Exit(2)
	}
	panic(r)
}
