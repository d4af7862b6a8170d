// Package discover resolves the set of source files a driver invocation
// compiles: either explicit file arguments or a glob pattern rooted at a
// directory, mirroring the teacher's resolveTargets/ScanTargets flow in
// internal/config/cli.go but built on doublestar's recursive "**" glob
// support rather than filepath.Walk plus ad hoc pattern matching.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches every source file under a discovery root.
const DefaultPattern = "**/*.ace"

// Files resolves the file set to compile: if explicit is non-empty it is
// returned verbatim (already chosen by the caller); otherwise root is
// globbed with pattern (DefaultPattern if empty) and the matches are
// returned in a deterministic sorted order.
func Files(root, pattern string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("discover: globbing %q under %q: %w", pattern, root, err)
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(root, m)
	}
	sort.Strings(out)
	return out, nil
}
