// Package config builds a typed Config from command-line flags plus an
// optional .env file, following the teacher's internal/config/cli.go
// pattern of a *pflag.FlagSet feeding a single struct. Config is consumed
// only by cmd/acec — it never reaches internal/compiler, preserving the
// core's "no configuration is consumed by the core" invariant
// (SPEC_FULL.md §8).
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config is everything the driver needs to discover sources, run the
// core pipeline, and record the result.
type Config struct {
	Root    string   // discovery root directory
	Pattern string   // doublestar glob pattern, relative to Root
	Files   []string // explicit file arguments, overriding Root/Pattern
	Verbose bool
	RunDBPath string // SQLite ledger path; empty disables the ledger
}

// defaultRunDBPath is used when neither --run-db nor ACEC_RUN_DB_PATH is
// set, matching the teacher's pattern of a sensible default local path.
const defaultRunDBPath = ".acec/runs.db"

// Build loads an optional .env file (ignoring a missing file exactly as
// the teacher's db/sqlite_integration_test.go does with godotenv.Load's
// ignored error), registers flags on fs, parses args, and resolves a
// Config. Flags take precedence over .env-sourced environment variables.
func Build(fs *pflag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	root := fs.StringP("root", "r", ".", "Discovery root directory for source files.")
	pattern := fs.StringP("pattern", "p", "", "Glob pattern (relative to --root) selecting source files; defaults to **/*.ace.")
	verbose := fs.BoolP("verbose", "v", false, "Enable verbose driver output on stderr.")
	runDB := fs.String("run-db", "", "Path to the compile-run ledger SQLite file; empty disables the ledger.")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parsing flags: %w", err)
	}

	cfg := &Config{
		Root:      *root,
		Pattern:   *pattern,
		Files:     fs.Args(),
		Verbose:   *verbose,
		RunDBPath: resolveRunDBPath(*runDB, fs),
	}
	return cfg, nil
}

func resolveRunDBPath(flagVal string, fs *pflag.FlagSet) string {
	if fs.Changed("run-db") {
		return flagVal
	}
	if env, ok := os.LookupEnv("ACEC_RUN_DB_PATH"); ok {
		return env
	}
	return defaultRunDBPath
}
