package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ace-lang/acec/internal/ast"
	"github.com/ace-lang/acec/internal/compiler"
	"github.com/ace-lang/acec/internal/config"
	"github.com/ace-lang/acec/internal/discover"
	"github.com/ace-lang/acec/internal/natives"
	"github.com/ace-lang/acec/internal/rundb"
	"github.com/ace-lang/acec/internal/sym"
)

// NewRootCommand builds the acec command tree. Flag definition and
// resolution is delegated to config.Build's pflag.FlagSet (mirroring the
// teacher's cmd/morfx/main.go pflag-driven flow); cobra here only
// supplies the command/usage scaffolding, so DisableFlagParsing is set
// and args are handed to config.Build verbatim.
func NewRootCommand(p Parser) *cobra.Command {
	cmd := &cobra.Command{
		Use:                "acec [files...]",
		Short:              "Semantic core driver for the ace toolchain",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(p, args)
		},
	}
	return cmd
}

func run(p Parser, args []string) error {
	fs := pflag.NewFlagSet("acec", pflag.ContinueOnError)
	cfg, err := config.Build(fs, args)
	if err != nil {
		return err
	}

	files, err := discover.Files(cfg.Root, cfg.Pattern, cfg.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("acec: no source files found under %q", cfg.Root)
	}

	if p == nil {
		return fmt.Errorf("acec: no parser wired into this build — lexing/parsing is an external collaborator this core repo does not implement")
	}

	modules := make([]*ast.Module, 0, len(files))
	for _, f := range files {
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "acec: parsing %s\n", f)
		}
		m, err := p.Parse(f)
		if err != nil {
			return fmt.Errorf("acec: parsing %s: %w", f, err)
		}
		modules = append(modules, m)
	}

	arena := sym.NewArena()
	nat, err := natives.Init(arena, arena.Root())
	if err != nil {
		return fmt.Errorf("acec: initializing native registry: %w", err)
	}

	started := time.Now()
	artifact, compileErr := compiler.Compile(modules, nat)
	finished := time.Now()

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "acec: compiled %d file(s) in %s\n", len(files), finished.Sub(started))
	}

	if cfg.RunDBPath != "" {
		if err := recordRun(cfg.RunDBPath, started, finished, compileErr); err != nil {
			fmt.Fprintf(os.Stderr, "acec: warning: could not write run ledger: %v\n", err)
		}
	}

	if compileErr != nil {
		fmt.Fprintf(os.Stderr, "acec: %v\n", compileErr)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "acec: compiled %d function(s) across %d file(s)\n", len(artifact.Functions), len(files))
	return nil
}

// recordRun writes one ledger row, never consulted by the core pipeline
// itself (SPEC_FULL.md §6, component M) — purely a post-hoc observer.
func recordRun(path string, started, finished time.Time, compileErr error) error {
	ledger, err := rundb.Open(path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	rec := rundb.Record{StartedAt: started, FinishedAt: finished, Outcome: "ok"}
	if compileErr != nil {
		rec.Outcome = "error"
		rec.DiagCount = 1
		rec.Diagnostics = []string{compileErr.Error()}
	}
	return ledger.Write(rec)
}
