package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("test", pflag.ContinueOnError)
}

func TestBuild_Defaults(t *testing.T) {
	cfg, err := Build(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "", cfg.Pattern)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, defaultRunDBPath, cfg.RunDBPath)
	assert.Empty(t, cfg.Files)
}

func TestBuild_FlagsOverrideDefaults(t *testing.T) {
	cfg, err := Build(newFlagSet(), []string{
		"--root", "src", "--pattern", "**/*.x", "--verbose", "--run-db", "custom.db",
		"extra1.ace", "extra2.ace",
	})
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.Root)
	assert.Equal(t, "**/*.x", cfg.Pattern)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "custom.db", cfg.RunDBPath)
	assert.Equal(t, []string{"extra1.ace", "extra2.ace"}, cfg.Files)
}

func TestBuild_ShortFlags(t *testing.T) {
	cfg, err := Build(newFlagSet(), []string{"-r", "lib", "-p", "*.ace", "-v"})
	require.NoError(t, err)
	assert.Equal(t, "lib", cfg.Root)
	assert.Equal(t, "*.ace", cfg.Pattern)
	assert.True(t, cfg.Verbose)
}

func TestBuild_RunDBPathFromEnvironment(t *testing.T) {
	t.Setenv("ACEC_RUN_DB_PATH", "/tmp/from-env.db")
	cfg, err := Build(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.RunDBPath)
}

func TestBuild_FlagTakesPrecedenceOverEnvironment(t *testing.T) {
	t.Setenv("ACEC_RUN_DB_PATH", "/tmp/from-env.db")
	cfg, err := Build(newFlagSet(), []string{"--run-db", "/tmp/from-flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-flag.db", cfg.RunDBPath)
}

func TestBuild_InvalidFlagErrors(t *testing.T) {
	_, err := Build(newFlagSet(), []string{"--not-a-real-flag"})
	assert.Error(t, err)
}
