package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("module m {}\n"), 0o644))
}

func TestFiles_ExplicitArgsShortCircuit(t *testing.T) {
	files, err := Files("/does/not/matter", "", []string{"a.ace", "b.ace"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ace", "b.ace"}, files)
}

func TestFiles_DefaultPatternFindsNestedSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.ace"))
	writeFile(t, filepath.Join(root, "sub", "dir", "helper.ace"))
	writeFile(t, filepath.Join(root, "README.md"))

	files, err := Files(root, "", nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "main.ace"), files[0])
	assert.Equal(t, filepath.Join(root, "sub", "dir", "helper.ace"), files[1])
}

func TestFiles_CustomPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ace"))
	writeFile(t, filepath.Join(root, "b.txt"))

	files, err := Files(root, "*.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.txt")}, files)
}

func TestFiles_NoMatchesReturnsEmpty(t *testing.T) {
	root := t.TempDir()
	files, err := Files(root, "", nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}
