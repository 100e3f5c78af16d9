package write

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRegularEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	want := map[string]bool{"a.txt": true, "sub": false}
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("a.txt", filepath.Join(dir, "link")))
		want["link"] = false
	}

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	entries, err := fs.ReadDir(root.FS(), ".")
	require.NoError(t, err)
	require.Len(t, entries, len(want))
	for _, d := range entries {
		ok, err := IsRegularEntry(root, d.Name(), d)
		require.NoError(t, err)
		assert.Equal(t, want[d.Name()], ok, d.Name())
	}
}

func TestCheckFileUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	before, err := f.Stat()
	require.NoError(t, err)

	require.NoError(t, CheckFileUnchanged(f, "a.txt", before))
	_, err = f.WriteString("abcdef")
	require.NoError(t, err)
	require.Error(t, CheckFileUnchanged(f, "a.txt", before))
}
