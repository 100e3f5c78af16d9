// Package testutil holds helpers shared by the container tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// CloseTracker is an in-memory output stream that records Close calls.
type CloseTracker struct {
	bytes.Buffer

	// Closes counts Close calls.
	Closes int

	// CloseErr is returned by Close when set.
	CloseErr error
}

// Close implements io.Closer.
func (c *CloseTracker) Close() error {
	c.Closes++
	return c.CloseErr
}

// ArchiveFile is one member of a ZIP archive as read back in tests.
type ArchiveFile struct {
	Name    string
	Method  uint16
	Extra   []byte
	Content []byte
}

// ReadArchive parses data as a ZIP archive and returns its members in
// central-directory order with decompressed content.
func ReadArchive(t testing.TB, data []byte) []ArchiveFile {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	files := make([]ArchiveFile, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err, "open %s", f.Name)
		content, err := io.ReadAll(rc)
		require.NoError(t, err, "read %s", f.Name)
		require.NoError(t, rc.Close())
		files = append(files, ArchiveFile{
			Name:    f.Name,
			Method:  f.Method,
			Extra:   f.Extra,
			Content: content,
		})
	}
	return files
}

// ArchiveNames returns the member names of files in order.
func ArchiveNames(files []ArchiveFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// FindFile returns the member named name.
func FindFile(t testing.TB, files []ArchiveFile, name string) ArchiveFile {
	t.Helper()
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "archive member not found", "%s in %v", name, ArchiveNames(files))
	return ArchiveFile{}
}

// WriteTree creates files under dir. Keys are slash-separated relative paths.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
