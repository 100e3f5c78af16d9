package asic

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asic/core/testutil"
)

func TestWriter_AddDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"b.txt":         "bee",
		"a/nested.xml":  "<n/>",
		"a/z/deep.json": "{}",
		"secret.txt":    "hidden",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	filter := &fakeFilter{ext: ".enc"}
	w, out, _ := newTestWriter(t, WithEncryptionFilter(filter))

	var events []ProgressEvent
	err := w.AddDir(context.Background(), dir,
		AddDirWithPrefix("payload"),
		AddDirWithEncrypt(func(p string) bool { return strings.HasPrefix(p, "secret") }),
		AddDirWithProgress(func(ev ProgressEvent) { events = append(events, ev) }))
	require.NoError(t, err)

	var names []string
	for _, e := range w.Container().DataEntries() {
		names = append(names, e.Path)
	}
	assert.Equal(t, []string{
		"payload/a/nested.xml",
		"payload/a/z/deep.json",
		"payload/b.txt",
		"payload/secret.txt.enc",
	}, names)

	nested, _ := w.Container().Entry("payload/a/nested.xml")
	assert.Equal(t, "application/xml", nested.MimeType)
	secret, _ := w.Container().Entry("payload/secret.txt.enc")
	assert.True(t, secret.Encrypted)
	assert.Equal(t, 1, filter.opened)

	require.NotEmpty(t, events)
	assert.Equal(t, StageEnumerating, events[0].Stage)
	last := events[len(events)-1]
	assert.Equal(t, StageAdding, last.Stage)
	assert.Equal(t, 4, last.FilesDone)
	assert.Equal(t, uint64(len("bee")+len("<n/>")+len("{}")+len("hidden")), last.BytesDone)

	require.NoError(t, w.Sign(context.Background()))
	require.NoError(t, w.Close())
	files := testutil.ReadArchive(t, out.Bytes())
	assert.Equal(t, "bee", string(testutil.FindFile(t, files, "payload/b.txt").Content))
	assert.Equal(t, "ENC:hidden", string(testutil.FindFile(t, files, "payload/secret.txt.enc").Content))
}

func TestWriter_AddDirSkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"real.txt": "real"})
	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("outside"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "link.txt")))

	w, _, _ := newTestWriter(t)
	require.NoError(t, w.AddDir(context.Background(), dir))

	assert.Equal(t, 1, w.Container().Len())
	_, ok := w.Container().Entry("real.txt")
	assert.True(t, ok)
}

func TestWriter_AddDirMaxFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"a": "1", "b": "2", "c": "3"})

	w, _, _ := newTestWriter(t, WithMaxFiles(2))
	require.ErrorIs(t, w.AddDir(context.Background(), dir), ErrTooManyFiles)

	w, _, _ = newTestWriter(t, WithMaxFiles(-1))
	require.NoError(t, w.AddDir(context.Background(), dir))
	assert.Equal(t, 3, w.Container().Len())
}

func TestWriter_AddDirCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"a": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w, _, _ := newTestWriter(t)
	require.ErrorIs(t, w.AddDir(ctx, dir), context.Canceled)
}

func TestWriter_AddDirRejectsReservedPrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"x": "1"})

	w, _, _ := newTestWriter(t)
	err := w.AddDir(context.Background(), dir, AddDirWithPrefix("meta-inf"))
	require.ErrorIs(t, err, ErrReservedPath)
	assert.Zero(t, w.Container().Len())
}

func TestWriter_AddFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.7"), 0o644))

	w, _, _ := newTestWriter(t)
	require.NoError(t, w.AddFile(context.Background(), "docs/doc.pdf", src))

	e, ok := w.Container().Entry("docs/doc.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", e.MimeType)
	assert.Equal(t, uint64(8), e.Size)

	if runtime.GOOS != "windows" {
		link := filepath.Join(dir, "link.pdf")
		require.NoError(t, os.Symlink(src, link))
		require.ErrorIs(t, w.AddFile(context.Background(), "link.pdf", link), ErrSymlink)
	}

	require.Error(t, w.AddFile(context.Background(), "dir", dir))
}
