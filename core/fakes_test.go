package asic

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meigma/asic/core/testutil"
)

const fakeSignaturePath = "META-INF/signature.fake"

// fakeCreator records Create calls and writes one signature entry listing
// the data entry paths.
type fakeCreator struct {
	rootFile bool
	err      error
	calls    int
	seen     [][]string
	log      *[]string
}

func (f *fakeCreator) SupportsRootFile() bool { return f.rootFile }

func (f *fakeCreator) Create(_ context.Context, layer WriterLayer, c *Container, _ Config) error {
	f.calls++
	if f.log != nil {
		*f.log = append(*f.log, "create")
	}
	if f.err != nil {
		return f.err
	}
	var paths []string
	for _, e := range c.DataEntries() {
		paths = append(paths, e.Path)
	}
	f.seen = append(f.seen, paths)

	w, err := layer.AddContent(EntrySignature, fakeSignaturePath, "application/octet-stream")
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := io.WriteString(w, p+"\n"); err != nil {
			return err
		}
	}
	return w.Close()
}

// fakeFilter prefixes content with a marker and appends an extension.
type fakeFilter struct {
	ext    string
	opened int
}

func (f *fakeFilter) Filename(original string) string { return original + f.ext }

func (f *fakeFilter) NewFilter(w io.WriteCloser, _ Config) (io.WriteCloser, error) {
	f.opened++
	if _, err := io.WriteString(w, "ENC:"); err != nil {
		return nil, err
	}
	return &markedStream{w: w}, nil
}

type markedStream struct {
	w io.WriteCloser
}

func (m *markedStream) Write(p []byte) (int, error) { return m.w.Write(p) }
func (m *markedStream) Close() error                { return m.w.Close() }

// recordingProcessor appends its name to a shared log when performed.
func recordingProcessor(at Lifecycle, name string, log *[]string) Processor {
	return NewProcessor(at, func(context.Context, WriterLayer, *Container, Config) error {
		*log = append(*log, name)
		return nil
	})
}

var testModTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestWriter returns a writer over an in-memory buffer.
func newTestWriter(t *testing.T, opts ...Option) (*Writer, *testutil.CloseTracker, *fakeCreator) {
	t.Helper()
	creator := &fakeCreator{rootFile: true}
	out := &testutil.CloseTracker{}
	opts = append([]Option{WithSignatureCreator(creator), WithModTime(testModTime)}, opts...)
	w, err := NewWriter(context.Background(), out, opts...)
	require.NoError(t, err)
	return w, out, creator
}

// addEntry writes content as a complete data entry.
func addEntry(t *testing.T, w *Writer, name, mimeType, content string) {
	t.Helper()
	s, err := w.Add(name, mimeType)
	require.NoError(t, err)
	_, err = io.Copy(s, bytes.NewBufferString(content))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
