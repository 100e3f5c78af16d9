package asic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CreateFile creates the container file at path and returns a writer that
// owns it: Close finalizes the archive and closes the file.
//
// The parent directory is created if needed. If any later step fails, call
// Abort to close and remove the partial file.
func CreateFile(ctx context.Context, path string, opts ...Option) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create destination directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("create container file: %w", err)
	}

	opts = append(opts, WithCloseStream(true))
	w, err := NewWriter(ctx, f, opts...)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.path = path
	return w, nil
}

// Path returns the file path of a writer created by CreateFile, or "" for
// writers over a caller-provided stream.
func (w *Writer) Path() string {
	return w.path
}

// Abort discards a container created by CreateFile: the file is closed
// without finalizing the archive and then removed. It is a no-op for
// writers over a caller-provided stream and for writers already closed.
func (w *Writer) Abort() error {
	if w.path == "" || w.state == stateClosed {
		return nil
	}
	w.state = stateClosed
	w.log().Warn("aborting container", "path", w.path)

	var err error
	if f, ok := w.out.(*os.File); ok {
		err = f.Close()
	}
	if rerr := os.Remove(w.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		err = errors.Join(err, fmt.Errorf("remove partial container: %w", rerr))
	}
	return err
}
