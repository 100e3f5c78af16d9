package asic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/meigma/asic/core/internal/file"
	"github.com/meigma/asic/core/internal/platform"
	"github.com/meigma/asic/core/internal/write"
)

const copyBufferSize = 32 * 1024

// addDirConfig holds configuration for AddDir.
type addDirConfig struct {
	prefix   string
	encrypt  func(path string) bool
	progress ProgressFunc
}

// AddDirOption configures AddDir.
type AddDirOption func(*addDirConfig)

// AddDirWithPrefix places every file under prefix inside the container.
func AddDirWithPrefix(prefix string) AddDirOption {
	return func(cfg *addDirConfig) {
		cfg.prefix = prefix
	}
}

// AddDirWithEncrypt encrypts the files for which fn returns true. fn receives
// the slash-separated path relative to the directory.
func AddDirWithEncrypt(fn func(path string) bool) AddDirOption {
	return func(cfg *addDirConfig) {
		cfg.encrypt = fn
	}
}

// AddDirWithProgress sets a callback that receives progress updates.
func AddDirWithProgress(fn ProgressFunc) AddDirOption {
	return func(cfg *addDirConfig) {
		cfg.progress = fn
	}
}

// AddFile adds the regular file at src as the data entry name, detecting its
// media type from name. Symbolic links are rejected with ErrSymlink.
func (w *Writer) AddFile(ctx context.Context, name, src string) error {
	root, err := os.OpenRoot(filepath.Dir(src))
	if err != nil {
		return err
	}
	defer root.Close()

	f, info, err := platform.OpenRegular(root, filepath.Base(src))
	switch {
	case errors.Is(err, platform.ErrSymlink):
		return fmt.Errorf("%w: %s", ErrSymlink, src)
	case err != nil:
		return err
	}
	defer f.Close()

	_, err = w.addStream(ctx, name, f, info, make([]byte, copyBufferSize))
	return err
}

// AddDir adds every regular file below dir as a data entry, in lexical path
// order. Empty directories are not preserved. Symbolic links and other
// non-regular files are skipped. At most Config.MaxFiles files are added;
// exceeding the limit fails with ErrTooManyFiles.
//
// The context can be used for cancellation of long-running ingestion.
func (w *Writer) AddDir(ctx context.Context, dir string, opts ...AddDirOption) error {
	cfg := addDirConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	maxFiles := w.cfg.MaxFiles
	if maxFiles == 0 {
		maxFiles = DefaultMaxFiles
	}
	w.log().Info("adding directory", "dir", dir, "prefix", cfg.prefix)
	cfg.report(ProgressEvent{Stage: StageEnumerating})

	buf := make([]byte, copyBufferSize)
	var (
		count int
		total uint64
	)
	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		n, skip, procErr := w.processDirEntry(ctx, root, &cfg, buf, p, d, walkErr, maxFiles, count)
		if procErr != nil || skip {
			return procErr
		}
		if n > ^uint64(0)-total {
			return ErrSizeOverflow
		}
		total += n
		count++
		cfg.report(ProgressEvent{Stage: StageAdding, Path: p, BytesDone: total, FilesDone: count})
		return nil
	})
	if err != nil {
		return err
	}

	w.log().Debug("directory added", "dir", dir, "file_count", count, "bytes", total)
	return nil
}

func (cfg *addDirConfig) report(ev ProgressEvent) {
	if cfg.progress != nil {
		cfg.progress(ev)
	}
}

// processDirEntry handles a single directory entry during AddDir.
//
//nolint:gocritic // unnamedResult is acceptable for this internal helper
func (w *Writer) processDirEntry(ctx context.Context, root *os.Root, cfg *addDirConfig, buf []byte, p string, d fs.DirEntry, walkErr error, maxFiles, count int) (uint64, bool, error) {
	if walkErr != nil {
		return 0, false, walkErr
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if d.IsDir() {
		return 0, true, nil
	}

	fsPath := filepath.FromSlash(p)
	ok, err := write.IsRegularEntry(root, fsPath, d)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		w.log().Debug("skipped non-regular file", "path", p)
		return 0, true, nil
	}

	if maxFiles > 0 && count >= maxFiles {
		return 0, false, ErrTooManyFiles
	}

	f, info, err := platform.OpenRegular(root, fsPath)
	if err != nil {
		if errors.Is(err, platform.ErrSymlink) || errors.Is(err, platform.ErrNotRegular) {
			w.log().Debug("skipped file replaced during walk", "path", p)
			return 0, true, nil
		}
		return 0, false, err
	}
	defer f.Close()

	name := p
	if cfg.prefix != "" {
		name = path.Join(cfg.prefix, p)
	}
	if cfg.encrypt != nil && cfg.encrypt(p) {
		w.EncryptNext()
	}

	n, err := w.addStream(ctx, name, f, info, buf)
	if err != nil {
		return 0, false, err
	}
	return n, false, nil
}

// addStream copies f into a new data entry and verifies f did not change
// while it was read. It returns the number of source bytes read.
func (w *Writer) addStream(ctx context.Context, name string, f *os.File, before fs.FileInfo, buf []byte) (uint64, error) {
	dst, err := w.Add(name, "")
	if err != nil {
		return 0, err
	}

	src := &file.CountingReader{R: f}
	_, copyErr := file.CopyWithContext(ctx, dst, src, buf)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		if errors.Is(err, file.ErrOverflow) {
			return src.N, ErrSizeOverflow
		}
		return src.N, fmt.Errorf("add %s: %w", name, err)
	}

	if err := write.CheckFileUnchanged(f, name, before); err != nil {
		return src.N, err
	}
	return src.N, nil
}
