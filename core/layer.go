package asic

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/asic/core/internal/file"
	"github.com/meigma/asic/core/internal/write"
	"github.com/meigma/asic/core/multidigest"
)

// WriterLayer owns the physical archive stream. Signature creators and
// processors write their entries through it.
type WriterLayer interface {
	// AddContent opens a new archive member, registers it in the container
	// and returns the stream its content is written to. Closing the stream
	// finalizes the entry digests.
	AddContent(typ EntryType, path, mimeType string) (io.WriteCloser, error)

	// Close writes the closing records of the archive.
	Close() error
}

// zipLayer writes the container as a ZIP archive. The mimetype member is
// written first, stored uncompressed and without a data descriptor, so
// readers can identify the container from its leading bytes.
type zipLayer struct {
	zw        *zip.Writer
	container *Container
	cfg       Config
	open      *entryWriter
	closed    bool
}

func newZipLayer(w io.Writer, c *Container, cfg Config) (*zipLayer, error) {
	zw := zip.NewWriter(w)
	if cfg.Compression == CompressionZstd {
		zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true)))
	}
	l := &zipLayer{zw: zw, container: c, cfg: cfg}
	if err := l.writeMimetype(); err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}
	return l, nil
}

func (l *zipLayer) log() *slog.Logger {
	return l.cfg.Log()
}

func (l *zipLayer) writeMimetype() error {
	data := []byte(ContainerMimeType)
	fh := &zip.FileHeader{
		Name:               MimetypeName,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	}
	w, err := l.zw.CreateRaw(fh)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// AddContent implements WriterLayer.
func (l *zipLayer) AddContent(typ EntryType, path, mimeType string) (io.WriteCloser, error) {
	if l.closed {
		return nil, ErrLayerClosed
	}
	path = NormalizePath(path)
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if l.open != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryOpen, l.open.entry.Path)
	}
	switch {
	case typ != EntryData && !IsReservedPath(path):
		return nil, fmt.Errorf("%w: %s entry %s", ErrMetadataPath, typ, path)
	case typ == EntryData && IsReservedPath(path):
		return nil, fmt.Errorf("%w: %s", ErrReservedPath, path)
	case typ == EntryData && l.container.Sealed():
		return nil, fmt.Errorf("%w: cannot add %s", ErrSealed, path)
	}
	if _, exists := l.container.byPath[path]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, path)
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	md, err := multidigest.New(l.cfg.DigestAlgorithms...)
	if err != nil {
		return nil, err
	}

	method := l.method(path, mimeType)
	zw, err := l.zw.CreateHeader(&zip.FileHeader{
		Name:     path,
		Method:   method,
		Modified: l.cfg.ModTime,
	})
	if err != nil {
		return nil, fmt.Errorf("create entry %s: %w", path, err)
	}

	entry, err := l.container.register(Entry{Path: path, MimeType: mimeType, Type: typ})
	if err != nil {
		return nil, err
	}

	ew := &entryWriter{
		layer:   l,
		entry:   entry,
		digest:  md,
		counter: &file.CountingWriter{W: zw},
	}
	ew.w = io.MultiWriter(ew.counter, md)
	l.open = ew

	l.log().Debug("entry opened", "path", path, "type", typ.String(), "mime_type", mimeType, "method", method)
	return ew, nil
}

// Close implements WriterLayer.
func (l *zipLayer) Close() error {
	if l.closed {
		return ErrLayerClosed
	}
	l.commitOpen()
	l.closed = true
	if err := l.zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// hasOpenEntry reports whether an entry stream is still open.
func (l *zipLayer) hasOpenEntry() bool {
	return l.open != nil
}

// commitOpen finalizes an entry whose stream was not closed before the
// archive is finalized.
func (l *zipLayer) commitOpen() {
	if l.open == nil {
		return
	}
	l.log().Warn("entry stream not closed before next operation", "path", l.open.entry.Path)
	_ = l.open.Close()
}

func (l *zipLayer) method(path, mimeType string) uint16 {
	if l.cfg.Compression == CompressionNone || write.ShouldSkip(path, mimeType, l.cfg.SkipCompression) {
		return zip.Store
	}
	if l.cfg.Compression == CompressionZstd {
		return zstd.ZipMethodWinZip
	}
	return zip.Deflate
}

// entryWriter streams one archive member while digesting the stored bytes.
type entryWriter struct {
	layer   *zipLayer
	entry   *Entry
	digest  *multidigest.MultiDigest
	counter *file.CountingWriter
	w       io.Writer
	closed  bool
}

// Write implements io.Writer.
func (e *entryWriter) Write(p []byte) (int, error) {
	if e.closed {
		return 0, ErrEntryClosed
	}
	n, err := e.w.Write(p)
	if errors.Is(err, file.ErrOverflow) {
		return n, ErrSizeOverflow
	}
	return n, err
}

// Close finalizes the entry digests and size. It is safe to call more than once.
func (e *entryWriter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.entry.Size = e.counter.N
	e.entry.Digests = e.digest.Sums()
	if e.layer.open == e {
		e.layer.open = nil
	}
	e.layer.log().Debug("entry committed", "path", e.entry.Path, "size", e.entry.Size)
	return nil
}
