package asic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/meigma/asic/core/multidigest"
)

// state is the position of a Writer in its protocol.
type state uint8

const (
	// stateOpen accepts content.
	stateOpen state = iota

	// stateEncryptPending accepts content; the next Add is encrypted.
	stateEncryptPending

	// stateSigned accepts only Close.
	stateSigned

	// stateClosed accepts nothing.
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateEncryptPending:
		return "encrypt-pending"
	case stateSigned:
		return "signed"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Writer builds one ASiC-E container.
//
// Content is added with Add until Sign is called; Close then finalizes the
// archive. Calls that violate this order fail with an error wrapping
// ErrProtocol before any I/O happens. After any other error the archive is
// in an undefined state and must be discarded.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	cfg       Config
	out       io.Writer
	layer     *zipLayer
	container *Container
	state     state

	// path is set for writers created by CreateFile.
	path string
}

// NewWriter starts a container on out and runs the initial processors.
//
// The caller keeps ownership of out unless WithCloseStream(true) is given,
// in which case Close also closes it.
func NewWriter(ctx context.Context, out io.Writer, opts ...Option) (*Writer, error) {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SignatureCreator == nil {
		return nil, ErrNoSignatureCreator
	}
	if len(cfg.DigestAlgorithms) == 0 {
		cfg.DigestAlgorithms = []multidigest.Algorithm{multidigest.Default}
	}
	if _, err := multidigest.New(cfg.DigestAlgorithms...); err != nil {
		return nil, err
	}
	if cfg.MimeDetector == nil {
		cfg.MimeDetector = ExtensionDetector{}
	}
	if cfg.ModTime.IsZero() {
		cfg.ModTime = time.Now()
	}

	container := NewContainer(ModeWriter)
	layer, err := newZipLayer(out, container, cfg)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		cfg:       cfg,
		out:       out,
		layer:     layer,
		container: container,
	}
	w.log().Info("creating container",
		"digests", fmt.Sprint(cfg.DigestAlgorithms),
		"compression", cfg.Compression.String(),
		"processors", len(cfg.Processors))

	if err := performProcessors(ctx, LifecycleInitial, w.layer, w.container, w.cfg); err != nil {
		return nil, err
	}
	return w, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	return w.cfg.Log()
}

// Container returns the container model. It is owned by the writer and
// must not be modified by the caller.
func (w *Writer) Container() *Container {
	return w.container
}

// Signed reports whether Sign has completed.
func (w *Writer) Signed() bool {
	return w.container.Sealed()
}

// Add opens a data entry at name and returns the stream its content is
// written to. The stream must be closed before the next Add or Sign, which
// otherwise fail with ErrEntryOpen. Close commits a stream left open.
//
// If mimeType is empty it is detected from the stored file name. When
// EncryptNext was called, the entry is renamed by the encryption filter and
// the returned stream encrypts what is written to it.
func (w *Writer) Add(name, mimeType string) (io.WriteCloser, error) {
	switch w.state {
	case stateClosed:
		return nil, ErrClosed
	case stateSigned:
		return nil, ErrAddAfterSign
	case stateOpen, stateEncryptPending:
	}
	if IsReservedPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrReservedPath, name)
	}
	if w.layer.hasOpenEntry() {
		return nil, fmt.Errorf("%w: %s", ErrEntryOpen, w.layer.open.entry.Path)
	}

	if w.state == stateEncryptPending {
		w.state = stateOpen
		return w.addEncrypted(name, mimeType)
	}
	return w.layer.AddContent(EntryData, name, w.resolveMimeType(name, mimeType))
}

func (w *Writer) addEncrypted(name, mimeType string) (io.WriteCloser, error) {
	filter := w.cfg.EncryptionFilter
	if filter == nil {
		return nil, ErrNoEncryptionFilter
	}

	stored := filter.Filename(name)
	raw, err := w.layer.AddContent(EntryData, stored, w.resolveMimeType(stored, mimeType))
	if err != nil {
		return nil, err
	}
	w.container.markEncrypted(NormalizePath(stored))

	enc, err := filter.NewFilter(raw, w.cfg)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("encrypt %s: %w", stored, err)
	}
	w.log().Debug("encrypted entry opened", "name", name, "stored", stored)
	return enc, nil
}

// resolveMimeType returns mimeType if set, otherwise the detected type of
// the stored file name.
func (w *Writer) resolveMimeType(name, mimeType string) string {
	if mimeType != "" {
		return mimeType
	}
	return w.cfg.MimeDetector.Detect(name)
}

// EncryptNext requests encryption of the next entry added. The request
// applies to exactly one Add; calling EncryptNext repeatedly before that
// Add has the same effect as calling it once. It has no effect once the
// container is signed.
func (w *Writer) EncryptNext() *Writer {
	if w.state == stateOpen {
		w.state = stateEncryptPending
	}
	return w
}

// SetRootFile designates name as the root file of the container.
//
// It fails with ErrRootFileUnsupported when the signature creator cannot
// express a root file. The name is not checked against added entries; the
// signature creator validates it during Sign.
func (w *Writer) SetRootFile(name string) error {
	switch w.state {
	case stateClosed:
		return ErrClosed
	case stateSigned:
		return ErrAlreadySigned
	case stateOpen, stateEncryptPending:
	}
	if !w.cfg.SignatureCreator.SupportsRootFile() {
		return ErrRootFileUnsupported
	}
	w.container.SetRootFile(NormalizePath(name))
	return nil
}

// Sign runs the before-signature processors, signs the container with the
// configured signature creator, and runs the after-signature processors.
//
// Sign may be called only once; a second call returns ErrAlreadySigned
// without running any processor. It fails with ErrEntryOpen while an entry
// stream is still open. A pending EncryptNext request is dropped.
func (w *Writer) Sign(ctx context.Context) error {
	switch w.state {
	case stateClosed:
		return ErrClosed
	case stateSigned:
		return ErrAlreadySigned
	case stateOpen, stateEncryptPending:
	}
	if w.layer.hasOpenEntry() {
		return fmt.Errorf("%w: %s", ErrEntryOpen, w.layer.open.entry.Path)
	}
	if w.state == stateEncryptPending {
		w.log().Debug("dropping pending encryption request at sign")
		w.state = stateOpen
	}

	if err := performProcessors(ctx, LifecycleBeforeSignature, w.layer, w.container, w.cfg); err != nil {
		return err
	}

	w.log().Info("signing container", "entries", w.container.Len())
	if err := w.cfg.SignatureCreator.Create(ctx, w.layer, w.container, w.cfg); err != nil {
		return fmt.Errorf("create signature: %w", err)
	}
	if w.layer.hasOpenEntry() {
		return fmt.Errorf("create signature: %w: %s", ErrEntryOpen, w.layer.open.entry.Path)
	}
	w.container.seal()
	w.state = stateSigned

	return performProcessors(ctx, LifecycleAfterSignature, w.layer, w.container, w.cfg)
}

// Close finalizes the archive. It fails with ErrUnsigned if Sign has not
// completed. When the writer owns the output stream, it is closed too.
func (w *Writer) Close() error {
	switch w.state {
	case stateClosed:
		return ErrClosed
	case stateOpen, stateEncryptPending:
		return ErrUnsigned
	case stateSigned:
	}
	w.state = stateClosed

	err := w.layer.Close()
	if w.cfg.closeStream {
		if c, ok := w.out.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
			}
		}
	}
	if err != nil {
		return err
	}

	w.log().Info("container closed", "entries", w.container.Len())
	return nil
}
