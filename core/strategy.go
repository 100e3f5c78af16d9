package asic

import (
	"context"
	"io"
)

// SignatureCreator signs a container. Create computes whatever manifest the
// signature format needs from the registered entries and writes manifest and
// signature entries through the writer layer.
type SignatureCreator interface {
	Create(ctx context.Context, layer WriterLayer, c *Container, cfg Config) error

	// SupportsRootFile reports whether the format can designate a root file.
	SupportsRootFile() bool
}

// EncryptionFilter encrypts individual payload entries.
//
// Implementations hold only algorithm configuration; every NewFilter call
// returns an independent stream.
type EncryptionFilter interface {
	// Filename maps the logical entry name to the name stored in the
	// archive, e.g. by appending an extension.
	Filename(original string) string

	// NewFilter returns a stream that encrypts bytes written to it and
	// forwards the ciphertext to w. Closing the returned stream flushes the
	// cipher and then closes w.
	NewFilter(w io.WriteCloser, cfg Config) (io.WriteCloser, error)
}

// MimeDetector derives a media type from a file name.
// Detect must be a pure function of its argument.
type MimeDetector interface {
	Detect(filename string) string
}

// MimeDetectorFunc adapts a function to MimeDetector.
type MimeDetectorFunc func(filename string) string

// Detect implements MimeDetector.
func (f MimeDetectorFunc) Detect(filename string) string {
	return f(filename)
}
