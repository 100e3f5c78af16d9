package asic

import (
	"log/slog"
	"time"

	"github.com/meigma/asic/core/internal/write"
	"github.com/meigma/asic/core/multidigest"
)

// DefaultMaxFiles is the default limit used by AddDir when no MaxFiles option is set.
const DefaultMaxFiles = 200_000

// Compression identifies the compression method used for entries.
type Compression uint8

const (
	// CompressionDeflate stores entries with DEFLATE, the method every ASiC
	// reader understands.
	CompressionDeflate Compression = iota

	// CompressionNone stores entries uncompressed.
	CompressionNone

	// CompressionZstd stores entries with Zstandard (ZIP method 93).
	CompressionZstd
)

// String returns the human-readable name of the compression method.
func (c Compression) String() string {
	switch c {
	case CompressionDeflate:
		return "deflate"
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// SkipCompressionFunc returns true when an entry should be stored uncompressed.
// It is called once per entry and should be inexpensive.
type SkipCompressionFunc = write.SkipCompressionFunc

// DefaultSkipCompression returns a SkipCompressionFunc that skips known
// already-compressed and encrypted extensions and media types.
var DefaultSkipCompression = write.DefaultSkipCompression

// Config holds the strategies and settings of a Writer. It is fixed when the
// writer is built; signature creators, encryption filters and processors
// receive it by value and must not modify the slices it references.
type Config struct {
	// DigestAlgorithms are computed over every entry. The first algorithm
	// is the primary one used by signature creators.
	DigestAlgorithms []multidigest.Algorithm

	// SignatureCreator signs the container. Required.
	SignatureCreator SignatureCreator

	// EncryptionFilter encrypts entries added after EncryptNext.
	EncryptionFilter EncryptionFilter

	// MimeDetector resolves media types for entries added without one.
	MimeDetector MimeDetector

	// Processors run at their lifecycle points, in order.
	Processors []Processor

	// Compression is the method used for entries that are not skipped.
	Compression Compression

	// SkipCompression predicates force entries to be stored uncompressed.
	SkipCompression []SkipCompressionFunc

	// MaxFiles limits AddDir. Zero uses DefaultMaxFiles. Negative means no limit.
	MaxFiles int

	// ModTime is recorded on every archive member. Zero uses the time the
	// writer was created.
	ModTime time.Time

	// Logger receives diagnostic output. Nil discards it.
	Logger *slog.Logger

	closeStream bool
}

// Log returns the configured logger, falling back to a discard logger if nil.
func (c Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// PrimaryAlgorithm returns the first configured digest algorithm.
func (c Config) PrimaryAlgorithm() multidigest.Algorithm {
	if len(c.DigestAlgorithms) == 0 {
		return multidigest.Default
	}
	return c.DigestAlgorithms[0]
}

// Option configures a Writer.
type Option func(*Config)

// WithDigestAlgorithms sets the digest algorithms computed for every entry.
// The first algorithm is the primary one. Defaults to SHA-256.
func WithDigestAlgorithms(algs ...multidigest.Algorithm) Option {
	return func(cfg *Config) {
		cfg.DigestAlgorithms = append([]multidigest.Algorithm(nil), algs...)
	}
}

// WithSignatureCreator sets the strategy used by Sign.
func WithSignatureCreator(sc SignatureCreator) Option {
	return func(cfg *Config) {
		cfg.SignatureCreator = sc
	}
}

// WithEncryptionFilter sets the filter applied to entries added after EncryptNext.
func WithEncryptionFilter(f EncryptionFilter) Option {
	return func(cfg *Config) {
		cfg.EncryptionFilter = f
	}
}

// WithMimeDetector overrides the media type detector (default: ExtensionDetector).
func WithMimeDetector(d MimeDetector) Option {
	return func(cfg *Config) {
		cfg.MimeDetector = d
	}
}

// WithProcessors appends processors. Processors run in the order given,
// filtered by lifecycle point.
func WithProcessors(procs ...Processor) Option {
	return func(cfg *Config) {
		cfg.Processors = append(cfg.Processors, procs...)
	}
}

// WithCompression sets the compression method for entries.
func WithCompression(c Compression) Option {
	return func(cfg *Config) {
		cfg.Compression = c
	}
}

// WithSkipCompression adds predicates that decide to store an entry uncompressed.
// If any predicate returns true, compression is skipped for that entry.
func WithSkipCompression(fns ...SkipCompressionFunc) Option {
	return func(cfg *Config) {
		cfg.SkipCompression = append(cfg.SkipCompression, fns...)
	}
}

// WithMaxFiles limits the number of files AddDir adds.
// Zero uses DefaultMaxFiles. Negative means no limit.
func WithMaxFiles(n int) Option {
	return func(cfg *Config) {
		cfg.MaxFiles = n
	}
}

// WithModTime sets the modification time recorded on archive members.
func WithModTime(t time.Time) Option {
	return func(cfg *Config) {
		cfg.ModTime = t
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithCloseStream makes Close also close the output stream when it
// implements io.Closer. By default the caller keeps ownership of the stream.
func WithCloseStream(enabled bool) Option {
	return func(cfg *Config) {
		cfg.closeStream = enabled
	}
}
