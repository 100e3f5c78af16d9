package asic

import (
	"errors"
	"fmt"
)

// ErrProtocol is wrapped by every error reporting a violation of the writer
// protocol. Such errors are raised before any I/O, so the rejected call leaves
// the archive untouched.
var ErrProtocol = errors.New("asic: protocol violation")

// Protocol violations.
var (
	// ErrAddAfterSign is returned when content is added to a signed container.
	ErrAddAfterSign = fmt.Errorf("%w: adding content after signing is not supported", ErrProtocol)

	// ErrReservedPath is returned when a data entry targets the META-INF namespace.
	ErrReservedPath = fmt.Errorf("%w: adding files to META-INF is not allowed", ErrProtocol)

	// ErrRootFileUnsupported is returned by SetRootFile when the signature
	// creator cannot designate a root file.
	ErrRootFileUnsupported = fmt.Errorf("%w: root file is not supported by the signature creator", ErrProtocol)

	// ErrUnsigned is returned when closing a container that was never signed.
	ErrUnsigned = fmt.Errorf("%w: unsigned ASiC-E container cannot be closed", ErrProtocol)

	// ErrAlreadySigned is returned by a second call to Sign.
	ErrAlreadySigned = fmt.Errorf("%w: container is already signed", ErrProtocol)

	// ErrClosed is returned by any operation on a closed writer.
	ErrClosed = fmt.Errorf("%w: writer is closed", ErrProtocol)

	// ErrMetadataPath is returned when a manifest, signature or metadata
	// entry is placed outside META-INF.
	ErrMetadataPath = fmt.Errorf("%w: non-data entries must be under META-INF", ErrProtocol)

	// ErrEntryOpen is returned when a new entry is started, or the container
	// signed, while the stream of the previous entry is still open.
	ErrEntryOpen = fmt.Errorf("%w: previous entry stream is not closed", ErrProtocol)
)

// Configuration errors.
var (
	// ErrNoSignatureCreator is returned when a writer is built without a signature creator.
	ErrNoSignatureCreator = errors.New("asic: no signature creator configured")

	// ErrNoEncryptionFilter is returned when encryption is requested without a filter.
	ErrNoEncryptionFilter = errors.New("asic: no encryption filter configured")
)

// Writer layer errors.
var (
	// ErrLayerClosed is returned when the archive stream has already been finalized.
	ErrLayerClosed = errors.New("asic: archive stream is closed")

	// ErrEntryClosed is returned when writing to an entry stream after Close.
	ErrEntryClosed = errors.New("asic: entry stream is closed")

	// ErrSealed is returned when a data entry is added after signing completed.
	ErrSealed = errors.New("asic: container is sealed")

	// ErrDuplicateEntry is returned when a path is added twice.
	ErrDuplicateEntry = errors.New("asic: duplicate entry")

	// ErrInvalidPath is returned when an entry path is not a valid archive path.
	ErrInvalidPath = errors.New("asic: invalid entry path")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("asic: size overflow")
)

// Directory ingestion errors.
var (
	// ErrSymlink is returned when a symlink is encountered where not allowed.
	ErrSymlink = errors.New("asic: symlink")

	// ErrTooManyFiles is returned when the file count exceeds the configured limit.
	ErrTooManyFiles = errors.New("asic: too many files")
)
