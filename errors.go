package asic

import (
	asiccore "github.com/meigma/asic/core"
	"github.com/meigma/asic/core/signature"
)

// Errors re-exported from core.
var (
	// ErrProtocol is wrapped by every writer protocol violation.
	ErrProtocol = asiccore.ErrProtocol

	// ErrAddAfterSign is returned when data is added after signing.
	ErrAddAfterSign = asiccore.ErrAddAfterSign

	// ErrReservedPath is returned when a data entry would land in META-INF/.
	ErrReservedPath = asiccore.ErrReservedPath

	// ErrRootFileUnsupported is returned when the signature creator cannot record a root file.
	ErrRootFileUnsupported = asiccore.ErrRootFileUnsupported

	// ErrUnsigned is returned when closing a container that was never signed.
	ErrUnsigned = asiccore.ErrUnsigned

	// ErrAlreadySigned is returned when signing or setting the root file after signing.
	ErrAlreadySigned = asiccore.ErrAlreadySigned

	// ErrClosed is returned by operations on a closed writer.
	ErrClosed = asiccore.ErrClosed

	// ErrMetadataPath is returned when a non-data entry is placed outside META-INF/.
	ErrMetadataPath = asiccore.ErrMetadataPath

	// ErrEntryOpen is returned when adding or signing while an entry stream is open.
	ErrEntryOpen = asiccore.ErrEntryOpen

	// ErrNoSignatureCreator is returned when a writer is built without a signature creator.
	ErrNoSignatureCreator = asiccore.ErrNoSignatureCreator

	// ErrNoEncryptionFilter is returned when encryption is requested without a filter.
	ErrNoEncryptionFilter = asiccore.ErrNoEncryptionFilter

	// ErrDuplicateEntry is returned when two entries share a path.
	ErrDuplicateEntry = asiccore.ErrDuplicateEntry

	// ErrInvalidPath is returned for empty, absolute or escaping entry paths.
	ErrInvalidPath = asiccore.ErrInvalidPath

	// ErrSizeOverflow is returned when a size value overflows.
	ErrSizeOverflow = asiccore.ErrSizeOverflow

	// ErrSymlink is returned when a symlink is added as a file.
	ErrSymlink = asiccore.ErrSymlink

	// ErrTooManyFiles is returned when a directory holds more files than allowed.
	ErrTooManyFiles = asiccore.ErrTooManyFiles
)

// Errors re-exported from signature.
var (
	// ErrNoDataEntries is returned when signing a container without data entries.
	ErrNoDataEntries = signature.ErrNoDataEntries

	// ErrRootFileNotFound is returned when the root file names no data entry.
	ErrRootFileNotFound = signature.ErrRootFileNotFound
)
