package asic

import (
	"fmt"

	"github.com/meigma/asic/core/multidigest"
)

// Mode identifies whether a container is being written or read.
type Mode uint8

const (
	ModeWriter Mode = iota
	ModeReader
)

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeWriter:
		return "writer"
	case ModeReader:
		return "reader"
	default:
		return "unknown"
	}
}

// EntryType identifies the role an entry plays in the container.
type EntryType uint8

const (
	// EntryData is a user payload.
	EntryData EntryType = iota

	// EntryManifest lists the signed data objects.
	EntryManifest

	// EntrySignature holds a detached signature.
	EntrySignature

	// EntryMetadata is any other file under META-INF.
	EntryMetadata
)

// String returns the human-readable name of the entry type.
func (t EntryType) String() string {
	switch t {
	case EntryData:
		return "data"
	case EntryManifest:
		return "manifest"
	case EntrySignature:
		return "signature"
	case EntryMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Entry describes one file stored in the container.
type Entry struct {
	// Path is the slash-separated path inside the archive (e.g., "docs/a.xml").
	Path string

	// MimeType is the media type recorded for the entry.
	MimeType string

	// Type is the role of the entry.
	Type EntryType

	// Size is the number of bytes written to the entry stream. For
	// encrypted entries this is the ciphertext size.
	Size uint64

	// Digests holds the finalized digests of the stored bytes. It is nil
	// until the entry stream has been closed.
	Digests multidigest.Sums

	// Encrypted reports whether the entry was written through an encryption filter.
	Encrypted bool
}

// Committed reports whether the entry stream has been closed.
func (e Entry) Committed() bool {
	return e.Digests != nil
}

func (e Entry) clone() Entry {
	e.Digests = e.Digests.Clone()
	return e
}

// Container is the in-memory model of an archive under construction.
//
// A Container is owned by a single Writer and is not safe for concurrent use.
// Signature creators and processors receive it for the duration of a call.
type Container struct {
	mode     Mode
	entries  []*Entry
	byPath   map[string]*Entry
	rootFile string
	sealed   bool
}

// NewContainer returns an empty container in the given mode.
func NewContainer(mode Mode) *Container {
	return &Container{
		mode:   mode,
		byPath: make(map[string]*Entry),
	}
}

// Mode returns the container mode.
func (c *Container) Mode() Mode {
	return c.mode
}

// Len returns the number of registered entries.
func (c *Container) Len() int {
	return len(c.entries)
}

// Entries returns copies of all entries in insertion order.
func (c *Container) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.clone())
	}
	return out
}

// DataEntries returns copies of the data entries in insertion order.
func (c *Container) DataEntries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Type == EntryData {
			out = append(out, e.clone())
		}
	}
	return out
}

// Entry returns a copy of the entry stored at path.
func (c *Container) Entry(path string) (Entry, bool) {
	e, ok := c.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// RootFile returns the designated root file, if any.
func (c *Container) RootFile() (string, bool) {
	return c.rootFile, c.rootFile != ""
}

// SetRootFile records path as the root file. The path is not checked
// against the registered entries; signature creators validate it when
// the container is signed.
func (c *Container) SetRootFile(path string) {
	c.rootFile = path
}

// Sealed reports whether signing has completed. Sealed containers accept
// no further data entries.
func (c *Container) Sealed() bool {
	return c.sealed
}

func (c *Container) seal() {
	c.sealed = true
}

// register adds a new entry and returns the stored pointer so the writer
// layer can fill in size and digests when the entry stream closes.
func (c *Container) register(e Entry) (*Entry, error) {
	if _, dup := c.byPath[e.Path]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Path)
	}
	stored := &e
	c.entries = append(c.entries, stored)
	c.byPath[e.Path] = stored
	return stored, nil
}

func (c *Container) markEncrypted(path string) {
	if e, ok := c.byPath[path]; ok {
		e.Encrypted = true
	}
}
