// Package asic provides the low-level ASiC-E container writer.
//
// A container is a ZIP archive whose first member, mimetype, is stored
// uncompressed and without extra fields so the media type can be sniffed at
// a fixed offset. Data entries follow, and everything under META-INF/ is
// reserved for signatures, manifests and other metadata written by the
// pluggable strategies:
//   - [SignatureCreator] writes the signature material when the writer is signed
//   - [EncryptionFilter] encrypts individual data entries and renames them
//   - [Processor] runs at a fixed [Lifecycle] point to add metadata entries
//
// Every committed entry carries its size and a digest for each configured
// algorithm, so signature creators never re-read archive content.
package asic
