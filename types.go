package asic

import asiccore "github.com/meigma/asic/core"

// Writer builds one ASiC-E container.
type Writer = asiccore.Writer

// Container is the in-memory model of an archive under construction.
type Container = asiccore.Container

// Entry describes one file stored in the container.
type Entry = asiccore.Entry

// EntryType identifies the role an entry plays in the container.
type EntryType = asiccore.EntryType

// Config holds the strategies and settings of a Writer.
type Config = asiccore.Config

// Option configures a Writer.
type Option = asiccore.Option

// WriterLayer owns the physical archive stream.
type WriterLayer = asiccore.WriterLayer

// SignatureCreator signs a container.
type SignatureCreator = asiccore.SignatureCreator

// EncryptionFilter encrypts individual payload entries.
type EncryptionFilter = asiccore.EncryptionFilter

// MimeDetector derives a media type from a file name.
type MimeDetector = asiccore.MimeDetector

// MimeDetectorFunc adapts a function to MimeDetector.
type MimeDetectorFunc = asiccore.MimeDetectorFunc

// Processor extends the writer at a lifecycle point.
type Processor = asiccore.Processor

// Lifecycle names a point in the writer's phase sequence.
type Lifecycle = asiccore.Lifecycle

// Compression identifies the compression method used for entries.
type Compression = asiccore.Compression

// SkipCompressionFunc returns true when an entry should be stored uncompressed.
type SkipCompressionFunc = asiccore.SkipCompressionFunc

// AddDirOption configures AddDir.
type AddDirOption = asiccore.AddDirOption

// ProgressEvent represents a progress update while AddDir ingests files.
type ProgressEvent = asiccore.ProgressEvent

// ProgressFunc receives progress updates.
type ProgressFunc = asiccore.ProgressFunc

// ProgressStage identifies the current phase of AddDir.
type ProgressStage = asiccore.ProgressStage

// PerformFunc is the function adapted by NewProcessor.
type PerformFunc = asiccore.PerformFunc

// ExtensionDetector is the default MimeDetector.
type ExtensionDetector = asiccore.ExtensionDetector

// Media types.
const (
	ContainerMimeType = asiccore.ContainerMimeType
	DefaultMimeType   = asiccore.DefaultMimeType
)

// Entry types.
const (
	EntryData      = asiccore.EntryData
	EntryManifest  = asiccore.EntryManifest
	EntrySignature = asiccore.EntrySignature
	EntryMetadata  = asiccore.EntryMetadata
)

// Lifecycle points.
const (
	LifecycleInitial         = asiccore.LifecycleInitial
	LifecycleBeforeSignature = asiccore.LifecycleBeforeSignature
	LifecycleAfterSignature  = asiccore.LifecycleAfterSignature
)

// Compression constants.
const (
	CompressionDeflate = asiccore.CompressionDeflate
	CompressionNone    = asiccore.CompressionNone
	CompressionZstd    = asiccore.CompressionZstd
)

// Progress stages.
const (
	StageEnumerating = asiccore.StageEnumerating
	StageAdding      = asiccore.StageAdding
)

// Writer constructors and options re-exported from core.
var (
	NewWriter  = asiccore.NewWriter
	CreateFile = asiccore.CreateFile

	WithDigestAlgorithms  = asiccore.WithDigestAlgorithms
	WithSignatureCreator  = asiccore.WithSignatureCreator
	WithEncryptionFilter  = asiccore.WithEncryptionFilter
	WithMimeDetector      = asiccore.WithMimeDetector
	WithProcessors        = asiccore.WithProcessors
	WithCompression       = asiccore.WithCompression
	WithSkipCompression   = asiccore.WithSkipCompression
	WithMaxFiles          = asiccore.WithMaxFiles
	WithModTime           = asiccore.WithModTime
	WithLogger            = asiccore.WithLogger
	WithCloseStream       = asiccore.WithCloseStream

	DefaultSkipCompression = asiccore.DefaultSkipCompression

	AddDirWithPrefix   = asiccore.AddDirWithPrefix
	AddDirWithEncrypt  = asiccore.AddDirWithEncrypt
	AddDirWithProgress = asiccore.AddDirWithProgress

	NewProcessor = asiccore.NewProcessor
)
