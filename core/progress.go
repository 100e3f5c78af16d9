package asic

// ProgressEvent represents a progress update while AddDir ingests files.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of source bytes read so far.
	BytesDone uint64

	// FilesDone is the number of files added so far.
	FilesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageEnumerating indicates the directory tree is being walked.
	StageEnumerating ProgressStage = iota

	// StageAdding indicates a file has been written into the container.
	StageAdding
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEnumerating:
		return "enumerating"
	case StageAdding:
		return "adding"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. It is called from the goroutine
// driving the writer.
type ProgressFunc func(ProgressEvent)
