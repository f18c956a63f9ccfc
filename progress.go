package collate

// ProgressEvent represents a progress update during packing or verification.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the resource currently being processed, if applicable.
	Path string

	// Page is the collated page being written while packing.
	Page uint32

	// BytesDone is the number of bytes completed in the current operation.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of resources completed.
	FilesDone int

	// FilesTotal is the total number of resources.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for packing and verification.
const (
	// StagePacking indicates resources are being copied into collated pages.
	StagePacking ProgressStage = iota

	// StageRollover indicates a full page was closed and the next one opened.
	StageRollover

	// StageVerifying indicates packed resources are being compared with their sources.
	StageVerifying
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StagePacking:
		return "packing"
	case StageRollover:
		return "rollover"
	case StageVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
