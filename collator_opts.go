package collate

import "log/slog"

// DefaultReadSize is the default maximum number of bytes buffered per copy
// step while packing (256MB).
const DefaultReadSize = 256 << 20

// CollatorOption configures a Collator.
type CollatorOption func(*Collator)

// WithPageSize sets the maximum size of each collated page in bytes.
// Zero or a negative size means a single unbounded page (the default).
func WithPageSize(size int64) CollatorOption {
	return func(c *Collator) {
		c.pageSize = size
	}
}

// WithReadSize sets the maximum number of bytes copied per step.
// Sizes must be positive.
func WithReadSize(size int) CollatorOption {
	return func(c *Collator) {
		c.readSize = size
	}
}

// WithCollatorLogger sets the logger for packing diagnostics.
// A nil logger discards all output.
func WithCollatorLogger(logger *slog.Logger) CollatorOption {
	return func(c *Collator) {
		c.logger = logger
	}
}

// WithProgress sets a callback that receives packing progress.
func WithProgress(fn ProgressFunc) CollatorOption {
	return func(c *Collator) {
		c.progress = fn
	}
}
