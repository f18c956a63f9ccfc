package collate

import "log/slog"

// AccessorOption configures an Accessor.
type AccessorOption func(*Accessor)

// WithLogger sets the logger that receives warnings about malformed or
// duplicate table of contents lines. Without a logger those lines are
// skipped silently.
func WithLogger(logger *slog.Logger) AccessorOption {
	return func(a *Accessor) {
		a.logger = logger
	}
}

// WithRealResources makes the Accessor ignore its table of contents and defer
// to the real filesystem: lookups report nothing, listings walk real
// directories and the ledger file need not exist. It is meant for development
// and tests where resources are read from their original paths.
func WithRealResources(enabled bool) AccessorOption {
	return func(a *Accessor) {
		a.realResources = enabled
	}
}
