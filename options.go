package rendergraph

import "log/slog"

// Option configures a Graph during creation.
//
// Example:
//
//	// Default: package logger, pooled intermediates
//	g := rendergraph.New(pool)
//
//	// Per-graph logger (dependency injection)
//	g := rendergraph.New(pool, rendergraph.WithLogger(logger))
type Option func(*graphOptions)

// graphOptions holds optional configuration for Graph creation.
type graphOptions struct {
	logger *slog.Logger
}

// WithLogger sets a dedicated logger for this Graph, overriding the
// package-level logger configured with SetLogger. Pass nil to keep the
// package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *graphOptions) {
		o.logger = l
	}
}
