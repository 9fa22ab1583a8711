package state

import (
	"io"
	"log/slog"
)

type options struct {
	logger   *slog.Logger
	capacity int
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for sweep and pool diagnostics.
// Passing nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = discardLogger()
		}
		o.logger = logger
	}
}

// WithCapacity pre-sizes the identity tables for roughly n live identities.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

func defaultOptions() options {
	return options{
		logger:   discardLogger(),
		capacity: 256,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
