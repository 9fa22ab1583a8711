// Package pass drives repeated traversals of a call tree against a Store.
// Each pass renders the root, flushes deferred commands, runs the registered
// pre-sweep hooks and reclaims the positions that were not visited.
package pass

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// Root renders one full traversal of the call tree.
type Root func(ctx context.Context)

// Stats provides statistics about the passes run so far.
type Stats struct {
	Passes         int64
	TotalReclaimed int64
	LastReclaimed  int
	LiveIdentities int
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithBeforeSweep registers fn to run after each traversal and before the
// sweep. fn sees the identities about to be reclaimed through Store.Unseen.
func WithBeforeSweep(fn func(*state.Store)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.beforeSweep = append(r.beforeSweep, fn)
		}
	}
}

// WithLogger sets the logger for per-pass diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSeed sets the Id of the root position.
func WithSeed(seed state.Id) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// Runner renders a Root once per pass.
type Runner struct {
	store       *state.Store
	root        Root
	seed        state.Id
	beforeSweep []func(*state.Store)
	logger      *slog.Logger
	stats       Stats
}

// NewRunner creates a runner for root backed by store. Identities already in
// the store are seeded, so ones the first pass does not visit are reclaimed.
func NewRunner(store *state.Store, root Root, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		root:   root,
		seed:   1,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats: Stats{
			MinDuration: time.Duration(1<<63 - 1),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	store.Seed()
	return r
}

// Store returns the backing store.
func (r *Runner) Store() *state.Store {
	return r.store
}

// Once renders a single pass with the given delta time and returns the
// identities reclaimed at its end.
func (r *Runner) Once(ctx context.Context, dt float64) []state.Id {
	start := time.Now()
	frame := newFrame(uint64(r.stats.Passes)+1, dt, r.store)

	passCtx := state.NewContext(ctx, r.store)
	passCtx = callsite.Root(passCtx, r.seed)
	passCtx = withFrame(passCtx, frame)
	r.root(passCtx)

	frame.Commands.Flush(r.store)
	for _, fn := range r.beforeSweep {
		fn(r.store)
	}
	reclaimed := r.store.SweepAndReseed()
	duration := time.Since(start)

	stats := &r.stats
	stats.Passes++
	stats.LastReclaimed = len(reclaimed)
	stats.TotalReclaimed += int64(len(reclaimed))
	stats.LastDuration = duration
	stats.TotalDuration += duration
	if duration < stats.MinDuration {
		stats.MinDuration = duration
	}
	if duration > stats.MaxDuration {
		stats.MaxDuration = duration
	}

	r.logger.Debug("pass complete",
		"pass", frame.Number,
		"reclaimed", len(reclaimed),
		"duration", duration,
	)
	return reclaimed
}

// Run renders passes at the given interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			r.Once(ctx, dt)
		}
	}
}

// GetStats returns statistics about the passes run so far.
func (r *Runner) GetStats() Stats {
	stats := r.stats
	if stats.Passes > 0 {
		stats.AvgDuration = stats.TotalDuration / time.Duration(stats.Passes)
	} else {
		stats.MinDuration = 0
	}
	stats.LiveIdentities = r.store.CollectStats().LiveIdentities
	return stats
}
