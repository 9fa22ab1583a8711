package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/callstate/hooks"
	"github.com/plus3/callstate/pass"
	"github.com/plus3/callstate/state"
)

func TestTreeMutate(t *testing.T) {
	t.Run("zero churn only reorders", func(t *testing.T) {
		tr := newTree(50, 0, 0, 1)
		before := append([]string(nil), tr.items...)

		tr.mutate()

		assert.ElementsMatch(t, before, tr.items)
	})

	t.Run("churn introduces new items", func(t *testing.T) {
		tr := newTree(50, 0, 0.5, 1)
		before := append([]string(nil), tr.items...)

		tr.mutate()

		assert.Len(t, tr.items, 50)
		assert.NotSubset(t, before, tr.items)
	})
}

func TestTreeMountBalance(t *testing.T) {
	const items, depth = 20, 2
	nodes := int64(items * (depth + 1))

	store := state.New()
	tr := newTree(items, depth, 0.25, 7)
	runner := pass.NewRunner(store, tr.render,
		pass.WithBeforeSweep(func(s *state.Store) { hooks.RunUnmounts(s) }),
	)

	for i := 0; i < 10; i++ {
		runner.Once(context.Background(), 0)
		require.Equal(t, nodes, tr.mounted-tr.unmounted, "pass %d", i)
		tr.mutate()
	}

	assert.Greater(t, tr.unmounted, int64(0))
	// visits, once flag, unmount, memo trigger, memo value and watch per node
	assert.Equal(t, int(nodes)*6, store.CollectStats().LiveIdentities)
}

func TestRunWorker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	wr, samples := runWorker(ctx, logger, 10, 1, 0.1, 3)

	assert.NotEmpty(t, samples)
	assert.Equal(t, int64(len(samples)), wr.Runner.Passes)
	assert.Equal(t, int64(20), wr.Mounted-wr.Unmounted)
}

func TestReport(t *testing.T) {
	report := &Report{
		Duration: time.Second,
		Items:    10,
		Depth:    1,
		Churn:    0.1,
		Workers: []WorkerReport{
			{Runner: pass.Stats{Passes: 3, TotalReclaimed: 4}, Mounted: 5, Unmounted: 1},
			{Runner: pass.Stats{Passes: 2, TotalReclaimed: 1}, Mounted: 7, Unmounted: 2},
		},
		UpdateTime: Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}},
	}
	report.UpdateTime.Finalize()

	assert.Equal(t, time.Millisecond, report.UpdateTime.Min)
	assert.Equal(t, 3*time.Millisecond, report.UpdateTime.Max)
	assert.Equal(t, 2*time.Millisecond, report.UpdateTime.Avg)

	total := report.Totals()
	assert.Equal(t, int64(5), total.Runner.Passes)
	assert.Equal(t, int64(5), total.Runner.TotalReclaimed)
	assert.Equal(t, int64(12), total.Mounted)

	var text strings.Builder
	require.NoError(t, report.Generate(&text))
	assert.Contains(t, text.String(), "**Total Passes:** 5")
	assert.Contains(t, text.String(), "### Worker 1")

	var yml strings.Builder
	require.NoError(t, report.WriteYAML(&yml))
	assert.Contains(t, yml.String(), "passes: 5")
	assert.Contains(t, yml.String(), "pass_avg: 2ms")
	assert.NotContains(t, yml.String(), "gc_pause_total")
}
