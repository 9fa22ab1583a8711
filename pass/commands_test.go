package pass_test

import (
	"context"
	"testing"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/hooks"
	"github.com/plus3/callstate/pass"
	"github.com/plus3/callstate/state"
	"github.com/stretchr/testify/assert"
)

func TestCommandsAppliedAfterTraversal(t *testing.T) {
	store := state.New()
	target := state.Id(77)
	state.Set(store, target, "old")

	var seenDuringPass string
	var order []string
	runner := pass.NewRunner(store, func(ctx context.Context) {
		frame, _ := pass.FrameFromContext(ctx)
		pass.QueueSet(frame.Commands, target, "new")
		frame.Commands.Defer(func() { order = append(order, "defer") })
		assert.Equal(t, 2, frame.Commands.Len())

		seenDuringPass, _ = state.Get[string](store, target)
		order = append(order, "render")
	})

	runner.Once(context.Background(), 0)

	assert.Equal(t, "old", seenDuringPass)
	assert.Equal(t, []string{"render", "defer"}, order)
	value, ok := state.Get[string](store, target)
	assert.True(t, ok)
	assert.Equal(t, "new", value)
}

func TestCommandsForgetWins(t *testing.T) {
	store := state.New()
	target := state.Id(5)
	state.Set(store, target, 1)
	state.Set(store, target, "keep me?")

	runner := pass.NewRunner(store, func(ctx context.Context) {
		frame, _ := pass.FrameFromContext(ctx)
		state.Get[int](store, target)
		pass.QueueSet(frame.Commands, target, 2)
		frame.Commands.Forget(target)
	})
	runner.Once(context.Background(), 0)

	assert.False(t, state.Exists[int](store, target))
	assert.False(t, state.Exists[string](store, target))
}

func TestQueueRemove(t *testing.T) {
	store := state.New()

	runner := pass.NewRunner(store, func(ctx context.Context) {
		callsite.Call(ctx, func(ctx context.Context) {
			flag := hooks.UseState(ctx, func() bool { return true })
			hooks.UseState(ctx, func() string { return "label" })

			frame, _ := pass.FrameFromContext(ctx)
			if frame.Number == 2 {
				pass.QueueRemove[bool](frame.Commands, flag.Id())
				assert.True(t, flag.Exists())
			}
		})
	})

	runner.Once(context.Background(), 0)
	runner.Once(context.Background(), 0)

	stats := store.CollectStats()
	assert.Equal(t, 2, stats.LiveIdentities)
	assert.Equal(t, 1, stats.TotalValues)
}
