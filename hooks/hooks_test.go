package hooks_test

import (
	"context"
	"testing"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/hooks"
	"github.com/plus3/callstate/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runPass renders one pass of root against store and sweeps afterwards.
func runPass(store *state.Store, root func(ctx context.Context)) []state.Id {
	ctx := callsite.Root(state.NewContext(context.Background(), store), 1)
	root(ctx)
	hooks.RunUnmounts(store)
	return store.SweepAndReseed()
}

type counterView struct {
	clicks int
	label  string
}

func counter(ctx context.Context, view *counterView) {
	clicks := hooks.UseState(ctx, func() int { return 0 })
	label := hooks.UseState(ctx, func() string { return "clicks" })

	clicks.Update(func(n *int) { *n++ })
	view.clicks = clicks.MustGet()
	view.label = label.MustGet()
}

func TestUseStatePersistsAcrossPasses(t *testing.T) {
	store := state.New()
	var view counterView

	for i := 0; i < 3; i++ {
		runPass(store, func(ctx context.Context) { counter(ctx, &view) })
	}

	assert.Equal(t, 3, view.clicks)
	assert.Equal(t, "clicks", view.label)
}

func TestUseStateSameTypeDifferentLines(t *testing.T) {
	store := state.New()

	runPass(store, func(ctx context.Context) {
		a := hooks.UseState(ctx, func() int { return 1 })
		b := hooks.UseState(ctx, func() int { return 2 })
		assert.NotEqual(t, a.Id(), b.Id())
		assert.Equal(t, 1, a.MustGet())
		assert.Equal(t, 2, b.MustGet())
	})
}

func TestUseStateRequiresStore(t *testing.T) {
	ctx := callsite.Root(context.Background(), 1)

	defer func() {
		err, _ := recover().(error)
		assert.ErrorIs(t, err, state.ErrNoStore)
	}()
	hooks.UseState(ctx, func() int { return 0 })
	t.Fatal("expected panic")
}

func TestUnvisitedStateIsReclaimed(t *testing.T) {
	store := state.New()
	showChild := true
	var view counterView

	root := func(ctx context.Context) {
		if showChild {
			callsite.Call(ctx, func(ctx context.Context) { counter(ctx, &view) })
		}
	}

	runPass(store, root)
	runPass(store, root)
	assert.Equal(t, 2, view.clicks)

	showChild = false
	reclaimed := runPass(store, root)
	assert.Len(t, reclaimed, 2)
	assert.Equal(t, 0, store.CollectStats().LiveIdentities)

	showChild = true
	runPass(store, root)
	assert.Equal(t, 1, view.clicks, "state starts over after remount")
}

func TestDoOnce(t *testing.T) {
	store := state.New()
	calls := 0

	for i := 0; i < 4; i++ {
		runPass(store, func(ctx context.Context) {
			hooks.DoOnce(ctx, func() { calls++ })
		})
	}
	assert.Equal(t, 1, calls)
}

func TestNewStateIsFreshEachInvocation(t *testing.T) {
	store := state.New()
	var ids []state.Id

	for i := 0; i < 3; i++ {
		runPass(store, func(ctx context.Context) {
			access := hooks.NewState(ctx, func() int { return 7 })
			assert.Equal(t, 7, access.MustGet())
			ids = append(ids, access.Id())
		})
	}

	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
}

func TestWatch(t *testing.T) {
	store := state.New()
	var changes []bool

	for _, value := range []string{"a", "a", "b", "b", "a"} {
		runPass(store, func(ctx context.Context) {
			changes = append(changes, hooks.Watch(ctx, value))
		})
	}
	assert.Equal(t, []bool{false, false, true, false, true}, changes)
}

func TestWatchFunc(t *testing.T) {
	store := state.New()
	equal := func(a, b []int) bool { return len(a) == len(b) }
	var changes []bool

	for _, value := range [][]int{{1}, {2}, {1, 2}} {
		runPass(store, func(ctx context.Context) {
			changes = append(changes, hooks.WatchFunc(ctx, value, equal))
		})
	}
	assert.Equal(t, []bool{false, false, true}, changes)
}

func TestUseMemo(t *testing.T) {
	store := state.New()
	computed := 0
	var control hooks.MemoControl
	var results []int

	render := func(recalc bool) {
		runPass(store, func(ctx context.Context) {
			var value int
			value, control = hooks.UseMemo(ctx, recalc, func() int {
				computed++
				return computed * 10
			})
			results = append(results, value)
		})
	}

	render(false)
	render(false)
	render(true)
	control.Recalc(true)
	render(false)
	render(false)

	assert.Equal(t, []int{10, 10, 20, 30, 30}, results)
	assert.Equal(t, 3, computed)
}

func TestMailbox(t *testing.T) {
	store := state.New()
	var inboxId state.Id
	var received []hooks.Message[string]

	root := func(ctx context.Context) {
		callsite.Call(ctx, func(ctx context.Context) {
			_, inbox := hooks.UseMailbox[string](ctx)
			inboxId = inbox.Id()
			received = append(received, inbox.Drain()...)
		})
		callsite.Call(ctx, func(ctx context.Context) {
			_, outbox := hooks.UseMailbox[string](ctx)
			assert.True(t, outbox.Send(inboxId, "hello"))
			assert.True(t, outbox.Send(inboxId, "again"))
			assert.False(t, outbox.Send(state.Id(12345), "lost"))
		})
	}

	runPass(store, root)
	assert.Empty(t, received)

	runPass(store, root)
	require.Len(t, received, 2)
	assert.Equal(t, "hello", received[0].Value)
	assert.Equal(t, "again", received[1].Value)
	assert.NotEqual(t, inboxId, received[0].From)
}

func TestMailboxPop(t *testing.T) {
	store := state.New()

	runPass(store, func(ctx context.Context) {
		mailbox, control := hooks.UseMailbox[int](ctx)
		assert.Empty(t, mailbox.Messages)

		_, ok := control.Pop()
		assert.False(t, ok)

		control.Send(control.Id(), 1)
		control.Send(control.Id(), 2)

		msg, ok := control.Pop()
		assert.True(t, ok)
		assert.Equal(t, 2, msg.Value)
		assert.Equal(t, control.Id(), msg.From)
	})
}

func TestOnUnmount(t *testing.T) {
	store := state.New()
	show := true
	deactivate := false
	unmounted := 0

	root := func(ctx context.Context) {
		if !show {
			return
		}
		callsite.Call(ctx, func(ctx context.Context) {
			control := hooks.OnUnmount(ctx, func() { unmounted++ })
			if deactivate {
				control.Deactivate()
			}
		})
	}

	runPass(store, root)
	runPass(store, root)
	assert.Equal(t, 0, unmounted)

	show = false
	runPass(store, root)
	assert.Equal(t, 1, unmounted)

	show, deactivate = true, true
	runPass(store, root)
	show = false
	runPass(store, root)
	assert.Equal(t, 1, unmounted, "deactivated callback does not fire")
}

func TestUnmountExecuteAndRemove(t *testing.T) {
	store := state.New()
	fired := 0

	runPass(store, func(ctx context.Context) {
		control := hooks.OnUnmount(ctx, func() { fired++ })
		control.ExecuteAndRemove()
		control.ExecuteAndRemove()
	})
	assert.Equal(t, 1, fired)
}

type theme struct{ name string }

func TestAmbientContext(t *testing.T) {
	ctx := context.Background()

	_, ok := hooks.GetContext[theme](ctx)
	assert.False(t, ok)

	ctx = hooks.SetContext(ctx, theme{name: "dark"})
	inner := hooks.SetContext(ctx, theme{name: "light"})

	outer, _ := hooks.GetContext[theme](ctx)
	shadowed, _ := hooks.GetContext[theme](inner)
	assert.Equal(t, "dark", outer.name)
	assert.Equal(t, "light", shadowed.name)
}

func TestUseParent(t *testing.T) {
	store := state.New()
	var rootId, childParent state.Id
	var rootHasParent, childHasParent bool

	for i := 0; i < 2; i++ {
		runPass(store, func(ctx context.Context) {
			rootId = callsite.Current(ctx)
			_, rootHasParent, ctx = hooks.UseParent(ctx)
			callsite.Call(ctx, func(ctx context.Context) {
				childParent, childHasParent, _ = hooks.UseParent(ctx)
			})
		})
	}

	assert.False(t, rootHasParent)
	assert.True(t, childHasParent)
	assert.Equal(t, rootId, childParent)
}

func TestUseMemoKeepsValueAcrossPasses(t *testing.T) {
	store := state.New()
	computed := 0
	var results []int

	render := func(recalc bool) {
		runPass(store, func(ctx context.Context) {
			value, _ := hooks.UseMemo(ctx, recalc, func() int {
				computed++
				return computed * 10
			})
			results = append(results, value)
		})
	}

	render(false)
	render(false)
	render(false)

	assert.Equal(t, []int{10, 10, 10}, results)
	assert.Equal(t, 1, computed)

	stats := store.CollectStats()
	assert.Equal(t, 2, stats.LiveIdentities)
	assert.Zero(t, stats.FreeSlots)
}
