// Package hooks provides helpers for keeping state at call-tree positions.
// Every helper finds the Store through the context and derives its position
// from the call site, so calling the same helper from two different lines
// yields two independent pieces of state.
package hooks

import (
	"context"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// UseState returns a handle to a T kept at the caller's position. init is
// only called the first time the position is visited.
//
//	count := hooks.UseState(ctx, func() int { return 0 })
//	count.Update(func(n *int) { *n++ })
func UseState[T any](ctx context.Context, init func() T) state.Access[T] {
	return UseStateHere(callsite.Enter(ctx, 1), init)
}

// UseStateHere is like UseState but keys the state to ctx's own position
// instead of deriving a new one.
func UseStateHere[T any](ctx context.Context, init func() T) state.Access[T] {
	s := state.MustFromContext(ctx)
	id := callsite.Current(ctx)
	if !state.Exists[T](s, id) {
		state.Set(s, id, init())
	}
	s.MarkSeen(id)
	return state.Handle[T](s, id)
}

// NewState returns a handle to a fresh T each time it runs. A counter kept
// at the caller's position picks a new child slot on every invocation.
func NewState[T any](ctx context.Context, init func() T) state.Access[T] {
	ctx = callsite.Enter(ctx, 1)
	count := UseStateHere(ctx, func() uint64 { return 0 })
	count.Update(func(n *uint64) { *n++ })

	var access state.Access[T]
	callsite.CallInSlot(ctx, count.MustGet(), func(ctx context.Context) {
		access = UseStateHere(ctx, init)
	})
	return access
}

// DoOnce calls fn the first time the caller's position is visited and never
// again while the position stays alive.
func DoOnce(ctx context.Context, fn func()) {
	done := UseStateHere(callsite.Enter(ctx, 1), func() bool { return false })
	if !done.MustGet() {
		fn()
		done.Set(true)
	}
}
