package hooks

import (
	"context"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// Watch reports whether current differs from the value seen at the caller's
// position on the previous visit, and remembers current. The first visit
// reports false.
func Watch[T comparable](ctx context.Context, current T) bool {
	return watch(callsite.Enter(ctx, 1), current, func(a, b T) bool { return a == b })
}

// WatchFunc is like Watch for types that are not comparable.
func WatchFunc[T any](ctx context.Context, current T, equal func(a, b T) bool) bool {
	return watch(callsite.Enter(ctx, 1), current, equal)
}

func watch[T any](ctx context.Context, current T, equal func(a, b T) bool) bool {
	watched := UseStateHere(ctx, func() T { return current })
	if equal(watched.MustGet(), current) {
		return false
	}
	watched.Set(current)
	return true
}

// MemoControl forces a memoised value to be recomputed on the next visit.
type MemoControl struct {
	trigger state.Access[bool]
}

// Recalc schedules recomputation when trigger is true.
func (m MemoControl) Recalc(trigger bool) {
	m.trigger.Set(trigger)
}

// UseMemo returns the value computed by fn at the caller's position,
// recomputing it only when recalc is true or Recalc was requested.
//
//	rows, _ := hooks.UseMemo(ctx, hooks.Watch(ctx, filter), func() []Row {
//		return expensiveFilter(filter)
//	})
func UseMemo[T any](ctx context.Context, recalc bool, fn func() T) (T, MemoControl) {
	ctx = callsite.Enter(ctx, 1)

	var fresh bool
	// trigger and value are keyed by source line; keep them on separate lines.
	trigger := UseState(ctx, func() bool { return false })
	value := UseState(ctx, func() T {
		fresh = true
		return fn()
	})

	current := value.MustGet()
	if !fresh && (recalc || trigger.MustGet()) {
		current = fn()
		value.Set(current)
	}
	if trigger.MustGet() {
		trigger.Set(false)
	}
	return current, MemoControl{trigger: trigger}
}
