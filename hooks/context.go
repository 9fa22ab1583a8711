package hooks

import (
	"context"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

type ambientKey[T any] struct{}

// SetContext returns a context carrying value for the whole subtree rendered
// with it. A later SetContext of the same type shadows this one.
func SetContext[T any](ctx context.Context, value T) context.Context {
	return context.WithValue(ctx, ambientKey[T]{}, value)
}

// GetContext returns the nearest value of type T set above ctx.
func GetContext[T any](ctx context.Context) (T, bool) {
	value, ok := ctx.Value(ambientKey[T]{}).(T)
	return value, ok
}

type parentMemo struct {
	id state.Id
	ok bool
}

// UseParent returns the position of the nearest ancestor that called
// UseParent, as remembered from the first visit, and a context that makes
// the current position the parent for its own subtree.
func UseParent(ctx context.Context) (state.Id, bool, context.Context) {
	self := callsite.Current(ctx)
	memo := UseStateHere(callsite.Enter(ctx, 1), func() parentMemo {
		parent, _ := GetContext[parentMemo](ctx)
		return parent
	}).MustGet()
	return memo.id, memo.ok, SetContext(ctx, parentMemo{id: self, ok: true})
}
