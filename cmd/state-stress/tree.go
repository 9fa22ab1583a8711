package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/hooks"
)

// tree is a synthetic call tree: a keyed list of items, each rendering a
// chain of nested positions that keep a few kinds of state.
type tree struct {
	items     []string
	depth     int
	churn     float64
	rng       *rand.Rand
	nextItem  int
	mounted   int64
	unmounted int64
}

func newTree(items, depth int, churn float64, seed int64) *tree {
	t := &tree{
		depth: depth,
		churn: churn,
		rng:   rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < items; i++ {
		t.items = append(t.items, t.newItem())
	}
	return t
}

func (t *tree) newItem() string {
	t.nextItem++
	return fmt.Sprintf("item-%d", t.nextItem)
}

// mutate replaces a churn fraction of the items with new ones and shuffles
// the order, so keyed positions move around between passes.
func (t *tree) mutate() {
	replace := int(float64(len(t.items)) * t.churn)
	for i := 0; i < replace; i++ {
		t.items[t.rng.Intn(len(t.items))] = t.newItem()
	}
	t.rng.Shuffle(len(t.items), func(i, j int) {
		t.items[i], t.items[j] = t.items[j], t.items[i]
	})
}

func (t *tree) render(ctx context.Context) {
	for _, item := range t.items {
		callsite.CallKeyed(ctx, item, func(ctx context.Context) {
			t.renderNode(ctx, item, t.depth)
		})
	}
}

func (t *tree) renderNode(ctx context.Context, name string, depth int) {
	visits := hooks.UseState(ctx, func() int { return 0 })
	visits.Update(func(n *int) { *n++ })

	hooks.DoOnce(ctx, func() { t.mounted++ })
	hooks.OnUnmount(ctx, func() { t.unmounted++ })

	hooks.UseMemo(ctx, hooks.Watch(ctx, visits.MustGet()%8 == 0), func() string {
		return fmt.Sprintf("%s/%d", name, depth)
	})

	if depth > 0 {
		callsite.Call(ctx, func(ctx context.Context) {
			t.renderNode(ctx, name, depth-1)
		})
	}
}
