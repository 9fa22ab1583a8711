package hooks

import (
	"context"
	"iter"
	"maps"
	"slices"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// ListKey identifies an item in a List. Keys are never reused within a list.
type ListKey uint64

// List is an ordered collection with a selection. Items keep their key when
// moved, so selection survives reordering.
type List[T any] struct {
	items    map[ListKey]T
	order    []ListKey
	selected []ListKey
	next     ListKey
}

// NewList creates a list holding items in order.
func NewList[T any](items []T) List[T] {
	l := List[T]{items: make(map[ListKey]T, len(items))}
	for _, item := range items {
		l.order = append(l.order, l.add(item))
	}
	return l
}

func (l *List[T]) add(item T) ListKey {
	if l.items == nil {
		l.items = make(map[ListKey]T)
	}
	l.next++
	l.items[l.next] = item
	return l.next
}

// Len returns the number of items.
func (l List[T]) Len() int {
	return len(l.order)
}

// At returns the item at idx.
func (l List[T]) At(idx int) (T, bool) {
	var zero T
	if idx < 0 || idx >= len(l.order) {
		return zero, false
	}
	return l.items[l.order[idx]], true
}

// Keys returns the item keys in order.
func (l List[T]) Keys() []ListKey {
	return slices.Clone(l.order)
}

// Items iterates over the items in order.
func (l List[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, key := range l.order {
			if !yield(l.items[key]) {
				return
			}
		}
	}
}

// Selected iterates over the selected items in selection order.
func (l List[T]) Selected() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, key := range l.selected {
			item, ok := l.items[key]
			if !ok {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// IsSelected reports whether the item with key is selected.
func (l List[T]) IsSelected(key ListKey) bool {
	return slices.Contains(l.selected, key)
}

// Clone returns a copy that shares no storage with l.
func (l List[T]) Clone() List[T] {
	return List[T]{
		items:    maps.Clone(l.items),
		order:    slices.Clone(l.order),
		selected: slices.Clone(l.selected),
		next:     l.next,
	}
}

// ListControl mutates a List stored at a call-tree position.
type ListControl[T any] struct {
	access state.Access[List[T]]
}

// UseList keeps a List at the caller's position, seeded from init on first visit.
func UseList[T any](ctx context.Context, init func() []T) ListControl[T] {
	access := UseStateHere(callsite.Enter(ctx, 1), func() List[T] {
		return NewList(init())
	})
	return ListControl[T]{access: access}
}

// List returns a snapshot of the stored list.
func (c ListControl[T]) List() List[T] {
	return c.access.MustGet().Clone()
}

func (c ListControl[T]) update(fn func(l *List[T])) {
	c.access.Update(fn)
}

// Clear removes every item and the selection.
func (c ListControl[T]) Clear() {
	c.update(func(l *List[T]) {
		l.items = make(map[ListKey]T)
		l.order = nil
		l.selected = nil
	})
}

// Push appends item and returns its key.
func (c ListControl[T]) Push(item T) ListKey {
	var key ListKey
	c.update(func(l *List[T]) {
		key = l.add(item)
		l.order = append(l.order, key)
	})
	return key
}

// Insert puts item at idx, shifting later items. idx may equal Len to append.
func (c ListControl[T]) Insert(idx int, item T) bool {
	ok := false
	c.update(func(l *List[T]) {
		if idx < 0 || idx > len(l.order) {
			return
		}
		l.order = slices.Insert(l.order, idx, l.add(item))
		ok = true
	})
	return ok
}

// Remove deletes and returns the item at idx.
func (c ListControl[T]) Remove(idx int) (T, bool) {
	var (
		removed T
		ok      bool
	)
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		key := l.order[idx]
		removed, ok = l.items[key], true
		delete(l.items, key)
		l.order = slices.Delete(l.order, idx, idx+1)
		l.selected = slices.DeleteFunc(l.selected, func(k ListKey) bool { return k == key })
	})
	return removed, ok
}

// Replace swaps the item at idx for item and returns the old one. The new
// item gets a new key.
func (c ListControl[T]) Replace(idx int, item T) (T, bool) {
	var (
		replaced T
		ok       bool
	)
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		old := l.order[idx]
		replaced, ok = l.items[old], true
		delete(l.items, old)
		l.order[idx] = l.add(item)
		l.selected = slices.DeleteFunc(l.selected, func(k ListKey) bool { return k == old })
	})
	return replaced, ok
}

// MoveItemToPosition moves the item at oldIdx so it ends up before the item
// currently at newIdx. newIdx may equal Len to move the item to the end.
func (c ListControl[T]) MoveItemToPosition(oldIdx, newIdx int) {
	c.update(func(l *List[T]) {
		if oldIdx < 0 || oldIdx >= len(l.order) || newIdx < 0 || newIdx > len(l.order) {
			return
		}
		key := l.order[oldIdx]
		switch {
		case oldIdx < newIdx:
			l.order = slices.Delete(l.order, oldIdx, oldIdx+1)
			l.order = slices.Insert(l.order, newIdx-1, key)
		case oldIdx > newIdx:
			l.order = slices.Delete(l.order, oldIdx, oldIdx+1)
			l.order = slices.Insert(l.order, newIdx, key)
		}
	})
}

// MoveItemUp swaps the item at idx with the one before it.
func (c ListControl[T]) MoveItemUp(idx int) {
	if idx == 0 {
		return
	}
	c.MoveItemToPosition(idx, idx-1)
}

// MoveItemDown swaps the item at idx with the one after it.
func (c ListControl[T]) MoveItemDown(idx int) {
	c.MoveItemToPosition(idx, idx+2)
}

// Select adds the item at idx to the selection.
func (c ListControl[T]) Select(idx int) {
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		l.selectKey(l.order[idx])
	})
}

// SelectByKey adds the item with key to the selection.
func (c ListControl[T]) SelectByKey(key ListKey) {
	c.update(func(l *List[T]) {
		if _, ok := l.items[key]; ok {
			l.selectKey(key)
		}
	})
}

// SelectOnly makes the item at idx the only selected item.
func (c ListControl[T]) SelectOnly(idx int) {
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		l.selected = []ListKey{l.order[idx]}
	})
}

// SelectOnlyByKey makes the item with key the only selected item.
func (c ListControl[T]) SelectOnlyByKey(key ListKey) {
	c.update(func(l *List[T]) {
		if _, ok := l.items[key]; ok {
			l.selected = []ListKey{key}
		}
	})
}

// SelectAll selects every item, in list order.
func (c ListControl[T]) SelectAll() {
	c.update(func(l *List[T]) {
		l.selected = slices.Clone(l.order)
	})
}

// Unselect removes the item at idx from the selection.
func (c ListControl[T]) Unselect(idx int) {
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		l.unselectKey(l.order[idx])
	})
}

// UnselectByKey removes the item with key from the selection.
func (c ListControl[T]) UnselectByKey(key ListKey) {
	c.update(func(l *List[T]) {
		l.unselectKey(key)
	})
}

// UnselectAll clears the selection.
func (c ListControl[T]) UnselectAll() {
	c.update(func(l *List[T]) {
		l.selected = nil
	})
}

// ToggleSelect flips the selection state of the item at idx.
func (c ListControl[T]) ToggleSelect(idx int) {
	c.update(func(l *List[T]) {
		if idx < 0 || idx >= len(l.order) {
			return
		}
		key := l.order[idx]
		if slices.Contains(l.selected, key) {
			l.unselectKey(key)
		} else {
			l.selectKey(key)
		}
	})
}

func (l *List[T]) selectKey(key ListKey) {
	if !slices.Contains(l.selected, key) {
		l.selected = append(l.selected, key)
	}
}

func (l *List[T]) unselectKey(key ListKey) {
	l.selected = slices.DeleteFunc(l.selected, func(k ListKey) bool { return k == key })
}
