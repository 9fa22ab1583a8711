package hooks

import (
	"context"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// Unmount is a callback kept at a position and run when that position is
// about to be reclaimed.
type Unmount struct {
	Active bool
	fn     func()
}

// UnmountControl toggles or fires an Unmount.
type UnmountControl struct {
	access state.Access[Unmount]
}

// OnUnmount registers fn to run once the caller's position stops being
// visited. The callback from the first visit is kept.
func OnUnmount(ctx context.Context, fn func()) UnmountControl {
	access := UseStateHere(callsite.Enter(ctx, 1), func() Unmount {
		return Unmount{Active: true, fn: fn}
	})
	return UnmountControl{access: access}
}

// Activate re-enables the callback.
func (c UnmountControl) Activate() {
	c.access.Update(func(u *Unmount) { u.Active = true })
}

// Deactivate disables the callback without removing it.
func (c UnmountControl) Deactivate() {
	c.access.Update(func(u *Unmount) { u.Active = false })
}

// ExecuteAndRemove runs the callback now if active and forgets it.
func (c UnmountControl) ExecuteAndRemove() {
	if u, ok := c.access.Remove(); ok {
		u.run()
	}
}

func (u Unmount) run() {
	if u.Active && u.fn != nil {
		u.fn()
	}
}

// RunUnmounts fires and removes the callbacks of every identity the next
// sweep will reclaim. Run it after the traversal and before SweepAndReseed.
// It does not count as touching those identities. Returns the number of
// callbacks fired.
func RunUnmounts(s *state.Store) int {
	fired := 0
	for _, id := range s.Unseen() {
		u, ok := state.Remove[Unmount](s, id)
		if !ok {
			continue
		}
		if u.Active {
			fired++
		}
		u.run()
	}
	return fired
}
