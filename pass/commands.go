package pass

import "github.com/plus3/callstate/state"

// Commands buffers store changes that should only happen once the traversal
// has finished, such as writing to positions other than the current one.
type Commands struct {
	forgets []state.Id
	writes  []writeCommand
	defers  []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type writeCommand struct {
	id    state.Id
	apply func(*state.Store)
}

type deferCommand struct {
	fn func()
}

// Defer queues a function to run after all other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Forget queues removal of all state held by id.
func (c *Commands) Forget(id state.Id) {
	c.forgets = append(c.forgets, id)
}

// QueueSet queues a Set of value under id.
func QueueSet[T any](c *Commands, id state.Id, value T) {
	c.writes = append(c.writes, writeCommand{
		id:    id,
		apply: func(s *state.Store) { state.Set(s, id, value) },
	})
}

// QueueRemove queues removal of the T stored under id.
func QueueRemove[T any](c *Commands, id state.Id) {
	c.writes = append(c.writes, writeCommand{
		id:    id,
		apply: func(s *state.Store) { state.Remove[T](s, id) },
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.forgets) + len(c.writes) + len(c.defers)
}

// Flush applies all commands to the provided store, resetting the buffer state.
// Forgets run first; writes to a forgotten identity are dropped.
func (c *Commands) Flush(store *state.Store) {
	forgotten := make(map[state.Id]bool, len(c.forgets))

	for _, id := range c.forgets {
		store.Forget(id)
		forgotten[id] = true
	}

	for _, cmd := range c.writes {
		if !forgotten[cmd.id] {
			cmd.apply(store)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.forgets = c.forgets[:0]
	c.writes = c.writes[:0]
	c.defers = c.defers[:0]
}
