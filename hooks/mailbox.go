package hooks

import (
	"context"

	"github.com/plus3/callstate/callsite"
	"github.com/plus3/callstate/state"
)

// Message is a value delivered to a mailbox, tagged with the sender's position.
type Message[T any] struct {
	From  state.Id
	Value T
}

// Mailbox holds undelivered messages of one type.
type Mailbox[T any] struct {
	Messages []Message[T]
}

// MailboxControl sends and receives messages for the mailbox at one position.
type MailboxControl[T any] struct {
	store *state.Store
	id    state.Id
}

// UseMailbox keeps a Mailbox at the caller's position. The returned mailbox
// is a snapshot taken at the time of the call.
func UseMailbox[T any](ctx context.Context) (Mailbox[T], MailboxControl[T]) {
	access := UseStateHere(callsite.Enter(ctx, 1), func() Mailbox[T] {
		return Mailbox[T]{}
	})
	snapshot := access.MustGet()
	snapshot.Messages = append([]Message[T](nil), snapshot.Messages...)
	return snapshot, MailboxControl[T]{store: access.Store(), id: access.Id()}
}

// Id returns the position owning the mailbox. Other positions send to it.
func (c MailboxControl[T]) Id() state.Id {
	return c.id
}

// Send appends msg to the mailbox of type T at position to. It reports false
// if no such mailbox exists.
func (c MailboxControl[T]) Send(to state.Id, msg T) bool {
	if !state.Exists[Mailbox[T]](c.store, to) {
		return false
	}
	state.Update(c.store, to, func(mb *Mailbox[T]) {
		mb.Messages = append(mb.Messages, Message[T]{From: c.id, Value: msg})
	})
	return true
}

// Pop removes and returns the most recently delivered message.
func (c MailboxControl[T]) Pop() (Message[T], bool) {
	var (
		msg Message[T]
		ok  bool
	)
	if !state.Exists[Mailbox[T]](c.store, c.id) {
		return msg, false
	}
	state.Update(c.store, c.id, func(mb *Mailbox[T]) {
		n := len(mb.Messages)
		if n == 0 {
			return
		}
		msg, ok = mb.Messages[n-1], true
		mb.Messages = mb.Messages[:n-1]
	})
	return msg, ok
}

// Drain removes and returns every message in delivery order.
func (c MailboxControl[T]) Drain() []Message[T] {
	if !state.Exists[Mailbox[T]](c.store, c.id) {
		return nil
	}
	var msgs []Message[T]
	state.Update(c.store, c.id, func(mb *Mailbox[T]) {
		msgs, mb.Messages = mb.Messages, nil
	})
	return msgs
}
