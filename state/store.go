package state

import (
	"log/slog"
	"reflect"
)

// Store holds per-identity state of arbitrary types. Every identity owns one
// slot, and that slot indexes the pool of each type stored under it.
//
// A Store has a single owner. It performs no locking and must not be shared
// between goroutines without external synchronisation.
type Store struct {
	arena    *slotArena
	pools    *poolRegistry
	liveness *livenessTracker
	logger   *slog.Logger
	cycles   uint64
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	s := &Store{
		arena:    newSlotArena(o.capacity),
		pools:    newPoolRegistry(),
		liveness: newLivenessTracker(),
		logger:   o.logger,
	}
	s.pools.onCreate = func(t reflect.Type) {
		s.logger.Debug("state pool created", "type", t.String())
	}
	return s
}

// Lookup returns the slot key held by id, if any. It does not count as a touch.
func (s *Store) Lookup(id Id) (SlotKey, bool) {
	return s.arena.lookup(id)
}

// Identity resolves a slot key to its owner. Keys retired by a sweep or
// Forget resolve to nothing, even once their index has been reused.
func (s *Store) Identity(key SlotKey) (Id, bool) {
	return s.arena.identity(key)
}

// Forget drops id's slot and all state stored under it, for every type.
func (s *Store) Forget(id Id) bool {
	return s.forget(id)
}

func (s *Store) forget(id Id) bool {
	key, ok := s.arena.deallocate(id)
	if !ok {
		return false
	}
	s.liveness.forget(key)
	s.pools.purge(key)
	return true
}

// touch resolves id's slot and marks it seen.
func (s *Store) touch(id Id) (SlotKey, bool) {
	key, ok := s.arena.lookup(id)
	if ok {
		s.liveness.mark(key)
	}
	return key, ok
}

// Set stores value under id, replacing any earlier value of the same type.
// The identity's slot is allocated on first use.
func Set[T any](s *Store, id Id, value T) {
	key := s.arena.allocate(id)
	s.liveness.mark(key)
	poolFor[T](s.pools).set(key, value)
}

// Exists reports whether a value of type T is stored under id. It never
// allocates a slot, but probing an existing slot counts as a touch.
func Exists[T any](s *Store, id Id) bool {
	key, ok := s.touch(id)
	if !ok {
		return false
	}
	p := lookupPool[T](s.pools)
	return p != nil && p.contains(key)
}

// Get returns a copy of the value of type T stored under id.
// The second result is false if nothing is stored.
func Get[T any](s *Store, id Id) (T, bool) {
	var zero T
	key, ok := s.touch(id)
	if !ok {
		return zero, false
	}
	p := lookupPool[T](s.pools)
	if p == nil {
		return zero, false
	}
	ptr, ok := p.get(key)
	if !ok {
		return zero, false
	}
	return *ptr, true
}

// MustGet is like Get but panics with ErrNotFound if nothing is stored.
// Use it only where the value is known to have been initialised.
func MustGet[T any](s *Store, id Id) T {
	value, ok := Get[T](s, id)
	if !ok {
		panic(notFound[T]("get", id))
	}
	return value
}

// Read calls fn with the stored value in place and returns its result.
// The value is taken out of the store for the duration of fn, so fn must not
// access the same (id, T) cell. Panics with ErrNotFound if nothing is stored.
func Read[T, R any](s *Store, id Id, fn func(*T) R) R {
	key, value := take[T](s, "read", id)
	defer reinsert(s, key, &value)
	return fn(&value)
}

// Update takes the value of type T stored under id, passes it to fn for
// mutation and stores the result. While fn runs the cell is empty: any nested
// access to the same (id, T) observes absence, and a nested Update, Read or
// MustGet panics with ErrNotFound.
func Update[T any](s *Store, id Id, fn func(*T)) {
	key, value := take[T](s, "update", id)
	defer reinsert(s, key, &value)
	fn(&value)
}

// Remove deletes and returns the value of type T stored under id. The slot
// and values of other types stored under id are left in place.
func Remove[T any](s *Store, id Id) (T, bool) {
	var zero T
	key, ok := s.arena.lookup(id)
	if !ok {
		return zero, false
	}
	p := lookupPool[T](s.pools)
	if p == nil {
		return zero, false
	}
	return p.take(key)
}

func take[T any](s *Store, op string, id Id) (SlotKey, T) {
	key, ok := s.touch(id)
	if ok {
		if p := lookupPool[T](s.pools); p != nil {
			if value, ok := p.take(key); ok {
				return key, value
			}
		}
	}
	panic(notFound[T](op, id))
}

// reinsert puts a taken value back, unless the identity was reclaimed while
// the value was out.
func reinsert[T any](s *Store, key SlotKey, value *T) {
	if !s.arena.valid(key) {
		return
	}
	poolFor[T](s.pools).set(key, *value)
}
