package state

// Access is a typed handle to the value of type T stored under one identity.
// It owns nothing: once the identity is reclaimed every method observes
// absence, and a later Set starts a fresh slot.
type Access[T any] struct {
	store *Store
	id    Id
	key   SlotKey
}

// Handle returns an Access for the T stored under id. It does not allocate a
// slot or touch the identity.
func Handle[T any](s *Store, id Id) Access[T] {
	key, _ := s.arena.lookup(id)
	return Access[T]{
		store: s,
		id:    id,
		key:   key,
	}
}

// Id returns the identity the handle refers to.
func (a Access[T]) Id() Id {
	return a.id
}

// Store returns the backing store.
func (a Access[T]) Store() *Store {
	return a.store
}

// Key returns the slot key the identity held when the handle was created. It
// is zero if the identity had no slot at that time.
func (a Access[T]) Key() SlotKey {
	return a.key
}

// Current reports whether the slot the handle was created against is still
// live. It turns false once the identity has been reclaimed.
func (a Access[T]) Current() bool {
	return a.key != 0 && a.store.arena.valid(a.key)
}

// Set stores value, replacing the previous one.
func (a Access[T]) Set(value T) {
	Set(a.store, a.id, value)
}

// Get returns a copy of the stored value.
func (a Access[T]) Get() (T, bool) {
	return Get[T](a.store, a.id)
}

// MustGet returns a copy of the stored value and panics if it is absent.
func (a Access[T]) MustGet() T {
	return MustGet[T](a.store, a.id)
}

// Read calls fn with the stored value in place.
func (a Access[T]) Read(fn func(*T)) {
	Read(a.store, a.id, func(v *T) struct{} {
		fn(v)
		return struct{}{}
	})
}

// Update mutates the stored value in place.
func (a Access[T]) Update(fn func(*T)) {
	Update(a.store, a.id, fn)
}

// Remove deletes and returns the stored value.
func (a Access[T]) Remove() (T, bool) {
	return Remove[T](a.store, a.id)
}

// Exists reports whether a value is stored.
func (a Access[T]) Exists() bool {
	return Exists[T](a.store, a.id)
}
