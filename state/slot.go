package state

import (
	"fmt"

	"github.com/kamstrup/intmap"
)

// Id is an opaque token identifying a position in a repeatedly traversed call tree.
// The store never interprets it beyond equality.
type Id uint64

func (id Id) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// SlotKey encodes both the generation (upper 32 bits) and the slot index (lower 32 bits)
type SlotKey uint64

// NewSlotKey creates a SlotKey from a slot index and generation
func NewSlotKey(index uint32, generation uint32) SlotKey {
	return SlotKey(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the key
func (k SlotKey) Index() uint32 {
	return uint32(k & 0xFFFFFFFF)
}

// Generation extracts the generation from the key
func (k SlotKey) Generation() uint32 {
	return uint32(k >> 32)
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%d@%d", k.Index(), k.Generation())
}

// slotArena hands out one generational key per identity. Generations start
// at 1 so the zero SlotKey never refers to a live slot.
type slotArena struct {
	keys        *intmap.Map[Id, SlotKey]
	generations []uint32
	owners      []Id
	live        []bool
	free        []uint32
}

func newSlotArena(capacity int) *slotArena {
	return &slotArena{
		keys:        intmap.New[Id, SlotKey](capacity),
		generations: make([]uint32, 0, capacity),
		owners:      make([]Id, 0, capacity),
		live:        make([]bool, 0, capacity),
	}
}

// allocate returns the identity's key, creating one if it has none.
func (a *slotArena) allocate(id Id) SlotKey {
	if key, ok := a.keys.Get(id); ok {
		return key
	}

	var index uint32
	if len(a.free) > 0 {
		index = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
	} else {
		index = uint32(len(a.generations))
		a.generations = append(a.generations, 1)
		a.owners = append(a.owners, 0)
		a.live = append(a.live, false)
	}

	a.owners[index] = id
	a.live[index] = true
	key := NewSlotKey(index, a.generations[index])
	a.keys.Put(id, key)
	return key
}

func (a *slotArena) lookup(id Id) (SlotKey, bool) {
	return a.keys.Get(id)
}

// deallocate drops both directions of the mapping and retires the key's
// generation. Returns the retired key.
func (a *slotArena) deallocate(id Id) (SlotKey, bool) {
	key, ok := a.keys.Get(id)
	if !ok {
		return 0, false
	}
	a.keys.Del(id)

	index := key.Index()
	a.owners[index] = 0
	a.live[index] = false
	a.generations[index]++
	if a.generations[index] == 0 {
		// Wrapped; skip zero so the null key stays unreachable.
		a.generations[index] = 1
	}
	a.free = append(a.free, index)
	return key, true
}

// identity resolves a key back to its owner. Stale keys resolve to nothing.
func (a *slotArena) identity(key SlotKey) (Id, bool) {
	if !a.valid(key) {
		return 0, false
	}
	return a.owners[key.Index()], true
}

// owner returns the identity currently holding the slot index.
func (a *slotArena) owner(index uint32) (Id, bool) {
	if int(index) >= len(a.live) || !a.live[index] {
		return 0, false
	}
	return a.owners[index], true
}

func (a *slotArena) valid(key SlotKey) bool {
	index := key.Index()
	if int(index) >= len(a.generations) {
		return false
	}
	return a.live[index] && a.generations[index] == key.Generation()
}

func (a *slotArena) len() int {
	return a.keys.Len()
}

func (a *slotArena) forEach(fn func(Id, SlotKey) bool) {
	a.keys.ForEach(fn)
}
