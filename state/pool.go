package state

import (
	"reflect"
)

// slotPool is the type-erased view of a pool used by the registry for
// bulk operations that do not care about the element type.
type slotPool interface {
	delete(key SlotKey)
	has(key SlotKey) bool
	len() int
	typ() reflect.Type
}

// poolRegistry lazily creates one pool per stored type.
type poolRegistry struct {
	pools map[reflect.Type]slotPool
	order []slotPool
	// onCreate is called with the type of every newly materialised pool.
	onCreate func(reflect.Type)
}

func newPoolRegistry() *poolRegistry {
	return &poolRegistry{
		pools: make(map[reflect.Type]slotPool),
	}
}

// lookupPool returns the pool for T without creating it.
func lookupPool[T any](r *poolRegistry) *pool[T] {
	p, ok := r.pools[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return p.(*pool[T])
}

// poolFor returns the pool for T, creating it on first use.
func poolFor[T any](r *poolRegistry) *pool[T] {
	t := reflect.TypeFor[T]()
	if p, ok := r.pools[t]; ok {
		return p.(*pool[T])
	}

	p := &pool[T]{}
	r.pools[t] = p
	r.order = append(r.order, p)
	if r.onCreate != nil {
		r.onCreate(t)
	}
	return p
}

// purge removes key from every pool.
func (r *poolRegistry) purge(key SlotKey) {
	for _, p := range r.order {
		p.delete(key)
	}
}

const (
	poolBlockSize = 64
)

// pool stores values of a single type T in fixed-size blocks indexed by slot
// index. Each entry remembers the generation of the key that wrote it, so a
// key from a previous occupant of the index never matches.
type pool[T any] struct {
	blocks [][poolBlockSize]T
	gens   [][poolBlockSize]uint32
	count  int
}

func (p *pool[T]) locate(key SlotKey) (block, slot int, ok bool) {
	index := int(key.Index())
	block = index / poolBlockSize
	slot = index % poolBlockSize
	if block >= len(p.blocks) {
		return block, slot, false
	}
	return block, slot, true
}

// set overwrites the value stored under key.
func (p *pool[T]) set(key SlotKey, value T) {
	block, slot, ok := p.locate(key)
	if !ok {
		for block >= len(p.blocks) {
			p.blocks = append(p.blocks, [poolBlockSize]T{})
			p.gens = append(p.gens, [poolBlockSize]uint32{})
		}
	}

	if p.gens[block][slot] != key.Generation() {
		if p.gens[block][slot] == 0 {
			p.count++
		}
		p.gens[block][slot] = key.Generation()
	}
	p.blocks[block][slot] = value
}

// get returns a pointer to the value stored under key. The pointer is only
// valid until the next structural change to the pool.
func (p *pool[T]) get(key SlotKey) (*T, bool) {
	block, slot, ok := p.locate(key)
	if !ok || key.Generation() == 0 || p.gens[block][slot] != key.Generation() {
		return nil, false
	}
	return &p.blocks[block][slot], true
}

// take removes and returns the value stored under key.
func (p *pool[T]) take(key SlotKey) (T, bool) {
	var zero T
	ptr, ok := p.get(key)
	if !ok {
		return zero, false
	}
	value := *ptr
	p.clear(key)
	return value, true
}

func (p *pool[T]) contains(key SlotKey) bool {
	_, ok := p.get(key)
	return ok
}

// clear empties the entry at key's index whatever generation wrote it.
func (p *pool[T]) clear(key SlotKey) {
	block, slot, ok := p.locate(key)
	if !ok || p.gens[block][slot] == 0 {
		return
	}
	var zero T
	p.blocks[block][slot] = zero // Release references held by the value
	p.gens[block][slot] = 0
	p.count--
}

func (p *pool[T]) delete(key SlotKey) {
	if p.contains(key) {
		p.clear(key)
	}
}

func (p *pool[T]) has(key SlotKey) bool {
	return p.contains(key)
}

func (p *pool[T]) len() int {
	return p.count
}

func (p *pool[T]) typ() reflect.Type {
	return reflect.TypeFor[T]()
}
