// Package callsite derives stable state.Id values for positions in a call
// tree. A position is identified by its parent position, the source file and
// line of the call and how many times that call has already happened under the
// same parent during the current traversal. As long as a traversal makes the
// same calls in the same order, every position gets the same Id each pass.
package callsite

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/kamstrup/intmap"
	"github.com/plus3/callstate/state"
)

// ErrNoFrame is raised when a position is requested outside of a Root.
var ErrNoFrame = errors.New("callsite: no root frame in context")

const (
	fnvOffset uint64 = 14695981039346656037 // FNV-1a 64-bit offset basis
	fnvPrime  uint64 = 1099511628211        // FNV-1a 64-bit prime
)

// frame is one position in the tree. counts tracks how often each call site
// has been entered beneath it during this traversal.
type frame struct {
	id     state.Id
	counts *intmap.Map[uint64, uint32]
}

func newFrame(id state.Id) *frame {
	return &frame{
		id:     id,
		counts: intmap.New[uint64, uint32](8),
	}
}

type frameKey struct{}

// Root starts a traversal rooted at seed. Call it once per pass; counters
// from the previous pass are not carried over.
func Root(ctx context.Context, seed state.Id) context.Context {
	return context.WithValue(ctx, frameKey{}, newFrame(seed))
}

// Current returns the Id of the position ctx is at. It panics with
// ErrNoFrame if ctx is not inside a Root.
func Current(ctx context.Context) state.Id {
	return mustFrame(ctx).id
}

// Lookup is like Current but reports whether ctx is inside a Root.
func Lookup(ctx context.Context) (state.Id, bool) {
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok {
		return 0, false
	}
	return f.id, true
}

// Call runs fn at a child position derived from the caller's source line.
func Call(ctx context.Context, fn func(ctx context.Context)) {
	fn(Enter(ctx, 1))
}

// CallKeyed runs fn at a child position derived from the caller's source line
// and key. Use it for calls made in a loop over items whose order
// may change between passes.
func CallKeyed(ctx context.Context, key string, fn func(ctx context.Context)) {
	fn(enter(ctx, 1, hashString(key)))
}

// CallInSlot runs fn at a child position derived from the caller's source line
// and an explicit slot number.
func CallInSlot(ctx context.Context, slot uint64, fn func(ctx context.Context)) {
	fn(enter(ctx, 1, mix(fnvOffset, slot)))
}

// Enter returns a context positioned at a new child of ctx's position. skip
// selects the call site: 0 is the caller of Enter, 1 its caller, and so on.
func Enter(ctx context.Context, skip int) context.Context {
	return enter(ctx, skip+1, 0)
}

func enter(ctx context.Context, skip int, salt uint64) context.Context {
	parent := mustFrame(ctx)

	var pcs [1]uintptr
	runtime.Callers(skip+2, pcs[:])

	site := mix(location(pcs[0]), salt)
	occurrence, _ := parent.counts.Get(site)
	parent.counts.Put(site, occurrence+1)

	h := mix(fnvOffset, uint64(parent.id))
	h = mix(h, site)
	h = mix(h, uint64(occurrence))
	if h == 0 {
		h = 1
	}
	return context.WithValue(ctx, frameKey{}, newFrame(state.Id(h)))
}

// locations caches the source location hash of each program counter. The
// inliner can copy one call site to several places, so several PCs may map
// to the same location.
var locations sync.Map // map[uintptr]uint64

// location hashes the file and line the call at pc was written on.
func location(pc uintptr) uint64 {
	if h, ok := locations.Load(pc); ok {
		return h.(uint64)
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	h := mix(hashString(frame.File), uint64(frame.Line))
	locations.Store(pc, h)
	return h
}

func mustFrame(ctx context.Context) *frame {
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok {
		panic(ErrNoFrame)
	}
	return f
}

// mix folds the 8 bytes of v into h using FNV-1a.
func mix(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xFF
		h *= fnvPrime
		v >>= 8
	}
	return h
}

func hashString(s string) uint64 {
	h := fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}
