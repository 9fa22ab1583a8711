package state

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// livenessTracker holds the slot indices not touched since the last seed.
// Indices rather than identities are tracked; the arena translates back.
type livenessTracker struct {
	unseen *roaring.Bitmap
}

func newLivenessTracker() *livenessTracker {
	return &livenessTracker{
		unseen: roaring.New(),
	}
}

// seed replaces the candidate set with every live slot.
func (l *livenessTracker) seed(a *slotArena) {
	l.unseen.Clear()
	a.forEach(func(_ Id, key SlotKey) bool {
		l.unseen.Add(key.Index())
		return true
	})
}

func (l *livenessTracker) mark(key SlotKey) {
	l.unseen.Remove(key.Index())
}

func (l *livenessTracker) forget(key SlotKey) {
	l.unseen.Remove(key.Index())
}

func (l *livenessTracker) len() int {
	return int(l.unseen.GetCardinality())
}

// candidates returns the identities still unseen, in slot order.
func (l *livenessTracker) candidates(a *slotArena) []Id {
	ids := make([]Id, 0, l.unseen.GetCardinality())
	it := l.unseen.Iterator()
	for it.HasNext() {
		if id, ok := a.owner(it.Next()); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Seed snapshots every identity currently holding a slot as a sweep candidate.
// Each subsequent access to an identity removes it from the candidates.
func (s *Store) Seed() {
	s.liveness.seed(s.arena)
}

// MarkSeen records that id is alive for the current cycle without reading
// or writing any state.
func (s *Store) MarkSeen(id Id) {
	if key, ok := s.arena.lookup(id); ok {
		s.liveness.mark(key)
	}
}

// Unseen returns the identities that have not been touched since the last
// seed. These are the identities the next sweep will reclaim.
func (s *Store) Unseen() []Id {
	return s.liveness.candidates(s.arena)
}

// SweepAndReseed reclaims every identity not touched since the previous
// seed, dropping all of its state for every type, and then seeds the next
// cycle with the survivors. It returns the reclaimed identities.
//
// Call it exactly once per pass, after the full traversal.
func (s *Store) SweepAndReseed() []Id {
	reclaimed := s.Unseen()
	for _, id := range reclaimed {
		s.forget(id)
	}
	s.Seed()

	s.cycles++
	s.logger.Debug("state sweep",
		"cycle", s.cycles,
		"reclaimed", len(reclaimed),
		"live", s.arena.len(),
	)
	return reclaimed
}
