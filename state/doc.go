// Package state keeps per-call-site state for call trees that are re-run
// every pass.
//
// A Store maps an opaque Id (one per call-tree position) to a generational
// SlotKey. The same key indexes a separate pool for each Go type stored under
// that identity, so an identity can hold one value of each type at a time.
//
// Liveness works like a mark-and-sweep collector driven by the caller:
//
//	s := state.New()
//	for {
//		render(s)           // touches every identity that is still mounted
//		s.SweepAndReseed()  // drops identities not touched during render
//	}
//
// Reads, writes, updates and existence probes on an identity with a slot all
// count as touches. Identities not touched between two calls to
// SweepAndReseed lose their state for every type at once.
package state
