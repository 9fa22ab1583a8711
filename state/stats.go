package state

import "sort"

// StoreStats is a point-in-time summary of a Store.
type StoreStats struct {
	LiveIdentities int
	UnseenCount    int
	SlotCapacity   int
	FreeSlots      int
	Cycles         uint64
	PoolCount      int
	TotalValues    int
	Pools          []PoolStats
}

// PoolStats describes the pool for one stored type.
type PoolStats struct {
	Type   string
	Values int
}

// CollectStats gathers statistics about the store. It does not touch any identity.
func (s *Store) CollectStats() StoreStats {
	stats := StoreStats{
		LiveIdentities: s.arena.len(),
		UnseenCount:    s.liveness.len(),
		SlotCapacity:   len(s.arena.generations),
		FreeSlots:      len(s.arena.free),
		Cycles:         s.cycles,
		PoolCount:      len(s.pools.order),
		Pools:          make([]PoolStats, 0, len(s.pools.order)),
	}

	for _, p := range s.pools.order {
		stats.Pools = append(stats.Pools, PoolStats{
			Type:   p.typ().String(),
			Values: p.len(),
		})
		stats.TotalValues += p.len()
	}
	sort.Slice(stats.Pools, func(i, j int) bool {
		return stats.Pools[i].Type < stats.Pools[j].Type
	})
	return stats
}
