package arena

// Metrics contains statistical information about an arena.
type Metrics struct {
	Blocks      int     // Number of blocks
	BlockSize   int     // Size of each block
	Capacity    int     // Total capacity in bytes
	InUse       int     // Bytes held by live allocations, whole spans
	FreeSpans   int     // Entries on the free list
	FreeBytes   int     // Bytes on the free list
	Utilization float64 // Ratio of InUse to Capacity (0.0-1.0)
}

// Metrics returns a snapshot of arena statistics. A released arena reports
// zero for everything but BlockSize.
func (a *Arena) Metrics() Metrics {
	m := Metrics{
		Blocks:    len(a.blocks),
		BlockSize: a.blockSize,
		Capacity:  len(a.blocks) * a.blockSize,
		InUse:     a.inUse(),
		FreeSpans: len(a.free),
	}
	for _, s := range a.free {
		m.FreeBytes += s.size
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.InUse) / float64(m.Capacity)
	}
	return m
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
