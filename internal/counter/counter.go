// Package counter holds the shared per-artifact reference counters.
package counter

import (
	"sync/atomic"

	"github.com/tkoenig/jarusage/internal/artifact"
)

// Counts maps artifact coordinates to reference counters. The key set is fixed
// at construction, so concurrent scan workers increment without any locking;
// counters only ever grow for the lifetime of one analysis run.
type Counts struct {
	counts map[string]*atomic.Int64
}

// New creates a counter table with a zero entry for every artifact in the
// resolved dependency set.
func New(artifacts []artifact.Artifact) *Counts {
	c := &Counts{counts: make(map[string]*atomic.Int64, len(artifacts))}
	for _, a := range artifacts {
		if _, ok := c.counts[a.Coordinate()]; !ok {
			c.counts[a.Coordinate()] = new(atomic.Int64)
		}
	}
	return c
}

// Inc atomically increments the counter for coord. Unknown coordinates are
// ignored; counting is only defined over the dependency set given to New.
func (c *Counts) Inc(coord string) {
	if n, ok := c.counts[coord]; ok {
		n.Add(1)
	}
}

// Total returns the sum of all counters.
func (c *Counts) Total() int64 {
	var total int64
	for _, n := range c.counts {
		total += n.Load()
	}
	return total
}

// Snapshot copies the current counter values into a plain map.
func (c *Counts) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(c.counts))
	for coord, n := range c.counts {
		out[coord] = n.Load()
	}
	return out
}
