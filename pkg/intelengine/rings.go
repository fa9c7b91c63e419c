package intelengine

import (
	"image/color"
	"sync"
	"time"
)

// Ring is a timed, expanding pulse anchored at a coordinate. Radius and speed
// are in degrees, matching the scene layer contract.
type Ring struct {
	Lat, Lng  float64
	MaxRadius float64
	Speed     float64
	Period    time.Duration
	Color     color.RGBA
}

// RingCoordinator merges the ring sets of independent producers ("events",
// "connections", ...) into the single list the scene renders. Each Update
// replaces that producer's whole set and re-applies the merged list before
// returning, so callers may assume the scene is current when it returns.
//
// Merge order is the order in which producers first appeared, which keeps the
// rendered list stable for the lifetime of the process.
type RingCoordinator struct {
	mu    sync.Mutex
	order []string
	sets  map[string][]Ring
	apply func([]Ring)
}

// NewRingCoordinator wires the coordinator to a sink, normally the scene
// driver's ring layer. A nil apply is allowed for tests.
func NewRingCoordinator(apply func([]Ring)) *RingCoordinator {
	return &RingCoordinator{
		sets:  make(map[string][]Ring),
		apply: apply,
	}
}

// Update replaces source's ring set. An empty or nil set means "this producer
// currently has no rings"; the producer stays registered.
//
// apply runs under the coordinator lock, so concurrent producers cannot apply
// their merged sets in inverted order and strand a stale union on screen.
// Sinks must not call back into the coordinator.
func (c *RingCoordinator) Update(source string, rings []Ring) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, known := c.sets[source]; !known {
		c.order = append(c.order, source)
	}
	c.sets[source] = append([]Ring(nil), rings...)
	if c.apply != nil {
		c.apply(c.mergedLocked())
	}
}

// Rings returns a copy of one producer's current set.
func (c *RingCoordinator) Rings(source string) []Ring {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Ring(nil), c.sets[source]...)
}

// Merged returns a copy of the full rendered set.
func (c *RingCoordinator) Merged() []Ring {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mergedLocked()
}

func (c *RingCoordinator) mergedLocked() []Ring {
	var merged []Ring
	for _, source := range c.order {
		merged = append(merged, c.sets[source]...)
	}
	return merged
}
