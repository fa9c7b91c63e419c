package intelengine

import (
	"sync"
	"testing"
)

func TestRingCoordinatorReplacesPerSource(t *testing.T) {
	var applied []Ring
	c := NewRingCoordinator(func(rings []Ring) { applied = rings })

	r1 := Ring{Lat: 1}
	r2 := Ring{Lat: 2}
	r3 := Ring{Lat: 3}

	c.Update("events", []Ring{r1, r2})
	if len(applied) != 2 {
		t.Fatalf("applied %d rings, want 2", len(applied))
	}

	c.Update("events", []Ring{r3})
	if len(applied) != 1 || applied[0].Lat != 3 {
		t.Fatalf("applied = %+v, want only the replacement ring", applied)
	}
}

func TestRingCoordinatorEmptySetClearsOnlyThatSource(t *testing.T) {
	var applied []Ring
	c := NewRingCoordinator(func(rings []Ring) { applied = rings })

	c.Update("events", []Ring{{Lat: 1}, {Lat: 2}})
	c.Update("connections", []Ring{{Lat: 10}})
	c.Update("events", nil)

	if len(applied) != 1 || applied[0].Lat != 10 {
		t.Fatalf("applied = %+v, want only the connections ring", applied)
	}
	if got := c.Rings("events"); len(got) != 0 {
		t.Errorf("events still has %d rings", len(got))
	}
}

func TestRingCoordinatorMergeOrderFollowsFirstRegistration(t *testing.T) {
	c := NewRingCoordinator(nil)
	c.Update("events", []Ring{{Lat: 1}})
	c.Update("connections", []Ring{{Lat: 2}})
	// Updating an existing source must not move it in the merge order.
	c.Update("events", []Ring{{Lat: 3}})

	merged := c.Merged()
	if len(merged) != 2 {
		t.Fatalf("merged %d rings, want 2", len(merged))
	}
	if merged[0].Lat != 3 || merged[1].Lat != 2 {
		t.Errorf("merged = %+v, want events first then connections", merged)
	}
}

func TestRingCoordinatorConcurrentUpdatesApplyFullUnion(t *testing.T) {
	for i := 0; i < 50; i++ {
		var mu sync.Mutex
		var last []Ring
		c := NewRingCoordinator(func(rings []Ring) {
			mu.Lock()
			last = append([]Ring(nil), rings...)
			mu.Unlock()
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); c.Update("events", []Ring{{Lat: 1}}) }()
		go func() { defer wg.Done(); c.Update("connections", []Ring{{Lat: 2}}) }()
		wg.Wait()

		mu.Lock()
		n := len(last)
		mu.Unlock()
		// Whichever update applies last sees both sets, so the final applied
		// state is always the union of both producers.
		if n != 2 {
			t.Fatalf("rendered set has %d rings after both producers updated, want 2", n)
		}
	}
}

func TestRingCoordinatorAppliesSynchronously(t *testing.T) {
	calls := 0
	c := NewRingCoordinator(func([]Ring) { calls++ })
	c.Update("events", []Ring{{Lat: 1}})
	if calls != 1 {
		t.Fatalf("apply ran %d times before Update returned, want 1", calls)
	}
}
