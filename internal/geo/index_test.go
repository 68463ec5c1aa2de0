package geo

import (
	"testing"
	"time"
)

func TestIndexAddAndQuery(t *testing.T) {
	idx := New()
	idx.Add("driver-1", 37.7749, -122.4194, Meta{Tier: "STANDARD", Rating: 4.8}, 1)
	idx.Add("driver-2", 37.7849, -122.4094, Meta{Tier: "STANDARD", Rating: 4.5}, 1)
	idx.Add("driver-3", 40.7128, -74.0060, Meta{Tier: "STANDARD", Rating: 4.9}, 1) // far away, New York

	results := idx.Query(37.7749, -122.4194, 5, 10)
	if len(results) != 2 {
		t.Fatalf("Query returned %d results, want 2", len(results))
	}
	if results[0].DriverID != "driver-1" {
		t.Errorf("closest result = %s, want driver-1", results[0].DriverID)
	}
}

func TestIndexQueryLimit(t *testing.T) {
	idx := New()
	idx.Add("a", 10, 10, Meta{}, 1)
	idx.Add("b", 10.001, 10.001, Meta{}, 1)
	idx.Add("c", 10.002, 10.002, Meta{}, 1)

	results := idx.Query(10, 10, 50, 2)
	if len(results) != 2 {
		t.Fatalf("Query with limit 2 returned %d results", len(results))
	}
}

func TestIndexAddLastWriterWinsByUpdatedAt(t *testing.T) {
	idx := New()
	idx.Add("driver-1", 1, 1, Meta{Rating: 4.0}, 100)
	idx.Add("driver-1", 2, 2, Meta{Rating: 5.0}, 50) // stale update, should be ignored

	lat, lng, ok := idx.Position("driver-1")
	if !ok {
		t.Fatal("expected driver-1 to be present")
	}
	if lat != 1 || lng != 1 {
		t.Errorf("Position = (%v, %v), want (1, 1); stale update should not have applied", lat, lng)
	}
}

func TestIndexRemove(t *testing.T) {
	idx := New()
	idx.Add("driver-1", 1, 1, Meta{}, 1)
	if idx.Count() != 1 {
		t.Fatalf("Count = %d, want 1", idx.Count())
	}
	idx.Remove("driver-1")
	if idx.Count() != 0 {
		t.Fatalf("Count after remove = %d, want 0", idx.Count())
	}
	if _, _, ok := idx.Position("driver-1"); ok {
		t.Error("Position found removed driver")
	}
	// Removing twice is a no-op, not a panic.
	idx.Remove("driver-1")
}

func TestIndexSweep(t *testing.T) {
	idx := New()
	idx.Add("driver-1", 1, 1, Meta{}, 1)
	if n := idx.Sweep(time.Hour); n != 0 {
		t.Errorf("Sweep with a generous bound evicted %d, want 0", n)
	}
	if n := idx.Sweep(0); n != 1 {
		t.Errorf("Sweep(0) evicted %d, want 1", n)
	}
	if idx.Count() != 0 {
		t.Errorf("Count after sweep = %d, want 0", idx.Count())
	}
}

func TestHaversineKmZeroForSamePoint(t *testing.T) {
	if d := HaversineKm(10, 10, 10, 10); d != 0 {
		t.Errorf("HaversineKm for identical points = %v, want 0", d)
	}
}
