package pallet

import (
	"testing"
)

func TestEntityMapRoundTrip(t *testing.T) {
	m := newEntityMap()
	ent := ReserveEntities(1)
	loc := EntityLocation{Archetype: 3, Chunk: 1, Slot: 7}

	m.Insert(ent, loc)

	if got := m.Get(ent); got != loc {
		t.Errorf("Get() = %v, want %v", got, loc)
	}
	if !m.Contains(ent) {
		t.Error("Contains() = false after insert")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	// Overwrite keeps the size stable
	moved := EntityLocation{Archetype: 3, Chunk: 2, Slot: 0}
	m.Insert(ent, moved)
	if got := m.Get(ent); got != moved {
		t.Errorf("Get() after overwrite = %v, want %v", got, moved)
	}
	if m.Len() != 1 {
		t.Errorf("Len() after overwrite = %d, want 1", m.Len())
	}
}

func TestEntityMapRemove(t *testing.T) {
	m := newEntityMap()
	ent := ReserveEntities(1)

	// Removing an absent entity is a no-op
	m.Remove(ent)
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}

	m.Insert(ent, EntityLocation{Archetype: 0, Chunk: 0, Slot: 0})
	m.Remove(ent)

	if m.Contains(ent) {
		t.Error("Contains() = true after remove")
	}
	if !m.Get(ent).IsNull() {
		t.Errorf("Get() after remove = %v, want null", m.Get(ent))
	}
	if len(m.buckets) != 0 {
		t.Errorf("bucket count = %d after last removal, want 0", len(m.buckets))
	}
}

func TestEntityMapBuckets(t *testing.T) {
	m := newEntityMap()

	// A burst of consecutive ids shares buckets
	first := ReserveEntities(BucketSize * 2)
	base := first.ID() - first.ID()%BucketSize
	spansExtra := base != first.ID()

	for i := 0; i < BucketSize*2; i++ {
		ent := EntityFromID(first.ID() + EntityID(i))
		m.Insert(ent, EntityLocation{Archetype: 0, Chunk: 0, Slot: uint32(i)})
	}

	wantBuckets := 2
	if spansExtra {
		wantBuckets = 3
	}
	if len(m.buckets) != wantBuckets {
		t.Errorf("bucket count = %d for %d consecutive ids, want %d",
			len(m.buckets), BucketSize*2, wantBuckets)
	}

	// Sparse holes: despawn all but one id in the first bucket
	for i := 0; i < BucketSize; i++ {
		id := base + EntityID(i)
		if id == first.ID() {
			continue
		}
		m.Remove(EntityFromID(id))
	}
	if !m.Contains(first) {
		t.Error("survivor lost its location")
	}

	m.Remove(first)
	if _, ok := m.buckets[base]; ok {
		t.Error("empty bucket was not removed")
	}
}

func TestEntityMapNullInsertPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Insert(NullLocation) should panic")
		}
	}()

	m := newEntityMap()
	m.Insert(ReserveEntities(1), NullLocation)
}

func TestNullLocationSentinel(t *testing.T) {
	// The sentinel must not collide with a real location in archetype 0
	real := EntityLocation{Archetype: 0, Chunk: 0, Slot: 0}
	if real.IsNull() {
		t.Error("archetype 0 location reads as null")
	}
	if !NullLocation.IsNull() {
		t.Error("NullLocation does not read as null")
	}
	if NullLocation.String() != "null" {
		t.Errorf("NullLocation.String() = %q", NullLocation.String())
	}
}
