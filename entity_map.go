package pallet

import (
	"fmt"
	"math"

	"github.com/TheBitDrifter/bark"
)

// EntityLocation is the (archetype, chunk, slot) triple addressing an
// entity's storage. Archetype and chunk indices are stable for the scene's
// lifetime; slots move under swap-remove.
type EntityLocation struct {
	Archetype uint32
	Chunk     uint32
	Slot      uint32
}

// NullLocation marks an absent entry. The archetype index is reserved:
// it can never be produced by an insert, so it cannot collide with a real
// location the way a zero archetype would.
var NullLocation = EntityLocation{Archetype: math.MaxUint32}

// IsNull reports whether this is the absent-entry sentinel
func (l EntityLocation) IsNull() bool {
	return l == NullLocation
}

func (l EntityLocation) String() string {
	if l.IsNull() {
		return "null"
	}
	return fmt.Sprintf("archetype#%d[%d:%d]", l.Archetype, l.Chunk, l.Slot)
}

// EntityMap maps entity ids to their storage locations. Entities are
// allocated in bursts and cluster in id space, so locations are grouped
// into buckets of BucketSize consecutive ids: one hash probe covers a whole
// burst, while sparse holes after despawns still release their buckets.
type EntityMap struct {
	buckets map[EntityID]*entityBucket
	size    int
}

// entityBucket holds the locations for BucketSize consecutive ids plus a
// count of how many are non-null, so the bucket can be dropped at zero.
type entityBucket struct {
	slots  [BucketSize]EntityLocation
	filled uint8
}

func newEntityMap() *EntityMap {
	return &EntityMap{buckets: make(map[EntityID]*entityBucket)}
}

// bucketKey is the id rounded down to its bucket start
func bucketKey(id EntityID) (key EntityID, slot int) {
	slot = int(id % BucketSize)
	return id - EntityID(slot), slot
}

// Insert records (or overwrites) the location for an entity. Inserting the
// null location is a programmer error.
func (m *EntityMap) Insert(e Entity, loc EntityLocation) {
	if loc.IsNull() {
		panic(bark.AddTrace(NullLocationError{Entity: e}))
	}

	key, slot := bucketKey(e.ID())
	bucket, ok := m.buckets[key]
	if !ok {
		bucket = &entityBucket{}
		for i := range bucket.slots {
			bucket.slots[i] = NullLocation
		}
		m.buckets[key] = bucket
	}
	if bucket.slots[slot].IsNull() {
		bucket.filled++
		m.size++
	}
	bucket.slots[slot] = loc
}

// Remove clears the location for an entity, dropping the bucket once its
// last entry is gone
func (m *EntityMap) Remove(e Entity) {
	key, slot := bucketKey(e.ID())
	bucket, ok := m.buckets[key]
	if !ok {
		return
	}
	if !bucket.slots[slot].IsNull() {
		bucket.filled--
		m.size--
	}
	bucket.slots[slot] = NullLocation
	if bucket.filled == 0 {
		delete(m.buckets, key)
	}
}

// Get returns the entity's location, or NullLocation when absent
func (m *EntityMap) Get(e Entity) EntityLocation {
	key, slot := bucketKey(e.ID())
	if bucket, ok := m.buckets[key]; ok {
		return bucket.slots[slot]
	}
	return NullLocation
}

// Contains reports whether the entity has a recorded location
func (m *EntityMap) Contains(e Entity) bool {
	return !m.Get(e).IsNull()
}

// Len returns the number of recorded locations
func (m *EntityMap) Len() int {
	return m.size
}
