package pallet

import (
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// entityIDSize anchors every layout: the id column leads the chunk.
const entityIDSize = unsafe.Sizeof(EntityID(0))

// column locates one component type's storage within a chunk
type column struct {
	meta   TypeMeta
	offset uintptr
}

// ChunkLayout is the per-archetype memory plan for a chunk: how many
// entities fit the byte budget, and at which offset each component column
// starts. It is computed once per archetype and shared by reference with
// every chunk in it.
//
// A chunk's bytes look like:
//
//	[id, id, id, ~, ~, *, A, A, A, ~, ~, *, *, B, B, B, ~, ~]
//
// where ~ is free capacity and * is alignment padding. Columns never
// overlap and each column's start offset is a multiple of its type's
// alignment.
type ChunkLayout struct {
	set        ComponentSet
	capacity   int
	allocBytes uintptr
	columns    map[TypeID]column
}

// newChunkLayout computes the layout for a canonical component set.
// It fails when a single entry cannot fit the chunk budget.
func newChunkLayout(set ComponentSet) (*ChunkLayout, error) {
	entrySize := entityIDSize
	for _, m := range set.Metas() {
		entrySize += m.Size()
	}
	if entrySize > TargetChunkBytes {
		return nil, OversizedEntryError{EntrySize: entrySize}
	}

	capacity := TargetChunkBytes / entrySize

	// The id column occupies [0, capacity*idSize); component columns follow
	// in canonical order, each padded up to its own alignment.
	offset := capacity * entityIDSize
	columns := make(map[TypeID]column, set.Len())
	for _, m := range set.Metas() {
		offset += (m.Alignment() - offset%m.Alignment()) % m.Alignment()
		columns[m.ID()] = column{meta: m, offset: offset}
		offset += capacity * m.Size()
	}

	return &ChunkLayout{
		set:        set,
		capacity:   int(capacity),
		allocBytes: offset,
		columns:    columns,
	}, nil
}

// Capacity returns the number of entities one chunk holds
func (l *ChunkLayout) Capacity() int {
	return l.capacity
}

// AllocBytes returns the byte size of one chunk allocation
func (l *ChunkLayout) AllocBytes() uintptr {
	return l.allocBytes
}

// Set returns the component set this layout was built from
func (l *ChunkLayout) Set() ComponentSet {
	return l.set
}

// Mask returns the layout's component mask
func (l *ChunkLayout) Mask() mask.Mask {
	return l.set.Mask()
}

// Contains reports whether the layout stores the given component type
func (l *ChunkLayout) Contains(id TypeID) bool {
	_, ok := l.columns[id]
	return ok
}

// column returns the column info for a component type, if stored
func (l *ChunkLayout) column(id TypeID) (column, bool) {
	c, ok := l.columns[id]
	return c, ok
}
