package pallet

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// Chunk is one fixed-budget allocation holding up to Capacity entities'
// worth of ids and component columns. Only the first Len entries of each
// column are initialized; chunks stay densely packed via swap-remove.
//
// Chunks hold a reference to their layout only, never to their parent
// archetype.
type Chunk struct {
	layout *ChunkLayout
	data   []byte
	len    int
}

func newChunk(layout *ChunkLayout) *Chunk {
	return &Chunk{
		layout: layout,
		data:   make([]byte, layout.AllocBytes()),
	}
}

// Len returns the number of entities currently stored in this chunk
func (c *Chunk) Len() int {
	return c.len
}

// Capacity returns the maximum number of entities this chunk can store
func (c *Chunk) Capacity() int {
	return c.layout.Capacity()
}

// Layout returns the shared layout for this chunk's archetype
func (c *Chunk) Layout() *ChunkLayout {
	return c.layout
}

// Entities returns the occupied prefix of the id column
func (c *Chunk) Entities() []EntityID {
	return c.idColumn()[:c.len]
}

// idColumn returns the full-capacity id column
func (c *Chunk) idColumn() []EntityID {
	return unsafe.Slice((*EntityID)(c.base()), c.layout.Capacity())
}

// base returns the start of the chunk allocation
func (c *Chunk) base() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(c.data))
}

// columnPtr returns the start of a column within the allocation
func (c *Chunk) columnPtr(col column) unsafe.Pointer {
	return unsafe.Add(c.base(), col.offset)
}

// slotBytes returns the bytes of one component instance within a column
func (c *Chunk) slotBytes(col column, slot int) []byte {
	ptr := unsafe.Add(c.columnPtr(col), uintptr(slot)*col.meta.Size())
	return unsafe.Slice((*byte)(ptr), col.meta.Size())
}

// Components returns the occupied prefix of the column for T. It panics when
// the chunk's archetype does not store T; use TryComponents to check first.
func Components[T any](c *Chunk) []T {
	col, ok := TryComponents[T](c)
	if !ok {
		panic(bark.AddTrace(MissingColumnError{TypeID: MetaOf[T]().ID()}))
	}
	return col
}

// TryComponents returns the occupied prefix of the column for T, or false
// when the chunk's archetype does not store T.
func TryComponents[T any](c *Chunk) ([]T, bool) {
	col, ok := c.layout.column(MetaOf[T]().ID())
	if !ok {
		return nil, false
	}
	return unsafe.Slice((*T)(c.columnPtr(col)), c.len), true
}

// RawColumn returns the occupied column bytes for a runtime type: size*Len
// bytes starting at the column offset. It panics when the type is not
// stored; use TryRawColumn to check first.
func (c *Chunk) RawColumn(id TypeID, size uintptr) []byte {
	b, ok := c.TryRawColumn(id, size)
	if !ok {
		panic(bark.AddTrace(MissingColumnError{TypeID: id}))
	}
	return b
}

// TryRawColumn returns the occupied column bytes for a runtime type, or
// false when the type is not stored in this chunk.
func (c *Chunk) TryRawColumn(id TypeID, size uintptr) ([]byte, bool) {
	col, ok := c.layout.column(id)
	if !ok {
		return nil, false
	}
	return unsafe.Slice((*byte)(c.columnPtr(col)), size*uintptr(c.len)), true
}

// release destructs every occupied component and detaches the buffer.
// The id column needs no destruction.
func (c *Chunk) release() {
	for _, m := range c.layout.Set().Metas() {
		col, _ := c.layout.column(m.ID())
		ptr := c.columnPtr(col)
		for i := 0; i < c.len; i++ {
			m.Drop(unsafe.Add(ptr, uintptr(i)*m.Size()))
		}
	}
	c.len = 0
	c.data = nil
}
