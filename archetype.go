package pallet

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// Archetype owns the storage for every entity sharing one exact component
// set: a shared chunk layout, an append-only chunk list, and the set of
// chunk indices with vacant slots. Chunk indices are stable for the scene's
// lifetime; chunks are never removed.
type Archetype struct {
	id     uint32
	layout *ChunkLayout
	chunks []*Chunk
	free   map[int]struct{}
}

func newArchetype(id uint32, layout *ChunkLayout) *Archetype {
	return &Archetype{
		id:     id,
		layout: layout,
		free:   make(map[int]struct{}),
	}
}

// ID returns this archetype's index in the scene's archetype list
func (a *Archetype) ID() uint32 {
	return a.id
}

// Layout returns the shared chunk layout
func (a *Archetype) Layout() *ChunkLayout {
	return a.layout
}

// Chunks returns the archetype's chunks for downstream iteration
func (a *Archetype) Chunks() []*Chunk {
	return a.chunks
}

// newChunk appends an empty chunk and marks it free, returning its index
func (a *Archetype) newChunk() int {
	index := len(a.chunks)
	a.chunks = append(a.chunks, newChunk(a.layout))
	a.free[index] = struct{}{}
	return index
}

// Insert places an entity id into any chunk with room, allocating a chunk
// when none has any. The returned slot's component columns are left
// uninitialized: the caller must write every column before any read.
func (a *Archetype) Insert(id EntityID) EntityLocation {
	index := -1
	for free := range a.free {
		index = free
		break
	}
	if index < 0 {
		index = a.newChunk()
	}

	chunk := a.chunks[index]
	slot := chunk.len
	chunk.idColumn()[slot] = id
	chunk.len++
	if chunk.len == a.layout.Capacity() {
		delete(a.free, index)
	}

	return EntityLocation{
		Archetype: a.id,
		Chunk:     uint32(index),
		Slot:      uint32(slot),
	}
}

// Remove takes the entity at loc out of its chunk, keeping the chunk packed
// by moving the last occupied slot into the vacated one. It returns the id
// of the entity whose location changed as a side effect, if any, so the
// caller can repoint its directory entry.
//
// With drop true the removed entity's components are destructed; with drop
// false their bytes must already have been moved elsewhere (ownership
// transferred, as in a cross-archetype move).
func (a *Archetype) Remove(loc EntityLocation, drop bool) (EntityID, bool) {
	if loc.Archetype != a.id {
		panic(bark.AddTrace(ForeignLocationError{Location: loc, Archetype: a.id}))
	}

	chunk := a.chunks[loc.Chunk]
	slot := int(loc.Slot)
	last := chunk.len - 1

	if drop {
		for _, m := range a.layout.Set().Metas() {
			col, _ := a.layout.column(m.ID())
			b := chunk.slotBytes(col, slot)
			m.Drop(unsafe.Pointer(unsafe.SliceData(b)))
		}
	}

	var moved EntityID
	ok := false
	if slot != last {
		ids := chunk.idColumn()
		moved = ids[last]
		ids[slot] = moved
		for _, m := range a.layout.Set().Metas() {
			col, _ := a.layout.column(m.ID())
			copy(chunk.slotBytes(col, slot), chunk.slotBytes(col, last))
		}
		ok = true
	}

	chunk.len--
	a.free[int(loc.Chunk)] = struct{}{}
	return moved, ok
}

// SetDyn writes raw component bytes at loc for a runtime type. The data
// length must equal the type's size and the type must be stored here.
func (a *Archetype) SetDyn(loc EntityLocation, meta TypeMeta, data []byte) {
	col, ok := a.layout.column(meta.ID())
	if !ok {
		panic(bark.AddTrace(MissingColumnError{TypeID: meta.ID()}))
	}
	if uintptr(len(data)) != meta.Size() {
		panic(bark.AddTrace(InvalidMetaError{Reason: "component data size mismatch"}))
	}
	copy(a.chunks[loc.Chunk].slotBytes(col, int(loc.Slot)), data)
}

// GetDyn returns the raw component bytes at loc for a runtime type, or
// false when the type is not stored here
func (a *Archetype) GetDyn(loc EntityLocation, meta TypeMeta) ([]byte, bool) {
	col, ok := a.layout.column(meta.ID())
	if !ok {
		return nil, false
	}
	return a.chunks[loc.Chunk].slotBytes(col, int(loc.Slot)), true
}

// moveTo byte-copies every column of this archetype's layout from src to
// dst, which must store a superset of the types. Destructors are not run:
// ownership transfers with the bytes.
func (a *Archetype) moveTo(src EntityLocation, target *Archetype, dst EntityLocation) {
	srcChunk := a.chunks[src.Chunk]
	dstChunk := target.chunks[dst.Chunk]
	for _, m := range a.layout.Set().Metas() {
		srcCol, _ := a.layout.column(m.ID())
		dstCol, ok := target.layout.column(m.ID())
		if !ok {
			panic(bark.AddTrace(MissingColumnError{TypeID: m.ID()}))
		}
		copy(dstChunk.slotBytes(dstCol, int(dst.Slot)), srcChunk.slotBytes(srcCol, int(src.Slot)))
	}
}

// release destructs every chunk in order
func (a *Archetype) release() {
	for _, chunk := range a.chunks {
		chunk.release()
	}
}
