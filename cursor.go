package pallet

import (
	"iter"

	"github.com/TheBitDrifter/mask"
)

// Cursor provides iteration over the chunks of every archetype whose layout
// contains a given component set. It locks its scene while iterating;
// mutations attempted mid-iteration fail or must be enqueued.
type Cursor struct {
	scene      Scene
	components []Component

	matchedChunks []*Chunk
	chunkIndex    int
	entityIndex   int
	remaining     int
	currentChunk  *Chunk

	initialized bool
}

// newCursor creates a cursor over archetypes containing the given components
func newCursor(scn Scene, components ...Component) *Cursor {
	return &Cursor{
		scene:      scn,
		components: components,
	}
}

// Next advances to the next entity and returns whether one exists
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

// advance moves to the next chunk with entities
func (c *Cursor) advance() bool {
	if !c.initialized {
		c.Initialize()
	}

	for c.chunkIndex < len(c.matchedChunks) {
		c.currentChunk = c.matchedChunks[c.chunkIndex]
		c.remaining = c.currentChunk.Len()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.chunkIndex++
		c.entityIndex = 0
	}

	c.Reset()
	return false
}

// Entities returns an iterator sequence over (slot, chunk) pairs for every
// matched entity
func (c *Cursor) Entities() iter.Seq2[int, *Chunk] {
	return func(yield func(int, *Chunk) bool) {
		c.Initialize()

		for c.chunkIndex < len(c.matchedChunks) {
			c.currentChunk = c.matchedChunks[c.chunkIndex]
			c.remaining = c.currentChunk.Len()

			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, c.currentChunk) {
					c.Reset()
					return
				}
				c.entityIndex++
			}

			c.entityIndex = 0
			c.chunkIndex++
		}

		c.Reset()
	}
}

// Chunks returns an iterator sequence over the matched non-empty chunks
func (c *Cursor) Chunks() iter.Seq[*Chunk] {
	return func(yield func(*Chunk) bool) {
		c.Initialize()

		for c.chunkIndex < len(c.matchedChunks) {
			chunk := c.matchedChunks[c.chunkIndex]
			c.chunkIndex++
			if chunk.Len() == 0 {
				continue
			}
			if !yield(chunk) {
				c.Reset()
				return
			}
		}

		c.Reset()
	}
}

// Initialize locks the scene and collects the chunks of every matching
// archetype
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}

	c.scene.pushLock()

	var queryMask mask.Mask
	for _, cmp := range c.components {
		queryMask.Mark(cmp.Meta().Row())
	}

	c.matchedChunks = c.matchedChunks[:0]
	for _, arch := range c.scene.Archetypes() {
		archMask := arch.Layout().Mask()
		if archMask.ContainsAll(queryMask) {
			c.matchedChunks = append(c.matchedChunks, arch.Chunks()...)
		}
	}

	if len(c.matchedChunks) > 0 {
		c.chunkIndex = 0
		c.currentChunk = c.matchedChunks[0]
		c.remaining = c.currentChunk.Len()
	}

	c.initialized = true
}

// Reset clears cursor state and releases the scene lock
func (c *Cursor) Reset() {
	c.chunkIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.currentChunk = nil
	c.matchedChunks = nil
	c.initialized = false
	c.scene.popLock()
}

// CurrentChunk returns the chunk at the current cursor position
func (c *Cursor) CurrentChunk() *Chunk {
	return c.currentChunk
}

// CurrentEntity returns the entity at the current cursor position
func (c *Cursor) CurrentEntity() Entity {
	return EntityFromID(c.currentChunk.Entities()[c.entityIndex-1])
}

// EntityIndex returns the cursor's position within the current chunk. After
// Next it is one past the current entity's slot.
func (c *Cursor) EntityIndex() int {
	return c.entityIndex
}

// RemainingInChunk returns the number of entities left in the current chunk
func (c *Cursor) RemainingInChunk() int {
	return c.remaining - c.entityIndex
}

// TotalMatched returns the total number of entities matching the cursor
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}

	total := 0
	for _, chunk := range c.matchedChunks {
		total += chunk.Len()
	}

	c.Reset()
	return total
}
