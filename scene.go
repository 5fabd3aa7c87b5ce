package pallet

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// Ensure scene implements Scene interface
var _ Scene = &scene{}

// scene implements the Scene interface
type scene struct {
	entities    *EntityMap
	archetypes  *ArchetypeMap
	locks       mask.Mask256
	cursorLocks int
	queue       EntityOperationsQueue
}

func newScene() Scene {
	return &scene{
		entities:   newEntityMap(),
		archetypes: newArchetypeMap(),
		queue:      &entityOperationsQueue{},
	}
}

// Spawn creates one entity with the given components and returns it
func (s *scene) Spawn(components ...Component) (Entity, error) {
	if s.Locked() {
		return Entity{}, LockedSceneError{}
	}
	set, err := componentSetOf(components)
	if err != nil {
		return Entity{}, err
	}
	arch, err := s.archetypes.GetOrInsert(set)
	if err != nil {
		return Entity{}, err
	}

	ent := ReserveEntities(1)
	s.spawnInto(arch, ent, components)
	return ent, nil
}

// SpawnN creates n entities with the same components, reserving their ids
// in one consecutive block
func (s *scene) SpawnN(n int, components ...Component) ([]Entity, error) {
	if s.Locked() {
		return nil, LockedSceneError{}
	}
	if n <= 0 {
		return nil, nil
	}
	set, err := componentSetOf(components)
	if err != nil {
		return nil, err
	}
	arch, err := s.archetypes.GetOrInsert(set)
	if err != nil {
		return nil, err
	}

	first := ReserveEntities(uint64(n))
	entities := make([]Entity, n)
	for i := range entities {
		ent := EntityFromID(first.ID() + EntityID(i))
		s.spawnInto(arch, ent, components)
		entities[i] = ent
	}
	return entities, nil
}

// spawnInto reserves a slot, initializes every column, and records the
// location. Insert leaves the slot uninitialized, so the component list
// must cover the archetype's whole set.
func (s *scene) spawnInto(arch *Archetype, ent Entity, components []Component) {
	loc := arch.Insert(ent.ID())
	writeComponents(arch, loc, components)
	s.entities.Insert(ent, loc)
}

// writeComponents initializes the named columns at loc: valued components
// move their bytes in, bare components zero theirs
func writeComponents(arch *Archetype, loc EntityLocation, components []Component) {
	chunk := arch.chunks[loc.Chunk]
	for _, c := range components {
		col, ok := arch.layout.column(c.Meta().ID())
		if !ok {
			panic(bark.AddTrace(MissingColumnError{TypeID: c.Meta().ID()}))
		}
		dst := chunk.slotBytes(col, int(loc.Slot))
		if vc, ok := c.(ValuedComponent); ok {
			vc.CopyTo(dst)
		} else {
			clear(dst)
		}
	}
}

// Despawn removes an entity, destructing its components. It returns false
// for entities not in this scene.
func (s *scene) Despawn(e Entity) (bool, error) {
	if s.Locked() {
		return false, LockedSceneError{}
	}
	loc := s.entities.Get(e)
	if loc.IsNull() {
		return false, nil
	}

	arch := s.archetypes.At(loc.Archetype)
	if moved, ok := arch.Remove(loc, true); ok {
		// the previous last entity now lives in the vacated slot
		s.entities.Insert(EntityFromID(moved), loc)
	}
	s.entities.Remove(e)
	return true, nil
}

// Add attaches components to a live entity. Types the entity already has
// are overwritten in place; genuinely new types migrate the entity to the
// archetype for the union set, moving its existing component bytes without
// destructing them. Returns false for entities not in this scene.
func (s *scene) Add(e Entity, components ...Component) (bool, error) {
	if s.Locked() {
		return false, LockedSceneError{}
	}
	loc := s.entities.Get(e)
	if loc.IsNull() {
		return false, nil
	}

	oldArch := s.archetypes.At(loc.Archetype)
	chunk := oldArch.chunks[loc.Chunk]

	// Overwrite already-present types in place: destruct the current value,
	// then write the replacement. Whatever remains is genuinely new.
	var fresh []Component
	for _, c := range components {
		col, ok := oldArch.layout.column(c.Meta().ID())
		if !ok {
			fresh = append(fresh, c)
			continue
		}
		dst := chunk.slotBytes(col, int(loc.Slot))
		c.Meta().Drop(unsafe.Pointer(unsafe.SliceData(dst)))
		if vc, ok := c.(ValuedComponent); ok {
			vc.CopyTo(dst)
		} else {
			clear(dst)
		}
	}
	if len(fresh) == 0 {
		return true, nil
	}

	oldMetas := oldArch.layout.Set().Metas()
	union := make([]TypeMeta, 0, len(oldMetas)+len(fresh))
	union = append(union, oldMetas...)
	for _, c := range fresh {
		union = append(union, c.Meta())
	}
	set, err := NewComponentSet(union...)
	if err != nil {
		return false, err
	}

	newArch, err := s.archetypes.GetOrInsert(set)
	if err != nil {
		return false, err
	}
	// refetch by index: the registry may have grown
	oldArch = s.archetypes.At(loc.Archetype)

	newLoc := newArch.Insert(e.ID())
	oldArch.moveTo(loc, newArch, newLoc)
	writeComponents(newArch, newLoc, fresh)

	if moved, ok := oldArch.Remove(loc, false); ok {
		s.entities.Insert(EntityFromID(moved), loc)
	}
	s.entities.Insert(e, newLoc)
	return true, nil
}

// Contains reports whether the entity is alive in this scene
func (s *scene) Contains(e Entity) bool {
	return s.entities.Contains(e)
}

// Location returns the entity's storage location, or NullLocation
func (s *scene) Location(e Entity) EntityLocation {
	return s.entities.Get(e)
}

// GetDyn returns the entity's raw component bytes for a runtime type
func (s *scene) GetDyn(e Entity, meta TypeMeta) ([]byte, bool) {
	loc := s.entities.Get(e)
	if loc.IsNull() {
		return nil, false
	}
	return s.archetypes.At(loc.Archetype).GetDyn(loc, meta)
}

// Archetype returns the archetype for a component set without creating it
func (s *scene) Archetype(components ...Component) (*Archetype, bool) {
	set, err := componentSetOf(components)
	if err != nil {
		return nil, false
	}
	return s.archetypes.Get(set)
}

// ArchetypeAt returns the archetype at a stable index
func (s *scene) ArchetypeAt(index uint32) *Archetype {
	return s.archetypes.At(index)
}

// Archetypes returns all archetypes in this scene
func (s *scene) Archetypes() []*Archetype {
	return s.archetypes.All()
}

// EntityCount returns the number of live entities
func (s *scene) EntityCount() int {
	return s.entities.Len()
}

// Locked checks if the scene is currently locked
func (s *scene) Locked() bool {
	return !s.locks.IsEmpty() || s.cursorLocks > 0
}

func (s *scene) AddLock(bit uint32) {
	s.locks.Mark(bit)
}

// RemoveLock releases a specific bit lock and processes queued operations
// if fully unlocked
func (s *scene) RemoveLock(bit uint32) {
	s.locks.Unmark(bit)
	s.drainIfUnlocked()
}

func (s *scene) pushLock() {
	s.cursorLocks++
}

func (s *scene) popLock() {
	s.cursorLocks--
	s.drainIfUnlocked()
}

func (s *scene) drainIfUnlocked() {
	if s.Locked() {
		return
	}
	if err := s.queue.ProcessAll(s); err != nil {
		panic(fmt.Errorf("error processing queued operations: %w", err))
	}
}

// EnqueueSpawn creates entities immediately or queues creation while locked
func (s *scene) EnqueueSpawn(n int, components ...Component) error {
	if !s.Locked() {
		_, err := s.SpawnN(n, components...)
		if err != nil {
			return fmt.Errorf("failed to create entities directly: %w", err)
		}
		return nil
	}
	s.queue.Enqueue(SpawnOperation{count: n, components: components})
	return nil
}

// EnqueueDespawn despawns immediately or queues the despawn while locked
func (s *scene) EnqueueDespawn(e Entity) error {
	if !s.Locked() {
		_, err := s.Despawn(e)
		return err
	}
	s.queue.Enqueue(DespawnOperation{entity: e})
	return nil
}

// EnqueueAdd adds components immediately or queues the addition while locked
func (s *scene) EnqueueAdd(e Entity, components ...Component) error {
	if !s.Locked() {
		_, err := s.Add(e, components...)
		return err
	}
	s.queue.Enqueue(AddComponentOperation{entity: e, components: components})
	return nil
}

// Enqueue adds an operation to the deferred queue
func (s *scene) Enqueue(op EntityOperation) {
	s.queue.Enqueue(op)
}

// Release destructs every occupied slot exactly once and detaches all chunk
// buffers. The scene must not be used afterwards.
func (s *scene) Release() {
	for _, arch := range s.archetypes.All() {
		arch.release()
	}
	s.entities = newEntityMap()
}

// Get returns a pointer to the entity's component of type T, or false when
// the entity is absent or does not carry T. The pointer references chunk
// storage directly: it is invalidated by any remove in the same chunk.
func Get[T any](s Scene, e Entity) (*T, bool) {
	loc := s.Location(e)
	if loc.IsNull() {
		return nil, false
	}
	chunk := s.ArchetypeAt(loc.Archetype).Chunks()[loc.Chunk]
	col, ok := TryComponents[T](chunk)
	if !ok {
		return nil, false
	}
	return &col[loc.Slot], true
}

// Has reports whether the entity carries a component of type T
func Has[T any](s Scene, e Entity) bool {
	_, ok := Get[T](s, e)
	return ok
}
