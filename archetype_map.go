package pallet

// ArchetypeMap maps canonical component sets to archetypes. The archetype
// list only ever grows, so an index stored anywhere — the entity map, a
// host-side cache — stays a valid handle for the scene's lifetime.
type ArchetypeMap struct {
	cache *SimpleCache[*Archetype]
}

func newArchetypeMap() *ArchetypeMap {
	return &ArchetypeMap{
		cache: &SimpleCache[*Archetype]{
			itemIndices: make(map[string]int),
			maxCapacity: Config.MaxArchetypes(),
		},
	}
}

// GetOrInsert returns the archetype for a component set, building its
// layout and registering it on first demand
func (m *ArchetypeMap) GetOrInsert(set ComponentSet) (*Archetype, error) {
	if index, ok := m.cache.GetIndex(set.Key()); ok {
		return *m.cache.GetItem(index), nil
	}

	layout, err := newChunkLayout(set)
	if err != nil {
		return nil, err
	}
	created := newArchetype(uint32(m.cache.Len()), layout)
	if _, err := m.cache.Register(set.Key(), created); err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the archetype for a component set without creating it
func (m *ArchetypeMap) Get(set ComponentSet) (*Archetype, bool) {
	index, ok := m.cache.GetIndex(set.Key())
	if !ok {
		return nil, false
	}
	return *m.cache.GetItem(index), true
}

// At returns the archetype at a stable index
func (m *ArchetypeMap) At(index uint32) *Archetype {
	return *m.cache.GetItem32(index)
}

// All returns every archetype in id order
func (m *ArchetypeMap) All() []*Archetype {
	return m.cache.Items()
}

// Len returns the number of archetypes
func (m *ArchetypeMap) Len() int {
	return m.cache.Len()
}
