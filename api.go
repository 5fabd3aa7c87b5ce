package pallet

// Component identifies one component type in spawn, add, and cursor
// arguments. Implementations that also carry a value implement
// ValuedComponent; a bare Component initializes its column to zero.
type Component interface {
	Meta() TypeMeta
}

// ValuedComponent is a component argument carrying an initial value.
// CopyTo moves the value's bytes into the destination column slot, which is
// exactly the component's size.
type ValuedComponent interface {
	Component
	CopyTo(dst []byte)
}

// Scene is the top-level facade over one entity map and one archetype map.
// It is a single-writer structure: mutating operations require exclusive
// access and are rejected while locks are held, with Enqueue variants
// deferring them until the last lock drops.
type Scene interface {
	Spawn(components ...Component) (Entity, error)
	SpawnN(n int, components ...Component) ([]Entity, error)
	Despawn(entity Entity) (bool, error)
	Add(entity Entity, components ...Component) (bool, error)

	Contains(entity Entity) bool
	Location(entity Entity) EntityLocation
	GetDyn(entity Entity, meta TypeMeta) ([]byte, bool)

	Archetype(components ...Component) (*Archetype, bool)
	ArchetypeAt(index uint32) *Archetype
	Archetypes() []*Archetype
	EntityCount() int

	Locked() bool
	AddLock(bit uint32)
	RemoveLock(bit uint32)

	EnqueueSpawn(n int, components ...Component) error
	EnqueueDespawn(entity Entity) error
	EnqueueAdd(entity Entity, components ...Component) error
	Enqueue(op EntityOperation)

	Release()

	pushLock()
	popLock()
}

// Cache is a bounded string-keyed item store with stable indices
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
}
