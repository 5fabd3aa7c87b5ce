package pallet

// factory implements the factory pattern for pallet components.
type factory struct{}

// Factory is the global factory instance for creating pallet components.
var Factory factory

// NewScene creates an empty Scene.
func (f factory) NewScene() Scene {
	return newScene()
}

// NewCursor creates a cursor over every archetype in the scene containing
// the given components.
func (f factory) NewCursor(scn Scene, components ...Component) *Cursor {
	return newCursor(scn, components...)
}

// FactoryNewComponent registers (or fetches) the component type T and
// returns its typed accessor.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{meta: MetaOf[T]()}
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
