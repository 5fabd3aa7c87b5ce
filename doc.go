/*
Package pallet provides chunked, archetype-based storage for entities and
their components.

Entities sharing the same exact set of component types live together in an
archetype, whose storage is a list of fixed-budget (~16KB) chunks. Each chunk
packs an entity-id column followed by one densely packed, aligned column per
component type, which keeps per-type iteration cache friendly. Removals swap
the last occupied slot into the vacated one, so chunks never fragment.

Core Concepts:

  - Entity: A unique 64-bit identifier that represents a game object.
  - TypeMeta: A component type's size, alignment, destructor, and stable id.
  - Archetype: The chunked storage for one exact component set.
  - Chunk: One fixed-budget allocation of ids and component columns.
  - Scene: The facade that spawns, despawns, mutates, and locates entities.

Basic Usage:

	// Create a scene
	scene := pallet.Factory.NewScene()

	// Define components
	position := pallet.FactoryNewComponent[Position]()
	velocity := pallet.FactoryNewComponent[Velocity]()

	// Spawn an entity
	ent, _ := scene.Spawn(
		position.With(Position{X: 1, Y: 2}),
		velocity.With(Velocity{X: 0, Y: -1}),
	)

	// Read or mutate a component in place
	if pos, ok := pallet.Get[Position](scene, ent); ok {
		pos.X += 1
	}

	// Iterate every (Position, Velocity) chunk column-wise
	cursor := pallet.Factory.NewCursor(scene, position, velocity)
	for chunk := range cursor.Chunks() {
		ps := pallet.Components[Position](chunk)
		vs := pallet.Components[Velocity](chunk)
		for i := range ps {
			ps[i].X += vs[i].X
			ps[i].Y += vs[i].Y
		}
	}
	_ = ent

The scene is a single-writer structure: iteration locks it, and mutations
made while locked must go through the Enqueue variants, which apply once the
last lock drops.

Component values live in raw byte columns that the garbage collector does
not scan. Component types should be plain data; a component holding a
pointer or string must have its referent kept reachable elsewhere for the
value's lifetime.

Pallet is the storage core underneath higher-level ECS layers but also works
as a standalone library.
*/
package pallet
