package pallet

import "unsafe"

// AccessibleComponent binds a registered component type to typed accessors.
// It is usable directly as a spawn/add argument (the column is zeroed) or
// via With to carry an initial value.
type AccessibleComponent[T any] struct {
	meta TypeMeta
}

// Meta returns the component's type descriptor
func (c AccessibleComponent[T]) Meta() TypeMeta {
	return c.meta
}

// With returns a component argument that moves the given value into the
// column on spawn or add
func (c AccessibleComponent[T]) With(value T) Component {
	return valuedComponent[T]{meta: c.meta, value: value}
}

// GetFromCursor retrieves the component value for the entity at the cursor
// position
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return &Components[T](cursor.currentChunk)[cursor.entityIndex-1]
}

// GetFromCursorSafe safely retrieves the component value, checking that the
// component exists in the current chunk first
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if c.CheckCursor(cursor) {
		return true, c.GetFromCursor(cursor)
	}
	return false, nil
}

// CheckCursor determines if the component exists in the chunk at the cursor
// position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return cursor.currentChunk.Layout().Contains(c.meta.ID())
}

// GetFromScene retrieves the component value for the given entity
func (c AccessibleComponent[T]) GetFromScene(scn Scene, e Entity) (*T, bool) {
	return Get[T](scn, e)
}

// valuedComponent carries a concrete value into a column write
type valuedComponent[T any] struct {
	meta  TypeMeta
	value T
}

func (c valuedComponent[T]) Meta() TypeMeta {
	return c.meta
}

func (c valuedComponent[T]) CopyTo(dst []byte) {
	src := unsafe.Slice((*byte)(unsafe.Pointer(&c.value)), c.meta.Size())
	copy(dst, src)
}

// DynamicComponent is a component argument for a runtime-registered type,
// carrying its value as raw bytes
type DynamicComponent struct {
	meta TypeMeta
	data []byte
}

// NewDynamicComponent wraps raw component bytes for spawn/add. The data
// length must equal the type's size.
func NewDynamicComponent(meta TypeMeta, data []byte) (DynamicComponent, error) {
	if uintptr(len(data)) != meta.Size() {
		return DynamicComponent{}, InvalidMetaError{Reason: "component data size mismatch"}
	}
	return DynamicComponent{meta: meta, data: data}, nil
}

// Meta returns the component's type descriptor
func (c DynamicComponent) Meta() TypeMeta {
	return c.meta
}

func (c DynamicComponent) CopyTo(dst []byte) {
	copy(dst, c.data)
}
