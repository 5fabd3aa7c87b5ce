package pallet

import (
	"encoding/binary"
	"reflect"
	"slices"
	"sync"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// TypeID is the unique identifier of a component type. Ids are stable within
// one process and bijective with types: two distinct component types never
// share an id, and identical ids always mean the same type.
type TypeID uint64

// DropFn destructs one component instance given a pointer to it. On return
// the memory is uninitialized from the type's perspective. The engine calls
// it for every destructed instance, trivial or not.
type DropFn func(ptr unsafe.Pointer)

// TypeMeta carries the size, alignment, destructor, and stable id of one
// component type. It is the unit a chunk layout is computed from.
type TypeMeta struct {
	id    TypeID
	size  uintptr
	align uintptr
	drop  DropFn
	row   uint32
}

// ID returns the type's unique identifier
func (m TypeMeta) ID() TypeID {
	return m.id
}

// Size returns the size, in bytes, of the type
func (m TypeMeta) Size() uintptr {
	return m.size
}

// Alignment returns the alignment, in bytes, of the type
func (m TypeMeta) Alignment() uintptr {
	return m.align
}

// Row returns the type's mask bit, assigned at registration
func (m TypeMeta) Row() uint32 {
	return m.row
}

// Drop destructs the instance at ptr. The pointer must reference a valid,
// correctly aligned instance of this type.
func (m TypeMeta) Drop(ptr unsafe.Pointer) {
	m.drop(ptr)
}

// less is the canonical type ordering: alignment descending so the widest
// columns lead the chunk and minimize padding, id ascending as tiebreaker.
func (m TypeMeta) less(other TypeMeta) bool {
	if m.align != other.align {
		return m.align > other.align
	}
	return m.id < other.id
}

// registrar assigns ids and mask rows process-wide. Both the generic and the
// dynamic registration paths go through it, so identical ids always resolve
// to the same descriptor.
type registrar struct {
	mu      sync.Mutex
	byType  map[reflect.Type]TypeMeta
	byID    map[TypeID]TypeMeta
	nextID  TypeID
	nextRow uint32
}

var globalRegistrar = &registrar{
	byType: make(map[reflect.Type]TypeMeta),
	byID:   make(map[TypeID]TypeMeta),
	nextID: 1,
}

// MetaOf returns the descriptor for a compile-time component type,
// registering it on first use. The drop fn zeroes the instance's bytes.
func MetaOf[T any]() TypeMeta {
	t := reflect.TypeFor[T]()

	globalRegistrar.mu.Lock()
	defer globalRegistrar.mu.Unlock()

	if m, ok := globalRegistrar.byType[t]; ok {
		return m
	}

	size := t.Size()
	m := globalRegistrar.register(globalRegistrar.claimID(), size, uintptr(t.Align()), zeroDrop(size))
	globalRegistrar.byType[t] = m
	return m
}

// RegisterDynamicMeta registers (or fetches) a descriptor for a
// runtime-defined component type under a host-supplied id. A nil drop falls
// back to zeroing the instance.
func RegisterDynamicMeta(id TypeID, size, align uintptr, drop DropFn) (TypeMeta, error) {
	if size == 0 {
		return TypeMeta{}, InvalidMetaError{Reason: "size must be nonzero"}
	}
	if align == 0 || align&(align-1) != 0 {
		return TypeMeta{}, InvalidMetaError{Reason: "alignment must be a power of two"}
	}

	globalRegistrar.mu.Lock()
	defer globalRegistrar.mu.Unlock()

	if m, ok := globalRegistrar.byID[id]; ok {
		return m, nil
	}
	if drop == nil {
		drop = zeroDrop(size)
	}
	return globalRegistrar.register(id, size, align, drop), nil
}

// claimID finds the next auto id not taken by a dynamic registration.
// Callers must hold the lock.
func (r *registrar) claimID() TypeID {
	for {
		id := r.nextID
		r.nextID++
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

// register stores a new descriptor under the given id and claims its mask
// row. Callers must hold the lock.
func (r *registrar) register(id TypeID, size, align uintptr, drop DropFn) TypeMeta {
	if r.nextRow >= Config.MaxComponentTypes() {
		panic(bark.AddTrace(InvalidMetaError{Reason: "component type limit reached"}))
	}
	m := TypeMeta{
		id:    id,
		size:  size,
		align: align,
		drop:  drop,
		row:   r.nextRow,
	}
	r.nextRow++
	r.byID[id] = m
	return m
}

// zeroDrop destructs an instance by clearing its bytes
func zeroDrop(size uintptr) DropFn {
	return func(ptr unsafe.Pointer) {
		if size == 0 {
			return
		}
		clear(unsafe.Slice((*byte)(ptr), size))
	}
}

// ComponentSet is a canonicalized, duplicate-free sequence of type
// descriptors. Two sets with identical membership produce byte-identical
// keys, which is what makes them usable as the archetype registry key.
type ComponentSet struct {
	metas []TypeMeta
	key   string
	types mask.Mask
}

// NewComponentSet canonicalizes the given descriptors: sorted by
// (alignment DESC, id ASC) with duplicates rejected.
func NewComponentSet(metas ...TypeMeta) (ComponentSet, error) {
	sorted := make([]TypeMeta, len(metas))
	copy(sorted, metas)
	slices.SortFunc(sorted, func(a, b TypeMeta) int {
		if a.less(b) {
			return -1
		}
		if b.less(a) {
			return 1
		}
		return 0
	})

	var types mask.Mask
	keyBuf := make([]byte, 0, 8*len(sorted))
	for i, m := range sorted {
		if i > 0 && sorted[i-1].id == m.id {
			return ComponentSet{}, DuplicateComponentError{Meta: m}
		}
		types.Mark(m.row)
		keyBuf = binary.LittleEndian.AppendUint64(keyBuf, uint64(m.id))
	}

	return ComponentSet{
		metas: sorted,
		key:   string(keyBuf),
		types: types,
	}, nil
}

// componentSetOf builds the canonical set for a component argument list
func componentSetOf(components []Component) (ComponentSet, error) {
	metas := make([]TypeMeta, len(components))
	for i, c := range components {
		metas[i] = c.Meta()
	}
	return NewComponentSet(metas...)
}

// Metas returns the descriptors in canonical order. The slice is shared and
// must not be mutated.
func (s ComponentSet) Metas() []TypeMeta {
	return s.metas
}

// Key returns the registry key: the sorted id sequence packed into a string
func (s ComponentSet) Key() string {
	return s.key
}

// Mask returns the set's component mask
func (s ComponentSet) Mask() mask.Mask {
	return s.types
}

// Len returns the number of component types in the set
func (s ComponentSet) Len() int {
	return len(s.metas)
}
