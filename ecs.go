package gekkofx

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

type EntityId uint64

// Ecs keeps one store per component type. Components are held by pointer so the
// pointers handed out by queries stay valid until the component is removed.
// Entity ids are allocated monotonically and iterated in ascending order, which
// keeps every query deterministic across runs.
type Ecs struct {
	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	entities []EntityId
	stores   map[reflect.Type]map[EntityId]any
}

func MakeEcs() Ecs {
	return Ecs{
		stores: make(map[reflect.Type]map[EntityId]any),
	}
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter += 1

	return id
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	if i, found := slices.BinarySearch(ecs.entities, entityId); !found {
		ecs.entities = slices.Insert(ecs.entities, i, entityId)
	}
	ecs.addComponents(entityId, components...)
	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, found := slices.BinarySearch(ecs.entities, entityId)
	return found
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	i, found := slices.BinarySearch(ecs.entities, entityId)
	if !found {
		return
	}
	ecs.entities = slices.Delete(ecs.entities, i, i+1)
	for _, store := range ecs.stores {
		delete(store, entityId)
	}
}

// addComponents replaces components of the same type already on the entity.
// Adding to an entity that no longer exists is a no-op.
func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	if !ecs.hasEntity(entityId) {
		return
	}
	for _, component := range components {
		componentType, ptr := componentPointer(component)
		store, ok := ecs.stores[componentType]
		if !ok {
			store = make(map[EntityId]any)
			ecs.stores[componentType] = store
		}
		store[entityId] = ptr
	}
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	for _, component := range components {
		if store, ok := ecs.stores[componentType(component)]; ok {
			delete(store, entityId)
		}
	}
}

func (ecs *Ecs) component(entityId EntityId, componentType reflect.Type) (any, bool) {
	store, ok := ecs.stores[componentType]
	if !ok {
		return nil, false
	}
	ptr, ok := store[entityId]
	return ptr, ok
}

// allComponents returns the entity's components by value, ordered by type name.
func (ecs *Ecs) allComponents(entityId EntityId) []any {
	var types []reflect.Type
	for t, store := range ecs.stores {
		if _, ok := store[entityId]; ok {
			types = append(types, t)
		}
	}
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return strings.Compare(a.String(), b.String())
	})

	res := make([]any, 0, len(types))
	for _, t := range types {
		res = append(res, reflect.ValueOf(ecs.stores[t][entityId]).Elem().Interface())
	}
	return res
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// componentPointer takes ownership of pointer components and copies value
// components to the heap.
func componentPointer(component any) (reflect.Type, any) {
	t := reflect.TypeOf(component)
	if t == nil {
		panic("component should not be nil")
	}
	if t.Kind() == reflect.Pointer {
		if t.Elem().Kind() != reflect.Struct {
			panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", t))
		}
		return t.Elem(), component
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", t))
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(component))
	return t, ptr.Interface()
}
