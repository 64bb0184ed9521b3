package gekkofx

import (
	"reflect"
)

// Queries visit every entity that has all the queried components, in ascending
// entity id order. A component type passed as an optional may be missing, in
// which case the callback receives nil for it. Returning false from the callback
// stops the walk.
type Query1[A any] struct{ filter queryFilter }
type Query2[A, B any] struct{ filter queryFilter }
type Query3[A, B, C any] struct{ filter queryFilter }
type Query4[A, B, C, D any] struct{ filter queryFilter }

type queryFilter struct {
	ecs     *Ecs
	without []reflect.Type
}

func MakeQuery1[A any](cmd *Commands) Query1[A] {
	return Query1[A]{filter: queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] {
	return Query2[A, B]{filter: queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{filter: queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{filter: queryFilter{ecs: cmd.app.ecs}}
}

// Without skips entities carrying any of the given component types.
func (q Query1[A]) Without(components ...any) Query1[A] {
	q.filter = q.filter.exclude(components)
	return q
}
func (q Query2[A, B]) Without(components ...any) Query2[A, B] {
	q.filter = q.filter.exclude(components)
	return q
}
func (q Query3[A, B, C]) Without(components ...any) Query3[A, B, C] {
	q.filter = q.filter.exclude(components)
	return q
}
func (q Query4[A, B, C, D]) Without(components ...any) Query4[A, B, C, D] {
	q.filter = q.filter.exclude(components)
	return q
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	opt := identifyOptionals(optionals...)
	for _, eid := range q.filter.ecs.entities {
		if q.filter.excluded(eid) {
			continue
		}
		a, ok := lookup[A](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		if !m(eid, a) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	opt := identifyOptionals(optionals...)
	for _, eid := range q.filter.ecs.entities {
		if q.filter.excluded(eid) {
			continue
		}
		a, ok := lookup[A](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		b, ok := lookup[B](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		if !m(eid, a, b) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	opt := identifyOptionals(optionals...)
	for _, eid := range q.filter.ecs.entities {
		if q.filter.excluded(eid) {
			continue
		}
		a, ok := lookup[A](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		b, ok := lookup[B](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		c, ok := lookup[C](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		if !m(eid, a, b, c) {
			return
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	opt := identifyOptionals(optionals...)
	for _, eid := range q.filter.ecs.entities {
		if q.filter.excluded(eid) {
			continue
		}
		a, ok := lookup[A](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		b, ok := lookup[B](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		c, ok := lookup[C](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		d, ok := lookup[D](q.filter.ecs, eid, opt)
		if !ok {
			continue
		}
		if !m(eid, a, b, c, d) {
			return
		}
	}
}

// GetComponent returns the live component of type T on an entity.
func GetComponent[T any](cmd *Commands, eid EntityId) (*T, bool) {
	ptr, ok := cmd.app.ecs.component(eid, typeOf[T]())
	if !ok {
		return nil, false
	}
	return ptr.(*T), true
}

func HasComponent[T any](cmd *Commands, eid EntityId) bool {
	_, ok := cmd.app.ecs.component(eid, typeOf[T]())
	return ok
}

func (f queryFilter) exclude(components []any) queryFilter {
	without := make([]reflect.Type, 0, len(f.without)+len(components))
	without = append(without, f.without...)
	for _, c := range components {
		without = append(without, componentType(c))
	}
	f.without = without
	return f
}

func (f queryFilter) excluded(eid EntityId) bool {
	for _, t := range f.without {
		if _, ok := f.ecs.component(eid, t); ok {
			return true
		}
	}
	return false
}

func lookup[T any](ecs *Ecs, eid EntityId, optionals map[reflect.Type]struct{}) (*T, bool) {
	t := typeOf[T]()
	if ptr, ok := ecs.component(eid, t); ok {
		return ptr.(*T), true
	}
	if _, ok := optionals[t]; ok {
		return nil, true
	}
	return nil, false
}

func identifyOptionals(optionals ...any) map[reflect.Type]struct{} {
	if len(optionals) == 0 {
		return nil
	}
	res := make(map[reflect.Type]struct{}, len(optionals))
	for _, o := range optionals {
		res[componentType(o)] = struct{}{}
	}
	return res
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
