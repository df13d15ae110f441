package ecs

// Storage is a keyed container holding every value of one component kind,
// indexed by entity. One instance exists per component type; all kinds share
// this implementation rather than maintaining divergent per-kind copies.
//
// Iteration order over the underlying map is unspecified. Any deterministic
// traversal (rendering, hit-testing) must loop entity ids in ascending order
// via World.Count instead.
type Storage[T any] struct {
	components map[EntityID]*T
}

func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{
		components: make(map[EntityID]*T),
	}
}

// Insert attaches component to entity, overwriting any previous value.
func (s *Storage[T]) Insert(entity EntityID, component T) {
	s.components[entity] = &component
}

// Get returns a copy of the entity's component, or false if it was never
// attached.
func (s *Storage[T]) Get(entity EntityID) (T, bool) {
	if c, ok := s.components[entity]; ok {
		return *c, true
	}
	var zero T
	return zero, false
}

// Ref returns a handle for in-place mutation, or nil if the entity has no
// such component. The handle must not be retained beyond the current
// operation.
func (s *Storage[T]) Ref(entity EntityID) *T {
	return s.components[entity]
}

// Len reports how many entities currently carry this component kind.
func (s *Storage[T]) Len() int {
	return len(s.components)
}
