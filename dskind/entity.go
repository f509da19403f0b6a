package dskind

// Entity is implemented by records that live in a kind. The key is assigned
// by the store on insert and never reassigned afterwards.
type Entity interface {
	EntityKey() int64
	SetEntityKey(key int64)
}

// EntityPtr constrains a pointer to a record type so generic accessors can
// both allocate values and reach the key through the pointer methods.
type EntityPtr[T any] interface {
	*T
	Entity
}
