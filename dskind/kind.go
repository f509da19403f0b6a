package dskind

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"
)

var (
	// ErrNotFound is returned by Get when no entity exists under the key.
	// Callers should match it with errors.Is.
	ErrNotFound = errors.New("entity not found")

	// ErrNoKey is returned by FindOneAndReplace when the record has no
	// store-assigned key yet.
	ErrNoKey = errors.New("entity has no key")
)

// Accessor is a typed handle to one kind. Implementations are safe for
// concurrent use; the records passed in and out are owned by the caller.
//
// Find, FindIn and All return lazy iterators; the backend paginates as the
// iterator is drained. Zero matches yield an iterator that immediately
// reports iterator.Done, never an error.
type Accessor[T any] interface {
	// InsertOne stores a new entity, assigns its key and returns the same
	// record with the key set.
	InsertOne(ctx context.Context, record *T) (*T, error)

	// Get fetches the entity stored under key, or ErrNotFound.
	Get(ctx context.Context, key int64) (*T, error)

	// DeleteOne removes the entity stored under key. Deleting a missing
	// key is not an error.
	DeleteOne(ctx context.Context, key int64) error

	// FindOneAndReplace overwrites the whole entity stored under the
	// record's own key. There is no partial-field update.
	FindOneAndReplace(ctx context.Context, record *T) error

	// Find scans the kind for records matching a single-property equality
	// filter.
	Find(ctx context.Context, filter FieldFilter) *Iterator[T]

	// FindIn scans the kind for records whose embedded collection holds an
	// item satisfying every field of the filter (per-item AND).
	FindIn(ctx context.Context, filter EntityFilter) *Iterator[T]

	// All scans every record of the kind.
	All(ctx context.Context) *Iterator[T]
}

// Iterator walks a result sequence. Next returns iterator.Done after the
// last record.
type Iterator[T any] struct {
	next func() (*T, error)
}

func newIterator[T any](next func() (*T, error)) *Iterator[T] {
	return &Iterator[T]{next: next}
}

// Next returns the next record, iterator.Done at the end of the sequence,
// or the backend error that interrupted the scan.
func (it *Iterator[T]) Next() (*T, error) {
	return it.next()
}

// Collect drains the iterator into a slice.
func (it *Iterator[T]) Collect() ([]*T, error) {
	var out []*T
	for {
		rec, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// First returns the first record of the sequence, or ErrNotFound when the
// sequence is empty. Extra results are ignored; lookups on what the caller
// assumes is a unique property resolve multiples by taking the first.
func (it *Iterator[T]) First() (*T, error) {
	rec, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// errIterator yields a single error. Used when a scan cannot start.
func errIterator[T any](err error) *Iterator[T] {
	return newIterator(func() (*T, error) { return nil, err })
}
