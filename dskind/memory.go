package dskind

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/api/iterator"
)

// memoryKind is an in-memory Accessor with the same semantics as the
// datastore-backed one: store-assigned increasing keys, whole-entity
// replace, equality scans with per-item-AND verification for embedded
// collections. Records are stored as detached copies, so mutating a record
// after insert does not change the stored entity until it is replaced.
//
// Scans snapshot the matching records when the iterator is created and are
// lazy only in delivery; the datastore-backed accessor paginates as the
// iterator is drained.
type memoryKind[T any, P EntityPtr[T]] struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]*T
}

// NewMemoryKind returns an in-memory accessor, intended for tests and local
// runs without a backing store.
func NewMemoryKind[T any, P EntityPtr[T]]() Accessor[T] {
	return &memoryKind[T, P]{items: make(map[int64]*T)}
}

func (k *memoryKind[T, P]) InsertOne(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := clone(record)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.nextID++
	id := k.nextID
	P(stored).SetEntityKey(id)
	k.items[id] = stored
	k.order = append(k.order, id)

	P(record).SetEntityKey(id)
	return record, nil
}

func (k *memoryKind[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.RLock()
	stored, ok := k.items[id]
	k.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return clone(stored)
}

func (k *memoryKind[T, P]) DeleteOne(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.items[id]; !ok {
		return nil
	}

	delete(k.items, id)
	for i, stored := range k.order {
		if stored == id {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
	return nil
}

func (k *memoryKind[T, P]) FindOneAndReplace(ctx context.Context, record *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := P(record).EntityKey()
	if id == 0 {
		return ErrNoKey
	}

	stored, err := clone(record)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	// Replace is an upsert keyed by the record's own key, matching the
	// backing store's put semantics.
	if _, ok := k.items[id]; !ok {
		k.order = append(k.order, id)
	}
	k.items[id] = stored
	return nil
}

func (k *memoryKind[T, P]) Find(ctx context.Context, filter FieldFilter) *Iterator[T] {
	return k.scan(ctx, filter.Match)
}

func (k *memoryKind[T, P]) FindIn(ctx context.Context, filter EntityFilter) *Iterator[T] {
	if len(filter.Fields) == 0 {
		return errIterator[T](fmt.Errorf("entity scan error: empty filter"))
	}
	return k.scan(ctx, filter.Match)
}

func (k *memoryKind[T, P]) All(ctx context.Context) *Iterator[T] {
	return k.scan(ctx, nil)
}

// scan snapshots matching records in insertion order and iterates over the
// snapshot.
func (k *memoryKind[T, P]) scan(ctx context.Context, match func(any) bool) *Iterator[T] {
	if err := ctx.Err(); err != nil {
		return errIterator[T](err)
	}

	k.mu.RLock()
	var matched []*T
	for _, id := range k.order {
		stored := k.items[id]
		if match != nil && !match(stored) {
			continue
		}
		matched = append(matched, stored)
	}
	k.mu.RUnlock()

	i := 0
	return newIterator(func() (*T, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i >= len(matched) {
			return nil, iterator.Done
		}
		record, err := clone(matched[i])
		if err != nil {
			return nil, err
		}
		i++
		return record, nil
	})
}

// clone detaches a record by value, including its embedded collections.
func clone[T any](record *T) (*T, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("entity copy error: %w", err)
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("entity copy error: %w", err)
	}
	return out, nil
}
