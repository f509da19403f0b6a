package dskind

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/identitykit/datastore-identity/internal/logging"
)

// Database is the connector to the backing entity store. It is constructed
// once at process start, shared by every accessor, and torn down with Close
// on shutdown. It is safe for concurrent use.
type Database struct {
	client    *datastore.Client
	namespace string
	keyPrefix string
	log       logging.Logger
}

// Open connects to the entity store described by opts. When
// opts.CredentialsFile is set it is used for authentication; otherwise the
// ambient credentials (or an emulator) apply.
func Open(ctx context.Context, opts *Options, log logging.Logger) (*Database, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	return open(ctx, opts, log, clientOpts...)
}

// OpenWithGRPCConn connects over an existing gRPC channel. The caller keeps
// ownership of the connection; Close does not close it.
func OpenWithGRPCConn(ctx context.Context, opts *Options, conn *grpc.ClientConn, log logging.Logger) (*Database, error) {
	return open(ctx, opts, log, option.WithGRPCConn(conn))
}

func open(ctx context.Context, opts *Options, log logging.Logger, clientOpts ...option.ClientOption) (*Database, error) {
	if log == nil {
		log = logging.NewNop()
	}

	client, err := datastore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("entity store connect error: %w", err)
	}

	log.Info(ctx, "entity store connected", "project", opts.ProjectID, "namespace", opts.Namespace)

	return &Database{
		client:    client,
		namespace: opts.Namespace,
		keyPrefix: opts.KeyPrefix,
		log:       log,
	}, nil
}

// Close releases the connection to the entity store.
func (db *Database) Close() error {
	db.log.Info(context.Background(), "entity store closing")
	return db.client.Close()
}

// datastoreKind is the Accessor implementation backed by Cloud Datastore.
type datastoreKind[T any, P EntityPtr[T]] struct {
	db            *Database
	kind          string
	manageIndices bool
}

// NewKind returns an accessor for one kind of the database. The kind name is
// the configured name with the database's key prefix applied.
func NewKind[T any, P EntityPtr[T]](db *Database, opts KindOptions) Accessor[T] {
	return &datastoreKind[T, P]{
		db:            db,
		kind:          db.keyPrefix + opts.Kind,
		manageIndices: opts.ManageIndices,
	}
}

func (k *datastoreKind[T, P]) key(id int64) *datastore.Key {
	key := datastore.IDKey(k.kind, id, nil)
	key.Namespace = k.db.namespace
	return key
}

func (k *datastoreKind[T, P]) query() *datastore.Query {
	return datastore.NewQuery(k.kind).Namespace(k.db.namespace)
}

func (k *datastoreKind[T, P]) InsertOne(ctx context.Context, record *T) (*T, error) {
	key := datastore.IncompleteKey(k.kind, nil)
	key.Namespace = k.db.namespace

	stored, err := k.db.client.Put(ctx, key, record)
	if err != nil {
		return nil, fmt.Errorf("entity insert error: %w", err)
	}

	P(record).SetEntityKey(stored.ID)
	return record, nil
}

func (k *datastoreKind[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	// Key 0 is never assigned by the store; the client would reject it as
	// an incomplete key instead of reporting a miss.
	if id == 0 {
		return nil, ErrNotFound
	}

	var record T
	if err := k.db.client.Get(ctx, k.key(id), &record); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("entity get error: %w", err)
	}

	P(&record).SetEntityKey(id)
	return &record, nil
}

func (k *datastoreKind[T, P]) DeleteOne(ctx context.Context, id int64) error {
	// Nothing lives under key 0; deleting it is a no-op, not an error.
	if id == 0 {
		return nil
	}

	if err := k.db.client.Delete(ctx, k.key(id)); err != nil {
		return fmt.Errorf("entity delete error: %w", err)
	}
	return nil
}

func (k *datastoreKind[T, P]) FindOneAndReplace(ctx context.Context, record *T) error {
	id := P(record).EntityKey()
	if id == 0 {
		return ErrNoKey
	}

	if _, err := k.db.client.Put(ctx, k.key(id), record); err != nil {
		return fmt.Errorf("entity replace error: %w", err)
	}
	return nil
}

func (k *datastoreKind[T, P]) Find(ctx context.Context, filter FieldFilter) *Iterator[T] {
	q := k.query().FilterField(filter.Path, "=", filter.Value)
	return k.run(ctx, q, nil)
}

func (k *datastoreKind[T, P]) FindIn(ctx context.Context, filter EntityFilter) *Iterator[T] {
	paths := filter.Paths()
	if len(paths) == 0 {
		return errIterator[T](fmt.Errorf("entity scan error: empty filter"))
	}

	// The store indexes flattened embedded collections without per-element
	// grouping, so a multi-path query can match fields drawn from different
	// items. Every candidate is re-verified in memory; when the composite
	// indexes for multi-path queries are not managed, only the narrowest
	// single path is pushed down.
	q := k.query()
	if k.manageIndices {
		for _, path := range paths {
			q = q.FilterField(path, "=", filter.Fields[path[len(filter.Collection)+1:]])
		}
	} else {
		q = q.FilterField(paths[0], "=", filter.Fields[paths[0][len(filter.Collection)+1:]])
	}

	return k.run(ctx, q, filter.Match)
}

func (k *datastoreKind[T, P]) All(ctx context.Context) *Iterator[T] {
	return k.run(ctx, k.query(), nil)
}

// run starts the query and wraps the backend iterator. When verify is
// non-nil, records failing it are skipped.
func (k *datastoreKind[T, P]) run(ctx context.Context, q *datastore.Query, verify func(any) bool) *Iterator[T] {
	it := k.db.client.Run(ctx, q)

	return newIterator(func() (*T, error) {
		for {
			var record T
			key, err := it.Next(&record)
			if errors.Is(err, iterator.Done) {
				return nil, iterator.Done
			}
			if err != nil {
				return nil, fmt.Errorf("entity scan error: %w", err)
			}

			P(&record).SetEntityKey(key.ID)

			if verify != nil && !verify(&record) {
				continue
			}
			return &record, nil
		}
	})
}
