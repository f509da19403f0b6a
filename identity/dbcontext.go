// Package identity persists identity principals (users and roles) into a
// key-indexed entity store and exposes the multi-capability stores the
// hosting identity subsystem consumes.
//
// The stores follow a two-phase contract: capability setters mutate the
// in-memory record only, and a change reaches the store solely through the
// explicit Update call, which replaces the whole entity by key. Callers
// batch several setters and then save once.
package identity

import (
	"strconv"

	"github.com/identitykit/datastore-identity/dskind"
)

// DBContext bundles the two kind accessors the stores operate on. Build one
// per process from the shared connector and hand it to both stores.
type DBContext struct {
	Users dskind.Accessor[User]
	Roles dskind.Accessor[Role]
}

// NewDBContext builds accessors for the user and role kinds named in opts.
func NewDBContext(db *dskind.Database, opts *dskind.Options) *DBContext {
	return &DBContext{
		Users: dskind.NewKind[User, *User](db, opts.User),
		Roles: dskind.NewKind[Role, *Role](db, opts.Role),
	}
}

// NewMemoryDBContext builds in-memory accessors, for tests and local runs.
func NewMemoryDBContext() *DBContext {
	return &DBContext{
		Users: dskind.NewMemoryKind[User, *User](),
		Roles: dskind.NewMemoryKind[Role, *Role](),
	}
}

// parseKey converts a caller-supplied string identifier to the store key
// type. An empty or malformed identifier maps to key 0, which no entity
// ever holds, so the lookup resolves to not-found rather than an error.
func parseKey(id string) int64 {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return key
}
