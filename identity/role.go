package identity

import "github.com/google/uuid"

// Role is the identity role record persisted as one entity.
type Role struct {
	// ID is the store-assigned key, set once at insert time.
	ID int64 `datastore:"-" json:"id"`

	Name           string
	NormalizedName string

	// ConcurrencyStamp is seeded at construction. RoleStore.Update writes
	// the record back without rotating it; see DESIGN.md.
	ConcurrencyStamp string
}

// NewRole returns a role with the given name and a fresh concurrency stamp.
func NewRole(roleName string) *Role {
	return &Role{
		Name:             roleName,
		ConcurrencyStamp: uuid.NewString(),
	}
}

// EntityKey returns the store-assigned key.
func (r *Role) EntityKey() int64 { return r.ID }

// SetEntityKey records the store-assigned key.
func (r *Role) SetEntityKey(key int64) { r.ID = key }
