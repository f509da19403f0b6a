package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/identitykit/datastore-identity/dskind"
)

// RoleStore maps the role-management contract onto the role kind. Name
// setters mutate the record in memory; Update persists the whole record.
type RoleStore struct {
	db *DBContext
}

// NewRoleStore builds a RoleStore over the given context.
func NewRoleStore(db *DBContext) *RoleStore {
	return &RoleStore{db: db}
}

// Create inserts the role and assigns its ID.
func (s *RoleStore) Create(ctx context.Context, role *Role) error {
	if _, err := s.db.Roles.InsertOne(ctx, role); err != nil {
		return fmt.Errorf("role create error: %w", err)
	}
	return nil
}

// Delete removes the role record. Users referencing the role name keep it in
// their membership lists; membership cleanup is the caller's concern.
func (s *RoleStore) Delete(ctx context.Context, role *Role) error {
	if err := s.db.Roles.DeleteOne(ctx, role.ID); err != nil {
		return fmt.Errorf("role delete error: %w", err)
	}
	return nil
}

// Update replaces the whole stored record with the in-memory one. The
// concurrency stamp is written back as-is, not rotated.
func (s *RoleStore) Update(ctx context.Context, role *Role) error {
	if err := s.db.Roles.FindOneAndReplace(ctx, role); err != nil {
		return fmt.Errorf("role update error: %w", err)
	}
	return nil
}

// FindByID fetches the role stored under the given identifier, or
// ErrNotFound. An empty identifier resolves to not-found.
func (s *RoleStore) FindByID(ctx context.Context, roleID string) (*Role, error) {
	role, err := s.db.Roles.Get(ctx, parseKey(roleID))
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("role lookup error: %w", err)
	}
	return role, nil
}

// FindByName fetches the role with the given normalized name, or
// ErrNotFound. The layer does not enforce name uniqueness; when several
// records match, the first one wins.
func (s *RoleStore) FindByName(ctx context.Context, normalizedName string) (*Role, error) {
	role, err := s.db.Roles.Find(ctx, dskind.Eq("NormalizedName", normalizedName)).First()
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("role lookup error: %w", err)
	}
	return role, nil
}

// RoleID returns the role's identifier in the contract's string form.
func (s *RoleStore) RoleID(role *Role) string {
	return strconv.FormatInt(role.ID, 10)
}

// RoleName returns the in-memory role name.
func (s *RoleStore) RoleName(role *Role) string {
	return role.Name
}

// SetRoleName renames the in-memory record.
func (s *RoleStore) SetRoleName(ctx context.Context, role *Role, roleName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	role.Name = roleName
	return nil
}

// NormalizedRoleName returns the in-memory normalized name.
func (s *RoleStore) NormalizedRoleName(role *Role) string {
	return role.NormalizedName
}

// SetNormalizedRoleName sets the lookup form of the name on the in-memory
// record. Normalization itself is the caller's concern.
func (s *RoleStore) SetNormalizedRoleName(ctx context.Context, role *Role, normalizedName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	role.NormalizedName = normalizedName
	return nil
}

// All returns a lazy sequence over every role record.
func (s *RoleStore) All(ctx context.Context) *dskind.Iterator[Role] {
	return s.db.Roles.All(ctx)
}
