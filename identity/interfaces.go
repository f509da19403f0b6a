package identity

import (
	"context"
	"time"

	"github.com/identitykit/datastore-identity/dskind"
)

// The user contract is a union of narrow capability interfaces so each
// group can be consumed and tested independently. UserStore satisfies all
// of them; RoleManagementStore is the role contract. An implementation over
// a backend that cannot express one of the lookup operations must return
// ErrUnsupported from it rather than a partial or empty result.

// UserLifecycleStore covers create, persist, remove and the key lookups.
type UserLifecycleStore interface {
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByName(ctx context.Context, normalizedUserName string) (*User, error)
	UserID(user *User) string
	UserName(user *User) string
	SetUserName(ctx context.Context, user *User, userName string) error
	NormalizedUserName(user *User) string
	SetNormalizedUserName(ctx context.Context, user *User, normalizedName string) error
}

// UserLoginStore covers external logins.
type UserLoginStore interface {
	AddLogin(ctx context.Context, user *User, login UserLogin) error
	RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error
	Logins(user *User) []UserLogin
	FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error)
}

// UserClaimStore covers claims.
type UserClaimStore interface {
	Claims(user *User) []UserClaim
	AddClaims(ctx context.Context, user *User, claims ...UserClaim) error
	ReplaceClaim(ctx context.Context, user *User, old, replacement UserClaim) error
	RemoveClaims(ctx context.Context, user *User, claims ...UserClaim) error
	UsersForClaim(ctx context.Context, claim UserClaim) ([]*User, error)
}

// UserPasswordStore covers the opaque password hash.
type UserPasswordStore interface {
	SetPasswordHash(ctx context.Context, user *User, passwordHash string) error
	PasswordHash(user *User) string
	HasPassword(user *User) bool
}

// UserSecurityStampStore covers the caller-managed invalidation token.
type UserSecurityStampStore interface {
	SetSecurityStamp(ctx context.Context, user *User, stamp string) error
	SecurityStamp(user *User) string
}

// UserEmailStore covers email and its confirmation flag.
type UserEmailStore interface {
	SetEmail(ctx context.Context, user *User, email string) error
	Email(user *User) string
	EmailConfirmed(user *User) bool
	SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*User, error)
	NormalizedEmail(user *User) string
	SetNormalizedEmail(ctx context.Context, user *User, normalizedEmail string) error
}

// UserLockoutStore covers the lockout deadline and failure counter.
type UserLockoutStore interface {
	LockoutEnd(user *User) *time.Time
	SetLockoutEnd(ctx context.Context, user *User, lockoutEnd *time.Time) error
	IncrementAccessFailedCount(ctx context.Context, user *User) (int, error)
	ResetAccessFailedCount(ctx context.Context, user *User) error
	AccessFailedCount(user *User) int
	LockoutEnabled(user *User) bool
	SetLockoutEnabled(ctx context.Context, user *User, enabled bool) error
}

// UserPhoneNumberStore covers the phone number and its confirmation flag.
type UserPhoneNumberStore interface {
	SetPhoneNumber(ctx context.Context, user *User, phoneNumber string) error
	PhoneNumber(user *User) string
	PhoneNumberConfirmed(user *User) bool
	SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error
}

// UserTokenStore covers stored authentication tokens.
type UserTokenStore interface {
	SetToken(ctx context.Context, user *User, loginProvider, name, value string) error
	RemoveToken(ctx context.Context, user *User, loginProvider, name string) error
	Token(user *User, loginProvider, name string) (string, bool)
}

// UserTwoFactorStore covers the two-factor flag.
type UserTwoFactorStore interface {
	SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error
	TwoFactorEnabled(user *User) bool
}

// UserRoleMembershipStore covers role membership.
type UserRoleMembershipStore interface {
	AddToRole(ctx context.Context, user *User, roleName string) error
	RemoveFromRole(ctx context.Context, user *User, roleName string) error
	Roles(user *User) []string
	IsInRole(user *User, roleName string) bool
	UsersInRole(ctx context.Context, roleName string) ([]*User, error)
}

// QueryableUserStore exposes the full user collection as a lazy sequence.
type QueryableUserStore interface {
	All(ctx context.Context) *dskind.Iterator[User]
}

// RoleManagementStore is the role contract.
type RoleManagementStore interface {
	Create(ctx context.Context, role *Role) error
	Delete(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, roleID string) (*Role, error)
	FindByName(ctx context.Context, normalizedName string) (*Role, error)
	RoleID(role *Role) string
	RoleName(role *Role) string
	SetRoleName(ctx context.Context, role *Role, roleName string) error
	NormalizedRoleName(role *Role) string
	SetNormalizedRoleName(ctx context.Context, role *Role, normalizedName string) error
	All(ctx context.Context) *dskind.Iterator[Role]
}

var (
	_ UserLifecycleStore      = (*UserStore)(nil)
	_ UserLoginStore          = (*UserStore)(nil)
	_ UserClaimStore          = (*UserStore)(nil)
	_ UserPasswordStore       = (*UserStore)(nil)
	_ UserSecurityStampStore  = (*UserStore)(nil)
	_ UserEmailStore          = (*UserStore)(nil)
	_ UserLockoutStore        = (*UserStore)(nil)
	_ UserPhoneNumberStore    = (*UserStore)(nil)
	_ UserTokenStore          = (*UserStore)(nil)
	_ UserTwoFactorStore      = (*UserStore)(nil)
	_ UserRoleMembershipStore = (*UserStore)(nil)
	_ QueryableUserStore      = (*UserStore)(nil)
	_ RoleManagementStore     = (*RoleStore)(nil)
)
