package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/identitykit/datastore-identity/dskind"
)

// UserStore maps the multi-capability user contract onto the user kind, and
// consults the role kind when validating role membership.
//
// Capability reads return the current in-memory value of the record the
// caller holds; capability setters mutate that record only. A backend write
// happens solely in Create, Delete and Update, a backend read solely in the
// Find* and Users* lookups and All.
type UserStore struct {
	db *DBContext
}

// NewUserStore builds a UserStore over the given context.
func NewUserStore(db *DBContext) *UserStore {
	return &UserStore{db: db}
}

// ---- lifecycle ----

// Create inserts the user and assigns its ID.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if _, err := s.db.Users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("user create error: %w", err)
	}
	return nil
}

// Delete removes the user record.
func (s *UserStore) Delete(ctx context.Context, user *User) error {
	if err := s.db.Users.DeleteOne(ctx, user.ID); err != nil {
		return fmt.Errorf("user delete error: %w", err)
	}
	return nil
}

// Update replaces the whole stored record with the in-memory one. This is
// the only call that persists the capability setters below; two concurrent
// updates on the same key race and the last replace wins.
func (s *UserStore) Update(ctx context.Context, user *User) error {
	if err := s.db.Users.FindOneAndReplace(ctx, user); err != nil {
		return fmt.Errorf("user update error: %w", err)
	}
	return nil
}

// FindByID fetches the user stored under the given identifier, or
// ErrNotFound. An empty identifier resolves to not-found.
func (s *UserStore) FindByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.db.Users.Get(ctx, parseKey(userID))
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user lookup error: %w", err)
	}
	return user, nil
}

// FindByName fetches the user with the given normalized user name, or
// ErrNotFound. Name uniqueness is a query-time expectation, not enforced;
// when several records match, the first one wins.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*User, error) {
	user, err := s.db.Users.Find(ctx, dskind.Eq("NormalizedUserName", normalizedUserName)).First()
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user lookup error: %w", err)
	}
	return user, nil
}

// UserID returns the user's identifier in the contract's string form.
func (s *UserStore) UserID(user *User) string {
	return strconv.FormatInt(user.ID, 10)
}

// UserName returns the in-memory user name.
func (s *UserStore) UserName(user *User) string {
	return user.UserName
}

// SetUserName renames the in-memory record.
func (s *UserStore) SetUserName(ctx context.Context, user *User, userName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.UserName = userName
	return nil
}

// NormalizedUserName returns the in-memory normalized name.
func (s *UserStore) NormalizedUserName(user *User) string {
	return user.NormalizedUserName
}

// SetNormalizedUserName sets the lookup form of the name on the in-memory
// record. Normalization itself is the caller's concern.
func (s *UserStore) SetNormalizedUserName(ctx context.Context, user *User, normalizedName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.NormalizedUserName = normalizedName
	return nil
}

// ---- external logins ----

// AddLogin records an external login on the in-memory record.
func (s *UserStore) AddLogin(ctx context.Context, user *User, login UserLogin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.AddLogin(login)
	return nil
}

// RemoveLogin drops an external login from the in-memory record.
func (s *UserStore) RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.RemoveLogin(loginProvider, providerKey)
	return nil
}

// Logins returns the in-memory login list.
func (s *UserStore) Logins(user *User) []UserLogin {
	return user.Logins
}

// FindByLogin fetches the user holding the (loginProvider, providerKey)
// login, or ErrNotFound. The match is per-item: both fields must be
// satisfied by the same embedded login.
func (s *UserStore) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error) {
	filter := dskind.EqIn("Logins", map[string]any{
		"LoginProvider": loginProvider,
		"ProviderKey":   providerKey,
	})

	user, err := s.db.Users.FindIn(ctx, filter).First()
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user lookup error: %w", err)
	}
	return user, nil
}

// ---- claims ----

// Claims returns the in-memory claim list.
func (s *UserStore) Claims(user *User) []UserClaim {
	return user.Claims
}

// AddClaims appends claims to the in-memory record.
func (s *UserStore) AddClaims(ctx context.Context, user *User, claims ...UserClaim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.AddClaims(claims...)
	return nil
}

// ReplaceClaim rewrites matching claims on the in-memory record.
func (s *UserStore) ReplaceClaim(ctx context.Context, user *User, old, replacement UserClaim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.ReplaceClaim(old, replacement)
	return nil
}

// RemoveClaims drops matching claims from the in-memory record.
func (s *UserStore) RemoveClaims(ctx context.Context, user *User, claims ...UserClaim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.RemoveClaims(claims...)
	return nil
}

// UsersForClaim lists every user holding a claim with the given type and
// value, both satisfied by the same embedded claim. Zero matches yield an
// empty list.
func (s *UserStore) UsersForClaim(ctx context.Context, claim UserClaim) ([]*User, error) {
	filter := dskind.EqIn("Claims", map[string]any{
		"Type":  claim.Type,
		"Value": claim.Value,
	})

	users, err := s.db.Users.FindIn(ctx, filter).Collect()
	if err != nil {
		return nil, fmt.Errorf("user scan error: %w", err)
	}
	return users, nil
}

// ---- password ----

// SetPasswordHash stores the opaque hash on the in-memory record.
func (s *UserStore) SetPasswordHash(ctx context.Context, user *User, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	return nil
}

// PasswordHash returns the in-memory hash.
func (s *UserStore) PasswordHash(user *User) string {
	return user.PasswordHash
}

// HasPassword reports whether the record carries a non-blank hash.
func (s *UserStore) HasPassword(user *User) bool {
	return user.PasswordHash != ""
}

// ---- security stamp ----

// SetSecurityStamp stores the caller-managed invalidation token on the
// in-memory record.
func (s *UserStore) SetSecurityStamp(ctx context.Context, user *User, stamp string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.SecurityStamp = stamp
	return nil
}

// SecurityStamp returns the in-memory stamp.
func (s *UserStore) SecurityStamp(user *User) string {
	return user.SecurityStamp
}

// ---- email ----

// SetEmail stores the display email on the in-memory record.
func (s *UserStore) SetEmail(ctx context.Context, user *User, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.Email = email
	return nil
}

// Email returns the in-memory display email.
func (s *UserStore) Email(user *User) string {
	return user.Email
}

// EmailConfirmed returns the in-memory confirmation flag.
func (s *UserStore) EmailConfirmed(user *User) bool {
	return user.EmailConfirmed
}

// SetEmailConfirmed sets the confirmation flag on the in-memory record.
func (s *UserStore) SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.EmailConfirmed = confirmed
	return nil
}

// FindByEmail fetches the user with the given normalized email, or
// ErrNotFound. When several records match, the first one wins.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*User, error) {
	user, err := s.db.Users.Find(ctx, dskind.Eq("NormalizedEmail", normalizedEmail)).First()
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user lookup error: %w", err)
	}
	return user, nil
}

// NormalizedEmail returns the in-memory normalized email.
func (s *UserStore) NormalizedEmail(user *User) string {
	return user.NormalizedEmail
}

// SetNormalizedEmail sets the lookup form of the email on the in-memory
// record.
func (s *UserStore) SetNormalizedEmail(ctx context.Context, user *User, normalizedEmail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.NormalizedEmail = normalizedEmail
	return nil
}

// ---- lockout ----

// LockoutEnd returns the in-memory lockout deadline, nil when none is set.
func (s *UserStore) LockoutEnd(user *User) *time.Time {
	return user.LockoutEnd
}

// SetLockoutEnd sets or clears the lockout deadline on the in-memory record.
func (s *UserStore) SetLockoutEnd(ctx context.Context, user *User, lockoutEnd *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.LockoutEnd = lockoutEnd
	return nil
}

// IncrementAccessFailedCount bumps the in-memory counter and returns the new
// value.
func (s *UserStore) IncrementAccessFailedCount(ctx context.Context, user *User) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	user.AccessFailedCount++
	return user.AccessFailedCount, nil
}

// ResetAccessFailedCount zeroes the in-memory counter.
func (s *UserStore) ResetAccessFailedCount(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.AccessFailedCount = 0
	return nil
}

// AccessFailedCount returns the in-memory counter.
func (s *UserStore) AccessFailedCount(user *User) int {
	return user.AccessFailedCount
}

// LockoutEnabled returns the in-memory lockout flag.
func (s *UserStore) LockoutEnabled(user *User) bool {
	return user.LockoutEnabled
}

// SetLockoutEnabled sets the lockout flag on the in-memory record.
func (s *UserStore) SetLockoutEnabled(ctx context.Context, user *User, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.LockoutEnabled = enabled
	return nil
}

// ---- phone ----

// SetPhoneNumber stores the phone number on the in-memory record.
func (s *UserStore) SetPhoneNumber(ctx context.Context, user *User, phoneNumber string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.PhoneNumber = phoneNumber
	return nil
}

// PhoneNumber returns the in-memory phone number.
func (s *UserStore) PhoneNumber(user *User) string {
	return user.PhoneNumber
}

// PhoneNumberConfirmed returns the in-memory confirmation flag.
func (s *UserStore) PhoneNumberConfirmed(user *User) bool {
	return user.PhoneNumberConfirmed
}

// SetPhoneNumberConfirmed sets the confirmation flag on the in-memory
// record.
func (s *UserStore) SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.PhoneNumberConfirmed = confirmed
	return nil
}

// ---- authentication tokens ----

// SetToken upserts the token for (loginProvider, name) on the in-memory
// record.
func (s *UserStore) SetToken(ctx context.Context, user *User, loginProvider, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.SetToken(loginProvider, name, value)
	return nil
}

// RemoveToken drops the token for (loginProvider, name) from the in-memory
// record.
func (s *UserStore) RemoveToken(ctx context.Context, user *User, loginProvider, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.RemoveToken(loginProvider, name)
	return nil
}

// Token returns the stored token value for (loginProvider, name) and
// whether the pair is held.
func (s *UserStore) Token(user *User, loginProvider, name string) (string, bool) {
	return user.TokenValue(loginProvider, name)
}

// ---- two-factor ----

// SetTwoFactorEnabled sets the flag on the in-memory record.
func (s *UserStore) SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.TwoFactorEnabled = enabled
	return nil
}

// TwoFactorEnabled returns the in-memory flag.
func (s *UserStore) TwoFactorEnabled(user *User) bool {
	return user.TwoFactorEnabled
}

// ---- role membership ----

// AddToRole appends the role name to the in-memory membership list after
// verifying a role with that normalized name exists. A missing role fails
// with ErrRoleNotFound and leaves the record unchanged.
func (s *UserStore) AddToRole(ctx context.Context, user *User, roleName string) error {
	_, err := s.db.Roles.Find(ctx, dskind.Eq("NormalizedName", roleName)).First()
	if err != nil {
		if errors.Is(err, dskind.ErrNotFound) {
			return fmt.Errorf("role %q: %w", roleName, ErrRoleNotFound)
		}
		return fmt.Errorf("role lookup error: %w", err)
	}

	user.AddRole(roleName)
	return nil
}

// RemoveFromRole drops the role name from the in-memory membership list.
func (s *UserStore) RemoveFromRole(ctx context.Context, user *User, roleName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.RemoveRole(roleName)
	return nil
}

// Roles returns the in-memory membership list.
func (s *UserStore) Roles(user *User) []string {
	return user.Roles
}

// IsInRole reports whether the in-memory membership list holds the role
// name.
func (s *UserStore) IsInRole(user *User, roleName string) bool {
	return user.HasRole(roleName)
}

// UsersInRole lists every user whose membership list holds the role name.
// Zero matches yield an empty list.
func (s *UserStore) UsersInRole(ctx context.Context, roleName string) ([]*User, error) {
	users, err := s.db.Users.Find(ctx, dskind.Eq("Roles", roleName)).Collect()
	if err != nil {
		return nil, fmt.Errorf("user scan error: %w", err)
	}
	return users, nil
}

// ---- queryable ----

// All returns a lazy sequence over every user record, for ad-hoc filtering
// by the caller.
func (s *UserStore) All(ctx context.Context) *dskind.Iterator[User] {
	return s.db.Users.All(ctx)
}
