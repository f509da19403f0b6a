package identity

import (
	"time"

	"github.com/google/uuid"
)

// UserLogin is one external login held by a user. A user holds at most one
// login per (LoginProvider, ProviderKey) pair.
type UserLogin struct {
	LoginProvider       string
	ProviderKey         string
	ProviderDisplayName string
}

// UserClaim is one claim held by a user. Duplicates are allowed.
type UserClaim struct {
	Type  string
	Value string
}

// AuthToken is one stored authentication token, unique per
// (LoginProvider, Name) pair. The token value is opaque to this layer.
type AuthToken struct {
	LoginProvider string
	Name          string
	Token         string `datastore:",noindex"`
}

// User is the identity user record persisted as one entity. The one-to-many
// relationships (logins, claims, tokens, role names) are embedded in the
// record because the store only supports whole-entity replace.
//
// All mutators below change the in-memory record only; nothing is persisted
// until the record is written back through UserStore.Update.
type User struct {
	// ID is the store-assigned key, set once at insert time.
	ID int64 `datastore:"-" json:"id"`

	UserName           string
	NormalizedUserName string

	Email           string
	NormalizedEmail string
	EmailConfirmed  bool

	PasswordHash  string `datastore:",noindex"`
	SecurityStamp string `datastore:",noindex"`

	PhoneNumber          string
	PhoneNumberConfirmed bool

	TwoFactorEnabled bool

	LockoutEnd        *time.Time
	LockoutEnabled    bool
	AccessFailedCount int

	Logins     []UserLogin `datastore:",flatten"`
	Claims     []UserClaim `datastore:",flatten"`
	AuthTokens []AuthToken `datastore:",flatten"`
	Roles      []string
}

// NewUser returns a user with the given name and a fresh security stamp.
func NewUser(userName string) *User {
	return &User{
		UserName:      userName,
		SecurityStamp: uuid.NewString(),
	}
}

// EntityKey returns the store-assigned key.
func (u *User) EntityKey() int64 { return u.ID }

// SetEntityKey records the store-assigned key.
func (u *User) SetEntityKey(key int64) { u.ID = key }

// AddLogin appends a login. Adding an already-held (provider, key) pair is a
// no-op.
func (u *User) AddLogin(login UserLogin) {
	for _, l := range u.Logins {
		if l.LoginProvider == login.LoginProvider && l.ProviderKey == login.ProviderKey {
			return
		}
	}
	u.Logins = append(u.Logins, login)
}

// RemoveLogin drops the login with the given provider and key, if held.
func (u *User) RemoveLogin(loginProvider, providerKey string) {
	for i, l := range u.Logins {
		if l.LoginProvider == loginProvider && l.ProviderKey == providerKey {
			u.Logins = append(u.Logins[:i], u.Logins[i+1:]...)
			return
		}
	}
}

// AddClaims appends claims. Claims carry no uniqueness constraint.
func (u *User) AddClaims(claims ...UserClaim) {
	u.Claims = append(u.Claims, claims...)
}

// ReplaceClaim rewrites every claim equal to old with replacement.
func (u *User) ReplaceClaim(old, replacement UserClaim) {
	for i, c := range u.Claims {
		if c == old {
			u.Claims[i] = replacement
		}
	}
}

// RemoveClaims drops every claim equal to any of the given claims.
func (u *User) RemoveClaims(claims ...UserClaim) {
	kept := u.Claims[:0]
	for _, c := range u.Claims {
		remove := false
		for _, rm := range claims {
			if c == rm {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, c)
		}
	}
	u.Claims = kept
}

// SetToken upserts the token for (loginProvider, name): the value is
// overwritten in place when the pair exists, appended otherwise.
func (u *User) SetToken(loginProvider, name, value string) {
	for i, t := range u.AuthTokens {
		if t.LoginProvider == loginProvider && t.Name == name {
			u.AuthTokens[i].Token = value
			return
		}
	}
	u.AuthTokens = append(u.AuthTokens, AuthToken{
		LoginProvider: loginProvider,
		Name:          name,
		Token:         value,
	})
}

// RemoveToken drops the token for (loginProvider, name), if held.
func (u *User) RemoveToken(loginProvider, name string) {
	for i, t := range u.AuthTokens {
		if t.LoginProvider == loginProvider && t.Name == name {
			u.AuthTokens = append(u.AuthTokens[:i], u.AuthTokens[i+1:]...)
			return
		}
	}
}

// TokenValue returns the stored token value for (loginProvider, name) and
// whether the pair is held.
func (u *User) TokenValue(loginProvider, name string) (string, bool) {
	for _, t := range u.AuthTokens {
		if t.LoginProvider == loginProvider && t.Name == name {
			return t.Token, true
		}
	}
	return "", false
}

// AddRole appends a role name to the membership list. Adding a held role is
// a no-op.
func (u *User) AddRole(roleName string) {
	if u.HasRole(roleName) {
		return
	}
	u.Roles = append(u.Roles, roleName)
}

// RemoveRole drops a role name from the membership list, if held.
func (u *User) RemoveRole(roleName string) {
	for i, r := range u.Roles {
		if r == roleName {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			return
		}
	}
}

// HasRole reports whether the role name is in the membership list.
func (u *User) HasRole(roleName string) bool {
	for _, r := range u.Roles {
		if r == roleName {
			return true
		}
	}
	return false
}
