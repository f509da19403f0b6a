package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_SeedsSecurityStamp(t *testing.T) {
	u := NewUser("alice")
	assert.Equal(t, "alice", u.UserName)
	assert.NotEmpty(t, u.SecurityStamp)
	assert.NotEqual(t, NewUser("bob").SecurityStamp, u.SecurityStamp)
}

func TestUser_AddLogin_UniqueByProviderAndKey(t *testing.T) {
	u := NewUser("alice")

	u.AddLogin(UserLogin{LoginProvider: "google", ProviderKey: "pk-1", ProviderDisplayName: "Google"})
	u.AddLogin(UserLogin{LoginProvider: "google", ProviderKey: "pk-1", ProviderDisplayName: "Google again"})
	u.AddLogin(UserLogin{LoginProvider: "google", ProviderKey: "pk-2"})
	u.AddLogin(UserLogin{LoginProvider: "github", ProviderKey: "pk-1"})

	require.Len(t, u.Logins, 3)
	assert.Equal(t, "Google", u.Logins[0].ProviderDisplayName)
}

func TestUser_RemoveLogin(t *testing.T) {
	u := NewUser("alice")
	u.AddLogin(UserLogin{LoginProvider: "google", ProviderKey: "pk-1"})
	u.AddLogin(UserLogin{LoginProvider: "github", ProviderKey: "pk-2"})

	u.RemoveLogin("google", "pk-1")
	require.Len(t, u.Logins, 1)
	assert.Equal(t, "github", u.Logins[0].LoginProvider)

	// Removing an absent pair is a no-op.
	u.RemoveLogin("google", "pk-1")
	assert.Len(t, u.Logins, 1)
}

func TestUser_Claims_AllowDuplicates(t *testing.T) {
	u := NewUser("alice")
	c := UserClaim{Type: "plan", Value: "pro"}

	u.AddClaims(c, c)
	assert.Len(t, u.Claims, 2)
}

func TestUser_ReplaceClaim_RewritesAllMatches(t *testing.T) {
	u := NewUser("alice")
	old := UserClaim{Type: "plan", Value: "free"}
	u.AddClaims(old, UserClaim{Type: "team", Value: "core"}, old)

	u.ReplaceClaim(old, UserClaim{Type: "plan", Value: "pro"})

	assert.Equal(t, []UserClaim{
		{Type: "plan", Value: "pro"},
		{Type: "team", Value: "core"},
		{Type: "plan", Value: "pro"},
	}, u.Claims)
}

func TestUser_RemoveClaims_RemovesAllEqual(t *testing.T) {
	u := NewUser("alice")
	dup := UserClaim{Type: "plan", Value: "free"}
	keep := UserClaim{Type: "team", Value: "core"}
	u.AddClaims(dup, keep, dup)

	u.RemoveClaims(dup)

	assert.Equal(t, []UserClaim{keep}, u.Claims)
}

func TestUser_SetToken_UpsertsByProviderAndName(t *testing.T) {
	u := NewUser("alice")

	u.SetToken("google", "refresh", "tok-1")
	u.SetToken("google", "refresh", "tok-2")
	u.SetToken("google", "access", "tok-3")

	require.Len(t, u.AuthTokens, 2)

	v, ok := u.TokenValue("google", "refresh")
	require.True(t, ok)
	assert.Equal(t, "tok-2", v)
}

func TestUser_RemoveToken(t *testing.T) {
	u := NewUser("alice")
	u.SetToken("google", "refresh", "tok-1")

	u.RemoveToken("google", "refresh")

	_, ok := u.TokenValue("google", "refresh")
	assert.False(t, ok)
	assert.Empty(t, u.AuthTokens)
}

func TestUser_Roles(t *testing.T) {
	u := NewUser("alice")

	u.AddRole("ADMIN")
	u.AddRole("ADMIN")
	u.AddRole("AUDITOR")

	assert.Equal(t, []string{"ADMIN", "AUDITOR"}, u.Roles)
	assert.True(t, u.HasRole("ADMIN"))

	u.RemoveRole("ADMIN")
	assert.False(t, u.HasRole("ADMIN"))
	assert.Equal(t, []string{"AUDITOR"}, u.Roles)
}

func TestNewRole_SeedsConcurrencyStamp(t *testing.T) {
	r := NewRole("Admin")
	assert.Equal(t, "Admin", r.Name)
	assert.NotEmpty(t, r.ConcurrencyStamp)
}
