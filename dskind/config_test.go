package dskind

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions_Defaults(t *testing.T) {
	opts, err := LoadOptions("")
	require.NoError(t, err)

	assert.Equal(t, "Users", opts.User.Kind)
	assert.True(t, opts.User.ManageIndices)
	assert.Equal(t, "Roles", opts.Role.Kind)
	assert.True(t, opts.Role.ManageIndices)
	assert.Empty(t, opts.ProjectID)
}

func TestLoadOptions_JSONOverlay(t *testing.T) {
	path := writeConfigFile(t, `{
		"project_id": "acme-prod",
		"namespace": "identity",
		"key_prefix": "Acme",
		"user": {"kind": "Accounts", "manage_indices": false}
	}`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "acme-prod", opts.ProjectID)
	assert.Equal(t, "identity", opts.Namespace)
	assert.Equal(t, "Acme", opts.KeyPrefix)
	assert.Equal(t, "Accounts", opts.User.Kind)
	assert.False(t, opts.User.ManageIndices)

	// Untouched sections keep their defaults.
	assert.Equal(t, "Roles", opts.Role.Kind)
	assert.True(t, opts.Role.ManageIndices)
}

func TestLoadOptions_EnvOverridesJSON(t *testing.T) {
	path := writeConfigFile(t, `{"project_id": "from-json", "user": {"kind": "FromJSON"}}`)

	t.Setenv("DSIDENTITY_PROJECT_ID", "from-env")
	t.Setenv("DSIDENTITY_USER_KIND", "FromEnv")
	t.Setenv("DSIDENTITY_ROLE_MANAGE_INDICES", "false")

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", opts.ProjectID)
	assert.Equal(t, "FromEnv", opts.User.Kind)
	assert.False(t, opts.Role.ManageIndices)
}

func TestLoadOptions_FileErrors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeConfigFile(t, `{not json`)
	_, err = LoadOptions(path)
	assert.Error(t, err)
}
