package dskind

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// KindOptions configures one kind.
//
// ManageIndices declares that the composite indexes needed for dotted-path
// queries over embedded collections exist for this kind. When false, FindIn
// issues the narrowest single-path query and completes the match in memory.
type KindOptions struct {
	Kind          string `json:"kind" env:"KIND"`
	ManageIndices bool   `json:"manage_indices" env:"MANAGE_INDICES"`
}

// Options holds the connector settings consumed at construction.
//
// Fields:
//   - CredentialsFile: path to a service-account credentials file. Empty
//     means ambient credentials (or an emulator).
//   - ProjectID: the project owning the entity store.
//   - Namespace: partition for all keys and queries; empty is the default
//     namespace.
//   - KeyPrefix: optional prefix prepended to every kind name, letting
//     several deployments share one namespace.
//   - User / Role: per-kind settings for the two identity kinds.
type Options struct {
	CredentialsFile string      `json:"credentials_file" env:"CREDENTIALS_FILE"`
	ProjectID       string      `json:"project_id" env:"PROJECT_ID"`
	Namespace       string      `json:"namespace" env:"NAMESPACE"`
	KeyPrefix       string      `json:"key_prefix" env:"KEY_PREFIX"`
	User            KindOptions `json:"user" envPrefix:"USER_"`
	Role            KindOptions `json:"role" envPrefix:"ROLE_"`
}

// LoadDefaults populates Options with development defaults.
func (o *Options) LoadDefaults() {
	o.User = KindOptions{Kind: "Users", ManageIndices: true}
	o.Role = KindOptions{Kind: "Roles", ManageIndices: true}
}

// LoadOptions builds Options by applying defaults, then overlaying values
// from an optional JSON file, and finally from environment variables
// prefixed with DSIDENTITY_ (e.g. DSIDENTITY_PROJECT_ID,
// DSIDENTITY_USER_KIND).
func LoadOptions(jsonFile string) (*Options, error) {
	o := &Options{}
	o.LoadDefaults()

	if err := parseJSON(o, jsonFile); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(o, env.Options{Prefix: "DSIDENTITY_"}); err != nil {
		return nil, fmt.Errorf("config env error: %w", err)
	}

	return o, nil
}

// parseJSON overlays values from a JSON file onto o. An empty path means
// nothing to load. Absent JSON fields leave the current values in place.
func parseJSON(o *Options, jsonFile string) error {
	if jsonFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonFile)
	if err != nil {
		return fmt.Errorf("config file error: %w", err)
	}

	if err := json.Unmarshal(file, o); err != nil {
		return fmt.Errorf("config file error: %w", err)
	}

	return nil
}
