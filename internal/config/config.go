package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "ghasreport/internal/errors"
)

const (
	defaultAPIURL     = "https://api.github.com"
	defaultAPIVersion = "2022-11-28"

	// APIKeyEnv overrides the configured credential when set.
	APIKeyEnv = "GH_API_KEY"
)

// Connection holds the API endpoint settings shared by every project.
type Connection struct {
	APIURL     string `json:"gh_api_url"`
	APIKey     string `json:"gh_api_key"`
	APIVersion string `json:"gh_api_version"`
}

// Location holds filesystem settings.
type Location struct {
	Reports string `json:"reports"`
}

// Project is one reporting unit: a set of organizations and a set of
// repositories under a single owner.
type Project struct {
	Owner         string   `json:"owner"`
	Organizations []string `json:"organizations"`
	Repositories  []string `json:"repositories"`
}

// Config is the parsed ghas_config.json.
type Config struct {
	Connection Connection         `json:"connection"`
	Location   Location           `json:"location"`
	Projects   map[string]Project `json:"projects"`
}

// Load reads and validates the configuration file at path. The GH_API_KEY
// environment variable takes precedence over the configured credential.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("reading %s", path), err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("%s is not valid JSON", path), err)
	}

	if cfg.Connection.APIURL == "" {
		cfg.Connection.APIURL = defaultAPIURL
	}
	if cfg.Connection.APIVersion == "" {
		cfg.Connection.APIVersion = defaultAPIVersion
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Connection.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Connection.APIKey == "" {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("no API key configured; set connection.gh_api_key or the %s environment variable", APIKeyEnv), nil)
	}
	for name, p := range c.Projects {
		if len(p.Repositories) > 0 && hasNonEmpty(p.Repositories) && p.Owner == "" {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("project %q lists repositories but no owner", name), nil)
		}
	}
	return nil
}

func hasNonEmpty(names []string) bool {
	for _, n := range names {
		if n != "" {
			return true
		}
	}
	return false
}

// ProjectNames returns the configured project names in stable sorted order.
func (c *Config) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
