package config

import (
	"fmt"

	"github.com/vilaca/gitlab-ci-status/internal/api"
)

// Section is the git config section holding the GitLab settings.
const Section = "gitlab"

// Git config keys read from Section.
const (
	KeyServer      = "server"
	KeyAccessToken = "access-token"
	KeyProjectName = "project-name"
)

// GitLabConfig holds the GitLab connection settings of a repository.
// Only holds configuration data.
type GitLabConfig struct {
	Server      string
	AccessToken string
	ProjectName string
}

// Store is a flat key-value configuration source, such as a repository's git config.
type Store interface {
	ConfigValue(section, key string) (string, bool, error)
}

// ConfigError reports a required configuration key that is not set.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s not found in .git/config (set it with: git config --local %s <value>)", e.Key, e.Key)
}

// Load reads the GitLab settings from store.
// Keys are read in a fixed order and the first missing one is reported.
func Load(store Store) (*GitLabConfig, error) {
	server, err := lookup(store, KeyServer)
	if err != nil {
		return nil, err
	}

	token, err := lookup(store, KeyAccessToken)
	if err != nil {
		return nil, err
	}

	project, err := lookup(store, KeyProjectName)
	if err != nil {
		return nil, err
	}

	return &GitLabConfig{
		Server:      server,
		AccessToken: token,
		ProjectName: project,
	}, nil
}

// ClientConfig returns the settings needed to build an API client.
func (c *GitLabConfig) ClientConfig() api.ClientConfig {
	return api.ClientConfig{
		BaseURL: c.Server,
		Token:   c.AccessToken,
		Project: c.ProjectName,
	}
}

func lookup(store Store, key string) (string, error) {
	value, ok, err := store.ConfigValue(Section, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ConfigError{Key: Section + "." + key}
	}
	return value, nil
}
