package config

import (
	"fmt"
	"strings"

	"github.com/dropDatabas3/githubauth/internal/oauth/github"
	"github.com/dropDatabas3/githubauth/internal/security/secretbox"
)

// GitHubSettings is a value view over the github config block. Reads have no side effects and
// substitute defaults for empty values.
type GitHubSettings struct {
	raw       GitHubSection
	masterKey string
}

// NewGitHubSettings builds an accessor outside of Load, e.g. in tests or tools.
func NewGitHubSettings(raw GitHubSection, masterKey string) GitHubSettings {
	return GitHubSettings{raw: raw, masterKey: masterKey}
}

func (s GitHubSettings) IsEnabled() bool { return s.raw.Enabled }

func (s GitHubSettings) ClientID() (string, error) {
	id := strings.TrimSpace(s.raw.ClientID)
	if id == "" && s.raw.Enabled {
		return "", fmt.Errorf("%w: github.client_id is not set", github.ErrConfiguration)
	}
	return id, nil
}

// ClientSecret returns the plain secret, decrypting enc: values with the secretbox master key.
func (s GitHubSettings) ClientSecret() (string, error) {
	v := strings.TrimSpace(s.raw.ClientSecret)
	if v == "" {
		if s.raw.Enabled {
			return "", fmt.Errorf("%w: github.client_secret is not set", github.ErrConfiguration)
		}
		return "", nil
	}
	if !secretbox.IsEncrypted(v) {
		return v, nil
	}

	if strings.TrimSpace(s.masterKey) == "" {
		return "", fmt.Errorf("%w: github.client_secret is encrypted but %s is not set", github.ErrConfiguration, secretbox.EnvMasterKey)
	}
	key, err := secretbox.ParseKey(s.masterKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", github.ErrConfiguration, err)
	}
	plain, err := secretbox.Decrypt(key, v)
	if err != nil {
		return "", fmt.Errorf("%w: github.client_secret: %v", github.ErrConfiguration, err)
	}
	return plain, nil
}

func (s GitHubSettings) APIBaseURL() string {
	if v := strings.TrimSpace(s.raw.APIURL); v != "" {
		return v
	}
	return github.DefaultAPIBaseURL
}

func (s GitHubSettings) WebBaseURL() string {
	if v := strings.TrimSpace(s.raw.WebURL); v != "" {
		return v
	}
	return github.DefaultWebBaseURL
}

// ProviderConfig takes the immutable snapshot one flow runs with.
func (s GitHubSettings) ProviderConfig() (github.Config, error) {
	id, err := s.ClientID()
	if err != nil {
		return github.Config{}, err
	}
	secret, err := s.ClientSecret()
	if err != nil {
		return github.Config{}, err
	}
	cfg := github.Config{
		ClientID:     id,
		ClientSecret: secret,
		Enabled:      s.raw.Enabled,
		APIBaseURL:   s.APIBaseURL(),
		WebBaseURL:   s.WebBaseURL(),
		Scope:        s.raw.Scope,
		Timeout:      s.raw.Timeout,
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return github.Config{}, err
	}
	return cfg, nil
}
