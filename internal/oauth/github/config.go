package github

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL = "https://api.github.com/"
	DefaultWebBaseURL = "https://github.com/"
	DefaultScope      = "user:email"
	DefaultTimeout    = 10 * time.Second
)

// Config is an immutable snapshot of the provider settings used for one flow.
type Config struct {
	ClientID     string
	ClientSecret string
	Enabled      bool
	APIBaseURL   string
	WebBaseURL   string
	Scope        string
	Timeout      time.Duration
}

// WithDefaults returns a copy with empty optional fields filled in.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if strings.TrimSpace(c.WebBaseURL) == "" {
		c.WebBaseURL = DefaultWebBaseURL
	}
	if strings.TrimSpace(c.Scope) == "" {
		c.Scope = DefaultScope
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks the credentials are present when the provider is enabled and that both base
// URLs are absolute http(s) URLs.
func (c Config) Validate() error {
	c = c.WithDefaults()
	if c.Enabled {
		if strings.TrimSpace(c.ClientID) == "" {
			return fmt.Errorf("%w: client id is not set", ErrConfiguration)
		}
		if strings.TrimSpace(c.ClientSecret) == "" {
			return fmt.Errorf("%w: client secret is not set", ErrConfiguration)
		}
	}
	if err := validateBaseURL("api base url", c.APIBaseURL); err != nil {
		return err
	}
	return validateBaseURL("web base url", c.WebBaseURL)
}

// String never prints the client secret.
func (c Config) String() string {
	secret := ""
	if c.ClientSecret != "" {
		secret = "<redacted>"
	}
	return fmt.Sprintf("github.Config{ClientID:%q ClientSecret:%s Enabled:%t APIBaseURL:%q WebBaseURL:%q Scope:%q Timeout:%s}",
		c.ClientID, secret, c.Enabled, c.APIBaseURL, c.WebBaseURL, c.Scope, c.Timeout)
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s %q is not an absolute http(s) url", ErrConfiguration, name, raw)
	}
	return nil
}
