// Package identity maps a GitHub profile onto the local, provider-namespaced identity.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dropDatabas3/githubauth/internal/oauth/github"
)

// LoginSuffix namespaces GitHub logins so they cannot collide with local or other-provider
// accounts.
const LoginSuffix = "@github"

var ErrMapping = errors.New("identity: cannot map profile")

// Identity is what the host is asked to authenticate.
type Identity struct {
	Login      string
	Name       string
	Email      string // empty when GitHub does not expose one
	ProviderID string // decimal GitHub user id, empty when unknown
}

// Map is pure: the same profile always yields the same identity.
func Map(raw *github.RawProfile) (Identity, error) {
	if raw == nil {
		return Identity{}, fmt.Errorf("%w: no profile", ErrMapping)
	}
	login := strings.TrimSpace(raw.Login)
	if login == "" {
		return Identity{}, fmt.Errorf("%w: profile has no login", ErrMapping)
	}

	name := raw.Name
	if strings.TrimSpace(name) == "" {
		name = login
	}

	id := Identity{
		Login: login + LoginSuffix,
		Name:  name,
		Email: raw.Email,
	}
	if raw.ID > 0 {
		id.ProviderID = strconv.FormatInt(raw.ID, 10)
	}
	return id, nil
}
