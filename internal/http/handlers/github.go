// Package handlers serves the GitHub sign-in endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/githubauth/internal/auth"
	"github.com/dropDatabas3/githubauth/internal/csrf"
	httperrors "github.com/dropDatabas3/githubauth/internal/http/errors"
	"github.com/dropDatabas3/githubauth/internal/identity"
	"github.com/dropDatabas3/githubauth/internal/oauth/github"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
	"github.com/dropDatabas3/githubauth/internal/users"
)

const (
	LoginPath    = "/auth/github/login"
	CallbackPath = "/auth/github/callback"

	stateCookieName = "gh_oauth_state"
)

// Provider is the sign-in flow the handlers drive. *auth.Provider implements it.
type Provider interface {
	Init(ic auth.InitContext) error
	Callback(cc auth.CallbackContext) error
}

// StateManager issues and consumes CSRF states. *csrf.Manager implements it.
type StateManager interface {
	Generate(ctx context.Context, returnTo string) (string, error)
	Verify(ctx context.Context, state string) (*csrf.Claims, error)
}

type Deps struct {
	Provider Provider
	States   StateManager
	Users    users.Registry
	// PublicURL is the externally visible base URL; the callback URL is derived from it.
	PublicURL string
	// SecureCookies sets the Secure flag on the state cookie. Off only for plain-http dev.
	SecureCookies bool
	StateTTL      time.Duration
}

type GitHub struct {
	d Deps
}

func NewGitHub(d Deps) *GitHub {
	if d.StateTTL <= 0 {
		d.StateTTL = 10 * time.Minute
	}
	return &GitHub{d: d}
}

func (h *GitHub) callbackURL() string {
	return strings.TrimRight(h.d.PublicURL, "/") + CallbackPath
}

// Login handles GET /auth/github/login?return_to=/path.
func (h *GitHub) Login(w http.ResponseWriter, r *http.Request) {
	ic := &initContext{h: h, w: w, r: r, returnTo: SafeReturnTo(r.URL.Query().Get("return_to"))}
	if err := h.d.Provider.Init(ic); err != nil {
		h.fail(w, r, err)
	}
}

// Callback handles GET /auth/github/callback?code=...&state=....
func (h *GitHub) Callback(w http.ResponseWriter, r *http.Request) {
	cc := &callbackContext{h: h, w: w, r: r}
	if e := r.URL.Query().Get("error"); e != "" {
		logger.From(r.Context()).Info("github returned an authorization error", logger.String("github_error", e))
	}
	if err := h.d.Provider.Callback(cc); err != nil {
		h.fail(w, r, err)
		return
	}
	if cc.user != nil {
		logger.From(r.Context()).Info("github sign-in completed", logger.UserID(cc.user.ID), logger.Login(cc.user.Login))
	}
}

func (h *GitHub) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := MapError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("github sign-in failed", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// MapError turns flow errors into HTTP errors with generic details.
func MapError(err error) *httperrors.AppError {
	var appErr *httperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, auth.ErrProviderDisabled):
		return httperrors.ErrProviderDisabled.WithCause(err)
	case errors.Is(err, github.ErrConfiguration):
		return httperrors.ErrMisconfigured.WithCause(err)
	case errors.Is(err, errStateMismatch),
		errors.Is(err, csrf.ErrStateMissing),
		errors.Is(err, csrf.ErrStateInvalid),
		errors.Is(err, csrf.ErrStateReplayed):
		return httperrors.ErrInvalidState.WithCause(err)
	case errors.Is(err, csrf.ErrStateExpired):
		return httperrors.ErrInvalidState.WithDetail("sign-in took too long, please retry").WithCause(err)
	case errors.Is(err, auth.ErrMissingCode):
		return httperrors.ErrMissingCode.WithCause(err)
	case errors.Is(err, github.ErrTokenExchange):
		return httperrors.ErrUpstream.WithDetail("token exchange failed").WithCause(err)
	case errors.Is(err, github.ErrProfileFetch):
		return httperrors.ErrUpstream.WithDetail("profile fetch failed").WithCause(err)
	case errors.Is(err, identity.ErrMapping):
		return httperrors.ErrIdentityRejected.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

// SafeReturnTo accepts only local absolute paths; anything else becomes "/".
func SafeReturnTo(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '/' || strings.HasPrefix(s, "//") || strings.ContainsAny(s, "\\\r\n\t") {
		return "/"
	}
	return s
}
