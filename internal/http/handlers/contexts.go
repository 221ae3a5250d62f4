package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/dropDatabas3/githubauth/internal/identity"
	"github.com/dropDatabas3/githubauth/internal/users"
)

var errStateMismatch = errors.New("handlers: state does not match the browser cookie")

// initContext binds auth.InitContext to one login request.
type initContext struct {
	h        *GitHub
	w        http.ResponseWriter
	r        *http.Request
	returnTo string
}

// GenerateCSRFState issues a state and pins it to the browser with a short-lived cookie.
func (c *initContext) GenerateCSRFState() (string, error) {
	state, err := c.h.d.States.Generate(c.r.Context(), c.returnTo)
	if err != nil {
		return "", err
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     CallbackPath,
		HttpOnly: true,
		Secure:   c.h.d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.h.d.StateTTL.Seconds()),
	})
	return state, nil
}

func (c *initContext) CallbackURL() string { return c.h.callbackURL() }

func (c *initContext) Redirect(url string) error {
	http.Redirect(c.w, c.r, url, http.StatusFound)
	return nil
}

// callbackContext binds auth.CallbackContext to one callback request.
type callbackContext struct {
	h        *GitHub
	w        http.ResponseWriter
	r        *http.Request
	returnTo string
	user     *users.User
}

// VerifyCSRFState requires the state query parameter to match the cookie set at login, then
// consumes it. The cookie is cleared either way.
func (c *callbackContext) VerifyCSRFState() error {
	state := c.r.URL.Query().Get("state")
	cookie, err := c.r.Cookie(stateCookieName)
	c.clearStateCookie()
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return errStateMismatch
	}

	claims, err := c.h.d.States.Verify(c.r.Context(), state)
	if err != nil {
		return err
	}
	c.returnTo = SafeReturnTo(claims.ReturnTo)
	return nil
}

func (c *callbackContext) clearStateCookie() {
	http.SetCookie(c.w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     CallbackPath,
		HttpOnly: true,
		Secure:   c.h.d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (c *callbackContext) Request() *http.Request { return c.r }

func (c *callbackContext) Authenticate(id identity.Identity) error {
	u, err := c.h.d.Users.Upsert(c.r.Context(), id)
	if err != nil {
		return err
	}
	c.user = u
	return nil
}

func (c *callbackContext) RedirectToRequestedPage() error {
	target := c.returnTo
	if target == "" {
		target = "/"
	}
	http.Redirect(c.w, c.r, target, http.StatusFound)
	return nil
}
