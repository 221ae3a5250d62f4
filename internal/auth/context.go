package auth

import (
	"net/http"

	"github.com/dropDatabas3/githubauth/internal/identity"
)

// CallbackContext is implemented by the host for one callback request.
type CallbackContext interface {
	// VerifyCSRFState checks the state parameter against what the host issued at init.
	VerifyCSRFState() error
	Request() *http.Request
	// Authenticate asserts the identity, creating or updating the local user as needed.
	Authenticate(id identity.Identity) error
	RedirectToRequestedPage() error
}

// InitContext is implemented by the host for the request that starts a sign-in.
type InitContext interface {
	GenerateCSRFState() (string, error)
	// CallbackURL is the absolute URL GitHub sends the browser back to.
	CallbackURL() string
	Redirect(url string) error
}

// State is a step of the callback flow.
type State string

const (
	StateStart            State = "START"
	StateCSRFVerified     State = "CSRF_VERIFIED"
	StateTokenObtained    State = "TOKEN_OBTAINED"
	StateProfileFetched   State = "PROFILE_FETCHED"
	StateIdentityAsserted State = "IDENTITY_ASSERTED"
	StateRedirected       State = "REDIRECTED"
	StateFailed           State = "FAILED"
)
