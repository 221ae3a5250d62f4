// Package auth runs the GitHub sign-in flow on behalf of a host web layer.
//
// The host owns the HTTP exchange, CSRF state storage, sessions and redirects. It hands the
// provider a CallbackContext (or InitContext) and the provider drives the steps:
//
//	START -> CSRF_VERIFIED -> TOKEN_OBTAINED -> PROFILE_FETCHED -> IDENTITY_ASSERTED -> REDIRECTED
//
// Any failing step ends in FAILED and nothing after it runs.
package auth
