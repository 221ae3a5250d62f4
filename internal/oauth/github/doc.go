// Package github talks to GitHub's OAuth 2.0 endpoints.
//
// GitHub issues no ID token: after exchanging the authorization code the caller fetches the
// profile from a separate REST endpoint. The token endpoint answers in
// application/x-www-form-urlencoded by default, sometimes with HTTP 200 and an error field.
package github
