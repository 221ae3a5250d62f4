// Package csrf issues and verifies the OAuth state parameter.
//
// A state is a short HS256 JWT carrying a random id and the page to return to after sign-in.
// The id is recorded in a Store when issued and consumed on verification, so each state is
// accepted at most once.
package csrf
