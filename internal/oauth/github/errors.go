package github

import "errors"

var (
	// ErrConfiguration reports missing or invalid provider settings.
	ErrConfiguration = errors.New("github: invalid configuration")
	// ErrTokenExchange reports any failure turning an authorization code into an access token.
	ErrTokenExchange = errors.New("github: token exchange failed")
	// ErrProfileFetch reports any failure reading the authenticated user's profile.
	ErrProfileFetch = errors.New("github: profile fetch failed")
)
