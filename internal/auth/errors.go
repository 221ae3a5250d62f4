package auth

import "errors"

var (
	ErrProviderDisabled = errors.New("auth: github provider is disabled")
	ErrMissingCode      = errors.New("auth: callback has no authorization code")
)
