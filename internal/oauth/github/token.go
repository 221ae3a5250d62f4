package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AccessToken is the bearer credential returned by the token endpoint. It lives for one flow.
type AccessToken struct {
	Value     string
	Scope     string
	TokenType string
}

// String omits the token value.
func (t AccessToken) String() string {
	return fmt.Sprintf("AccessToken{type=%q scope=%q value=<redacted>}", t.TokenType, t.Scope)
}

// TokenParser decodes a 2xx token endpoint body.
type TokenParser func(body []byte) (*AccessToken, error)

// ParseFormToken decodes GitHub's default plain-text response,
// access_token=...&scope=...&token_type=..., in any field order. Unknown fields are ignored and
// the first occurrence of a field wins. A provider error field (returned with HTTP 200) fails
// with its error code.
func ParseFormToken(body []byte) (*AccessToken, error) {
	fields := make(map[string]string)
	for _, pair := range strings.Split(strings.TrimSpace(string(body)), "&") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed response", ErrTokenExchange)
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed response", ErrTokenExchange)
		}
		if _, seen := fields[key]; !seen {
			fields[key] = val
		}
	}
	return tokenFromFields(fields["access_token"], fields["scope"], fields["token_type"], fields["error"])
}

// ParseJSONToken decodes the response GitHub sends when asked for application/json.
func ParseJSONToken(body []byte) (*AccessToken, error) {
	var raw struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
		TokenType   string `json:"token_type"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed response", ErrTokenExchange)
	}
	return tokenFromFields(raw.AccessToken, raw.Scope, raw.TokenType, raw.Error)
}

func tokenFromFields(value, scope, tokenType, providerErr string) (*AccessToken, error) {
	if providerErr != "" {
		return nil, fmt.Errorf("%w: provider error %q", ErrTokenExchange, errorCode(providerErr))
	}
	if value == "" {
		return nil, fmt.Errorf("%w: response has no access_token", ErrTokenExchange)
	}
	return &AccessToken{Value: value, Scope: scope, TokenType: tokenType}, nil
}

// errorCode keeps the provider error code readable and bounded.
func errorCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= 64 {
			break
		}
		if r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExchangeCode trades an authorization code for an access token. One request, no retries.
// Errors wrap ErrTokenExchange and carry at most the HTTP status or the provider error code.
func (c *Client) ExchangeCode(ctx context.Context, code string, cfg Config) (*AccessToken, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrTokenExchange)
	}
	cfg = cfg.WithDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	ctx, span := startSpan(ctx, "github.ExchangeCode", endpointToken)

	form := url.Values{}
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, NewEndpoints(cfg).Token, strings.NewReader(form.Encode()))
	if err != nil {
		err = fmt.Errorf("%w: build request", ErrTokenExchange)
		endSpan(span, 0, err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", c.tokenAccept)
	req.Header.Set("User-Agent", userAgent)

	status, body, err := c.do(c.tokenHTTP, req, endpointToken)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTokenExchange, err)
		endSpan(span, status, err)
		return nil, err
	}
	if status < 200 || status > 299 {
		err = fmt.Errorf("%w: status %d", ErrTokenExchange, status)
		endSpan(span, status, err)
		return nil, err
	}

	tok, err := c.parseToken(body)
	if err != nil {
		endSpan(span, status, err)
		return nil, err
	}
	endSpan(span, status, nil)
	return tok, nil
}
