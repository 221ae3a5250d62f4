package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// RawProfile is the subset of GET /user the flow needs. Name and Email are empty when GitHub
// omits them or sends null; ID is zero when absent or not an integer.
type RawProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FetchProfile reads the authenticated user's profile. Errors wrap ErrProfileFetch.
func (c *Client) FetchProfile(ctx context.Context, token *AccessToken, cfg Config) (*RawProfile, error) {
	if token == nil || strings.TrimSpace(token.Value) == "" {
		return nil, fmt.Errorf("%w: no access token", ErrProfileFetch)
	}
	cfg = cfg.WithDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	ctx, span := startSpan(ctx, "github.FetchProfile", endpointProfile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, NewEndpoints(cfg).Profile, nil)
	if err != nil {
		err = fmt.Errorf("%w: build request", ErrProfileFetch)
		endSpan(span, 0, err)
		return nil, err
	}
	// GitHub reports token_type "bearer"; the header is always sent as Bearer.
	(&oauth2.Token{AccessToken: token.Value, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	status, body, err := c.do(c.http, req, endpointProfile)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrProfileFetch, err)
		endSpan(span, status, err)
		return nil, err
	}
	if status < 200 || status > 299 {
		err = fmt.Errorf("%w: status %d", ErrProfileFetch, status)
		endSpan(span, status, err)
		return nil, err
	}

	prof, err := parseProfile(body)
	endSpan(span, status, err)
	return prof, err
}

func parseProfile(body []byte) (*RawProfile, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, fmt.Errorf("%w: response is not a json object", ErrProfileFetch)
	}
	var wire struct {
		ID    json.RawMessage `json:"id"`
		Login string          `json:"login"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed profile response", ErrProfileFetch)
	}
	p := &RawProfile{Login: wire.Login, Name: wire.Name, Email: wire.Email}
	if id, err := strconv.ParseInt(string(wire.ID), 10, 64); err == nil {
		p.ID = id
	}
	return p, nil
}
