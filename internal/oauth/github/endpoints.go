package github

import (
	"strings"

	"golang.org/x/oauth2"
)

// Endpoints are the absolute URLs of the three GitHub endpoints the flow touches.
type Endpoints struct {
	Authorize string
	Token     string
	Profile   string
}

// NewEndpoints derives the endpoint URLs from the configured base URLs. Both bases may end in a
// slash and may point at a GitHub Enterprise host or a local stand-in.
//
// The token endpoint lives on the web host, like the authorize page; only the profile is served
// by the REST API host. Token is therefore {WebBaseURL}/login/oauth/access_token, not a path
// under APIBaseURL: on GitHub Enterprise the API base is https://host/api/v3 while the OAuth
// endpoints stay at https://host/login/oauth.
func NewEndpoints(cfg Config) Endpoints {
	cfg = cfg.WithDefaults()
	web := strings.TrimRight(strings.TrimSpace(cfg.WebBaseURL), "/")
	api := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	return Endpoints{
		Authorize: web + "/login/oauth/authorize",
		Token:     web + "/login/oauth/access_token",
		Profile:   api + "/user",
	}
}

// OAuth2Config adapts cfg to golang.org/x/oauth2.
func OAuth2Config(cfg Config, redirectURI string) *oauth2.Config {
	cfg = cfg.WithDefaults()
	ep := NewEndpoints(cfg)
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       splitScopes(cfg.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   ep.Authorize,
			TokenURL:  ep.Token,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthCodeURL builds the authorize URL the browser is sent to at the start of the flow.
func AuthCodeURL(cfg Config, state, redirectURI string) string {
	return OAuth2Config(cfg, redirectURI).AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "true"))
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
