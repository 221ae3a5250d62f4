package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/githubauth/internal/auth"
	"github.com/dropDatabas3/githubauth/internal/config"
	"github.com/dropDatabas3/githubauth/internal/csrf"
	"github.com/dropDatabas3/githubauth/internal/http/handlers"
	"github.com/dropDatabas3/githubauth/internal/rate"
	"github.com/dropDatabas3/githubauth/internal/users"
)

type fakeGitHub struct {
	srv *httptest.Server

	tokenStatus int

	mu    sync.Mutex
	paths []string
}

func newFakeGitHub(t *testing.T, tokenStatus int) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{tokenStatus: tokenStatus}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		switch r.URL.Path {
		case "/login/oauth/access_token":
			w.WriteHeader(f.tokenStatus)
			_, _ = io.WriteString(w, "access_token=e72e16c7e42f292c6912e7710c838347ae178b4a&scope=user%2Cgist&token_type=bearer")
		case "/user":
			_, _ = io.WriteString(w, `{"login":"octocat","name":"monalisa octocat","email":"octocat@github.com"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type testEnv struct {
	gh      *fakeGitHub
	users   *users.MemoryRegistry
	handler http.Handler
}

func newTestEnv(t *testing.T, enabled bool) *testEnv {
	return newTestEnvWithToken(t, enabled, http.StatusOK)
}

func newTestEnvWithToken(t *testing.T, enabled bool, tokenStatus int) *testEnv {
	return newTestEnvWithLimiter(t, enabled, tokenStatus, nil)
}

func newTestEnvWithLimiter(t *testing.T, enabled bool, tokenStatus int, limiter rate.Limiter) *testEnv {
	t.Helper()
	gh := newFakeGitHub(t, tokenStatus)

	settings := config.NewGitHubSettings(config.GitHubSection{
		Enabled:      enabled,
		ClientID:     "the-client-id",
		ClientSecret: "the-client-secret",
		APIURL:       gh.srv.URL + "/",
		WebURL:       gh.srv.URL,
		Timeout:      2 * time.Second,
	}, "")

	states, err := csrf.NewManager(csrf.Options{Secret: []byte("router-test"), TTL: time.Minute, Store: csrf.NewMemoryStore()})
	require.NoError(t, err)

	reg := users.NewMemoryRegistry()
	gitHub := handlers.NewGitHub(handlers.Deps{
		Provider:  auth.NewProvider(auth.Deps{Settings: settings}),
		States:    states,
		Users:     reg,
		PublicURL: "https://app.example.com/",
	})
	return &testEnv{gh: gh, users: reg, handler: NewRouter(gitHub, nil, limiter)}
}

func (e *testEnv) do(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec.Result()
}

func (e *testEnv) login(t *testing.T, returnTo string) (state string, cookie *http.Cookie) {
	t.Helper()
	resp := e.do(httptest.NewRequest(http.MethodGet, "/auth/github/login?return_to="+url.QueryEscape(returnTo), nil))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login/oauth/authorize", loc.Path)
	require.Equal(t, "the-client-id", loc.Query().Get("client_id"))
	require.Equal(t, "https://app.example.com/auth/github/callback", loc.Query().Get("redirect_uri"))

	state = loc.Query().Get("state")
	require.NotEmpty(t, state)
	for _, c := range resp.Cookies() {
		if c.Value == state {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	return state, cookie
}

func callbackRequest(query string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+query, nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return req
}

func decodeCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["code"]
}

func TestRouter_FullSignIn(t *testing.T) {
	env := newTestEnv(t, true)
	state, cookie := env.login(t, "/dashboard?tab=1")

	resp := env.do(callbackRequest("code=the-verifier-code&state="+url.QueryEscape(state), cookie))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard?tab=1", resp.Header.Get("Location"))
	require.Equal(t, []string{"/login/oauth/access_token", "/user"}, env.gh.calls())

	u, err := env.users.Get(context.Background(), "octocat@github")
	require.NoError(t, err)
	require.Equal(t, "monalisa octocat", u.Name)
	require.Equal(t, "octocat@github.com", u.Email)

	// single use
	resp = env.do(callbackRequest("code=the-verifier-code&state="+url.QueryEscape(state), cookie))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "INVALID_STATE", decodeCode(t, resp))
	require.Len(t, env.gh.calls(), 2)
}

func TestRouter_CallbackWithoutCookieIsRejected(t *testing.T) {
	env := newTestEnv(t, true)
	state, _ := env.login(t, "/")

	resp := env.do(callbackRequest("code=c&state="+url.QueryEscape(state), nil))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, env.gh.calls())
}

func TestRouter_CallbackWithForeignState(t *testing.T) {
	env := newTestEnv(t, true)
	_, cookie := env.login(t, "/")

	resp := env.do(callbackRequest("code=c&state=attacker-state", cookie))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, env.gh.calls())
}

func TestRouter_MissingCode(t *testing.T) {
	env := newTestEnv(t, true)
	state, cookie := env.login(t, "/")

	resp := env.do(callbackRequest("error=access_denied&state="+url.QueryEscape(state), cookie))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "MISSING_CODE", decodeCode(t, resp))
	require.Empty(t, env.gh.calls())
}

func TestRouter_TokenFailureIsBadGateway(t *testing.T) {
	env := newTestEnvWithToken(t, true, http.StatusInternalServerError)
	state, cookie := env.login(t, "/")

	resp := env.do(callbackRequest("code=c&state="+url.QueryEscape(state), cookie))
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.NotContains(t, string(body), "the-client-secret")
	require.Equal(t, []string{"/login/oauth/access_token"}, env.gh.calls())

	_, err := env.users.Get(context.Background(), "octocat@github")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestRouter_UnsafeReturnToFallsBackToRoot(t *testing.T) {
	env := newTestEnv(t, true)
	state, cookie := env.login(t, "https://evil.example.com/")

	resp := env.do(callbackRequest("code=c&state="+url.QueryEscape(state), cookie))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestRouter_Disabled(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.do(httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "PROVIDER_DISABLED", decodeCode(t, resp))

	resp = env.do(callbackRequest("code=c&state=s", nil))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Empty(t, env.gh.calls())
}

func TestRouter_SignInIsRateLimited(t *testing.T) {
	l, err := rate.NewMemoryLimiter(2, time.Minute)
	require.NoError(t, err)
	env := newTestEnvWithLimiter(t, true, http.StatusOK, l)

	env.login(t, "/")
	env.login(t, "/")

	resp := env.do(httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "TOO_MANY_REQUESTS", decodeCode(t, resp))

	// infra routes are not limited
	resp = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Infra(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", decodeCode(t, resp))

	resp = env.do(httptest.NewRequest(http.MethodPost, "/auth/github/callback", strings.NewReader("")))
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}), ServerConfig{ShutdownTimeout: time.Second})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
