package github

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func profileServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	seen := new(http.Request)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.Clone(context.Background())
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestFetchProfile_Success(t *testing.T) {
	srv, seen := profileServer(t, http.StatusOK,
		`{"login":"octocat","id":583231,"name":"monalisa octocat","email":"octocat@github.com","site_admin":false}`)

	p, err := NewClient().FetchProfile(context.Background(), &AccessToken{Value: sampleToken}, testConfig(srv.URL+"/"))
	require.NoError(t, err)
	require.Equal(t, "octocat", p.Login)
	require.Equal(t, "monalisa octocat", p.Name)
	require.Equal(t, "octocat@github.com", p.Email)
	require.Equal(t, int64(583231), p.ID)

	require.Equal(t, http.MethodGet, seen.Method)
	require.Equal(t, "/user", seen.URL.Path)
	require.Equal(t, "Bearer "+sampleToken, seen.Header.Get("Authorization"))
}

func TestFetchProfile_OptionalFieldsAbsent(t *testing.T) {
	for _, body := range []string{`{"login":"octocat"}`, `{"login":"octocat","name":null,"email":null}`} {
		srv, _ := profileServer(t, http.StatusOK, body)
		p, err := NewClient().FetchProfile(context.Background(), &AccessToken{Value: "t"}, testConfig(srv.URL))
		require.NoError(t, err, body)
		require.Equal(t, "octocat", p.Login)
		require.Empty(t, p.Name)
		require.Empty(t, p.Email)
	}
}

func TestFetchProfile_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Bad credentials"}`},
		{"server error", http.StatusBadGateway, ``},
		{"not json", http.StatusOK, `<html>nope</html>`},
		{"array", http.StatusOK, `[{"login":"octocat"}]`},
		{"truncated", http.StatusOK, `{"login":"oct`},
		{"wrong type", http.StatusOK, `{"login":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := profileServer(t, tc.status, tc.body)
			_, err := NewClient().FetchProfile(context.Background(), &AccessToken{Value: sampleToken}, testConfig(srv.URL))
			require.ErrorIs(t, err, ErrProfileFetch)
			require.NotContains(t, err.Error(), sampleToken)
		})
	}
}

func TestFetchProfile_BodyTooLarge(t *testing.T) {
	big := `{"login":"octocat","bio":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	srv, _ := profileServer(t, http.StatusOK, big)
	_, err := NewClient().FetchProfile(context.Background(), &AccessToken{Value: "t"}, testConfig(srv.URL))
	require.ErrorIs(t, err, ErrProfileFetch)
}

func TestFetchProfile_NoToken(t *testing.T) {
	_, err := NewClient().FetchProfile(context.Background(), nil, testConfig("http://127.0.0.1:1"))
	require.ErrorIs(t, err, ErrProfileFetch)
}

func TestFetchProfile_NonIntegerIDIsIgnored(t *testing.T) {
	for _, body := range []string{
		`{"login":"octocat","id":"MDQ6VXNlcjE="}`,
		`{"login":"octocat","id":null}`,
		`{"login":"octocat","id":1.5}`,
		`{"login":"octocat","id":{"node":"x"}}`,
	} {
		srv, _ := profileServer(t, http.StatusOK, body)
		p, err := NewClient().FetchProfile(context.Background(), &AccessToken{Value: "t"}, testConfig(srv.URL))
		require.NoError(t, err, body)
		require.Equal(t, "octocat", p.Login)
		require.Zero(t, p.ID, body)
	}
}
