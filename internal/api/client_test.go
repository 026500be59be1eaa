package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dashboard/internal/api"
	"dashboard/internal/apitest"
	"dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func TestDoSetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		token    api.CredentialSource
		wantAuth string
	}{
		{"with credential", staticToken("abc"), "Bearer abc"},
		{"without credential", staticToken(""), ""},
		{"nil source", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := api.NewClient(srv.URL, tt.token)
			var out map[string]bool
			require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, &out))

			assert.True(t, out["ok"])
			assert.Equal(t, "application/json", got.Get("Content-Type"))
			assert.Equal(t, tt.wantAuth, got.Get("Authorization"))
		})
	}
}

func TestDoReadsCredentialOnEveryCall(t *testing.T) {
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	tok := &mutableToken{}
	c := api.NewClient(srv.URL, tok)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/", nil, nil))
	tok.v = "later"
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/", nil, nil))

	assert.Equal(t, []string{"", "Bearer later"}, auths)
}

type mutableToken struct{ v string }

func (m *mutableToken) Token() (string, bool) { return m.v, m.v != "" }

func TestDoSendsJSONBody(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL+"/", nil)
	err := c.Do(context.Background(), http.MethodPost, "/api/todos", map[string]string{"title": "x"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, body)
}

func TestDoNon2xx(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"body text is carried", http.StatusBadRequest, "title is required\n", "title is required"},
		{"empty body uses generic message", http.StatusInternalServerError, "", api.DefaultErrorMessage},
		{"unauthorized", http.StatusUnauthorized, "nope", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := api.NewClient(srv.URL, nil)
			var out any
			err := c.Do(context.Background(), http.MethodGet, "/thing", nil, &out)
			require.Error(t, err)

			var re *api.RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.Status)
			assert.Equal(t, tt.wantMsg, re.Message)
			assert.Equal(t, tt.status == http.StatusUnauthorized, api.IsUnauthorized(err))
		})
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := api.NewClient(url, nil)
	err := c.Do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)

	var re *api.RequestError
	assert.False(t, errors.As(err, &re), "network failures are not request errors")
}

func TestDoEmptySuccessBodySkipsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, nil)
	var out models.Todo
	assert.NoError(t, c.Do(context.Background(), http.MethodDelete, "/api/todos/1", nil, &out))
}

func TestDoInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, nil)
	var out models.Todo
	err := c.Do(context.Background(), http.MethodGet, "/", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestAuthEndpointsAgainstFakeAPI(t *testing.T) {
	fake := apitest.New("secret")
	srv := httptest.NewServer(fake.Routes())
	defer srv.Close()

	c := api.NewClient(srv.URL, nil)
	ctx := context.Background()

	reg, err := c.Register(ctx, "ann", "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ann", reg.Username)
	assert.NotEmpty(t, reg.Token)

	_, err = c.Register(ctx, "ann", "ann@example.com", "pw")
	var re *api.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusConflict, re.Status)

	login, err := c.Login(ctx, "ann@example.com", "pw")
	require.NoError(t, err)
	id := login.Identity()
	assert.Equal(t, models.Identity{Username: "ann", Email: "ann@example.com", Role: models.RoleUser}, *id)

	_, err = c.Login(ctx, "ann@example.com", "bad")
	assert.True(t, api.IsUnauthorized(err))

	authed := api.NewClient(srv.URL, staticToken(login.Token))
	_, err = authed.AdminStats(ctx)
	assert.True(t, api.IsUnauthorized(err), "non-admins get 403")
}
