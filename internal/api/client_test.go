package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/impala/internal/api"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Get(ctx context.Context) (string, error) {
	return s.token, nil
}

func newClient(t *testing.T, handler http.Handler, token string) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL, &staticTokens{token: token}, 5*time.Second, nil)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"id":1,"username":"ada"}`))
	})

	client := newClient(t, handler, "secret-token")
	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer secret-token", gotAuth)
	require.Equal(t, "ada", user.Username)
}

func TestClient_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})

	client := newClient(t, handler, "")
	token, err := client.Login(context.Background(), api.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	require.Empty(t, gotAuth)
	require.Equal(t, "tok", token)
}

func TestClient_Unauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Could not validate credentials"}`, http.StatusUnauthorized)
	})

	client := newClient(t, handler, "expired")
	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestClient_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client := newClient(t, handler, "tok")
	_, err := client.ListDataSources(context.Background(), 99)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestClient_ValidationError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Username already exists."}`))
	})

	client := newClient(t, handler, "")
	err := client.Register(context.Background(), api.Credentials{Username: "ada", Password: "pw"})

	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, http.StatusBadRequest, verr.Status)
	require.Equal(t, "Username already exists.", verr.Detail)
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := api.NewClient(server.URL, &staticTokens{}, time.Second, nil)
	_, err := client.ListProjects(context.Background())

	var rerr *api.RequestError
	require.ErrorAs(t, err, &rerr)
}

func TestClient_TokenSourceFailure(t *testing.T) {
	client := api.NewClient("http://localhost:1", failingTokens{}, time.Second, nil)
	_, err := client.Me(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading token")
}

type failingTokens struct{}

func (failingTokens) Get(ctx context.Context) (string, error) {
	return "", errors.New("state database locked")
}

func TestClient_UploadCSV(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "sales.csv", header.Filename)
		w.WriteHeader(http.StatusCreated)
	})

	client := newClient(t, handler, "tok")
	err := client.UploadCSV(context.Background(), 7, "sales.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
}

func TestClient_CreateProject(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/projects", r.URL.Path)
		w.Write([]byte(`{"id":12,"name":"Alpha","description":"first"}`))
	})

	client := newClient(t, handler, "tok")
	proj, err := client.CreateProject(context.Background(), api.CreateProjectRequest{Name: "Alpha", Description: "first"})
	require.NoError(t, err)
	require.Equal(t, int64(12), proj.ID)
	require.Equal(t, "Alpha", proj.Name)
}
