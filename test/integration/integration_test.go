package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/resources"
	"github.com/ganot/impala/internal/session"
	"github.com/ganot/impala/internal/state"
	"github.com/ganot/impala/internal/testserver"
)

type testEnv struct {
	server   *testserver.TestServer
	db       *state.DB
	tokens   *state.TokenStore
	client   *api.Client
	sessions *session.Manager
	syncer   *resources.Syncer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	server := testserver.New(t)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := state.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	tokens := state.NewTokenStore(db, server.URL())
	client := api.NewClient(server.URL(), tokens, 5*time.Second, nil)
	sessions := session.NewManager(tokens, client, nil)
	syncer := resources.NewSyncer(client, nil)

	return &testEnv{
		server:   server,
		db:       db,
		tokens:   tokens,
		client:   client,
		sessions: sessions,
		syncer:   syncer,
	}
}

// login registers an account over HTTP and logs it in, returning the
// issued token.
func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, env.client.Register(ctx, api.Credentials{Username: username, Password: password}))
	token, err := env.client.Login(ctx, api.Credentials{Username: username, Password: password})
	require.NoError(t, err)
	require.NoError(t, env.sessions.Login(ctx, token))
	return token
}

func TestFullRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "ada", "secret")

	sess := env.sessions.Current()
	require.Equal(t, session.StatusAuthenticated, sess.Status)
	require.Equal(t, "ada", sess.User.Username)

	// Create a project, then pull the confirmed list.
	project, err := env.client.CreateProject(ctx, api.CreateProjectRequest{Name: "Alpha", Description: "first"})
	require.NoError(t, err)
	require.NotZero(t, project.ID)

	require.NoError(t, env.syncer.LoadProjects(ctx))
	projects := env.syncer.Projects()
	require.Len(t, projects, 1)
	require.Equal(t, "Alpha", projects[0].Name)

	// Upload a CSV and create a canvas, refetching after each mutation.
	require.NoError(t, env.syncer.OpenProject(ctx, project.ID))
	require.NoError(t, env.client.UploadCSV(ctx, project.ID, "sales.csv", strings.NewReader("a,b\n1,2\n")))
	require.NoError(t, env.syncer.NotifyMutation(ctx, resources.MutationUploadCompleted, project.ID))

	_, err = env.client.CreateCanvas(ctx, project.ID, api.CreateCanvasRequest{Name: "Q3"})
	require.NoError(t, err)
	require.NoError(t, env.syncer.NotifyMutation(ctx, resources.MutationCanvasCreated, project.ID))

	detail := env.syncer.Detail()
	require.NotNil(t, detail)
	require.Len(t, detail.DataSources, 1)
	require.Equal(t, "sales.csv", detail.DataSources[0].FileName)
	require.Len(t, detail.Canvases, 1)
	require.Equal(t, "Q3", detail.Canvases[0].Name)
}

func TestProjectListIsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "ada", "secret")

	for _, name := range []string{"first", "second", "third"} {
		_, err := env.client.CreateProject(ctx, api.CreateProjectRequest{Name: name})
		require.NoError(t, err)
	}

	require.NoError(t, env.syncer.LoadProjects(ctx))
	projects := env.syncer.Projects()
	require.Len(t, projects, 3)
	require.Equal(t, "third", projects[0].Name)
	require.Equal(t, "first", projects[2].Name)
}

func TestDuplicateUsernameIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.Register(ctx, api.Credentials{Username: "ada", Password: "secret"}))
	err := env.client.Register(ctx, api.Credentials{Username: "ada", Password: "other"})

	var vErr *api.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Username already exists.", vErr.Detail)
}

func TestWrongPasswordIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.Register(ctx, api.Credentials{Username: "ada", Password: "secret"}))
	_, err := env.client.Login(ctx, api.Credentials{Username: "ada", Password: "wrong"})
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRevokedTokenDemotesSessionOnRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token := env.login(t, "ada", "secret")
	require.Equal(t, session.StatusAuthenticated, env.sessions.Current().Status)

	env.server.RevokeToken(token)
	require.Error(t, env.sessions.Refresh(ctx))
	require.Equal(t, session.StatusAnonymous, env.sessions.Current().Status)

	// The stale token is gone from the store too.
	stored, err := env.tokens.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestTokenSurvivesRestartAndRehydrates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "ada", "secret")

	// A fresh manager over the same store simulates a process restart.
	restarted := session.NewManager(env.tokens, env.client, nil)
	require.Equal(t, session.StatusAnonymous, restarted.Current().Status)

	require.NoError(t, restarted.Refresh(ctx))
	sess := restarted.Current()
	require.Equal(t, session.StatusAuthenticated, sess.Status)
	require.Equal(t, "ada", sess.User.Username)
}

func TestProfileUpdateRefetchesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "ada", "secret")
	require.NoError(t, env.sessions.UpdateProfile(ctx, api.ProfileUpdate{FirstName: "Ada", LastName: "Lovelace"}))

	user := env.sessions.Current().User
	require.Equal(t, "Ada", user.FirstName)
	require.Equal(t, "Lovelace", user.LastName)
}

func TestUnknownProjectIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "ada", "secret")

	_, err := env.client.ListDataSources(ctx, 9999)
	require.ErrorIs(t, err, api.ErrNotFound)

	require.NoError(t, env.syncer.OpenProject(ctx, 9999))
	detail := env.syncer.Detail()
	require.NotNil(t, detail)
	require.True(t, detail.NotFound)
}

func TestNonCSVUploadRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "ada", "secret")

	project, err := env.client.CreateProject(ctx, api.CreateProjectRequest{Name: "Alpha"})
	require.NoError(t, err)

	err = env.client.UploadCSV(ctx, project.ID, "notes.txt", strings.NewReader("hello"))
	var vErr *api.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Only CSV files are supported.", vErr.Detail)
}

func TestProjectsAreScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "ada", "secret")
	project, err := env.client.CreateProject(ctx, api.CreateProjectRequest{Name: "Alpha"})
	require.NoError(t, err)

	// Switch to a different account against the same server.
	env.login(t, "grace", "secret")
	projects, err := env.client.ListProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, projects)

	_, err = env.client.ListCanvases(ctx, project.ID)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestLogoutClearsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "ada", "secret")
	_, err := env.client.CreateProject(ctx, api.CreateProjectRequest{Name: "Alpha"})
	require.NoError(t, err)
	require.NoError(t, env.syncer.LoadProjects(ctx))
	require.Len(t, env.syncer.Projects(), 1)

	require.NoError(t, env.sessions.Logout(ctx))
	require.NoError(t, env.syncer.HandleSession(ctx, env.sessions.Current()))
	require.Empty(t, env.syncer.Projects())

	// Anonymous requests are rejected.
	_, err = env.client.ListProjects(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
}
