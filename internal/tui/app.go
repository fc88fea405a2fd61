// Package tui renders the Impala client in the terminal. The root App
// model owns the current route, consults the navigation guard on every
// session change, and delegates rendering to one page model per view.
// All network work runs inside tea.Cmd goroutines; pages only hold form
// state and read list snapshots from the synchronizer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
	"github.com/ganot/impala/internal/resources"
	"github.com/ganot/impala/internal/session"
)

// SessionManager drives authentication state for the UI.
type SessionManager interface {
	Current() session.Session
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) error
}

// Synchronizer provides the list snapshots the views render.
type Synchronizer interface {
	Projects() []api.Project
	Detail() *resources.Detail
	HandleSession(ctx context.Context, sess session.Session) error
	OpenProject(ctx context.Context, projectID int64) error
	CloseProject()
	NotifyMutation(ctx context.Context, mutation resources.Mutation, projectID int64) error
}

// Backend covers the authentication and mutation endpoints the views
// call directly. List reads go through the Synchronizer instead.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (string, error)
	Register(ctx context.Context, creds api.Credentials) error
	CreateProject(ctx context.Context, req api.CreateProjectRequest) (*api.Project, error)
	UploadCSV(ctx context.Context, projectID int64, fileName string, file io.Reader) error
	CreateCanvas(ctx context.Context, projectID int64, req api.CreateCanvasRequest) (*api.Canvas, error)
}

// App is the root bubbletea model.
type App struct {
	sessions SessionManager
	syncer   Synchronizer
	backend  Backend
	logger   *slog.Logger

	route nav.Route

	login      *loginPage
	register   *registerPage
	home       *homePage
	newProject *newProjectPage
	detail     *detailPage
	account    *accountPage

	width  int
	height int

	status        string
	statusIsError bool
}

// NewApp builds the root model. The initial route is home; the startup
// probe decides whether the user actually lands there or on login.
func NewApp(sessions SessionManager, syncer Synchronizer, backend Backend, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	a := &App{
		sessions: sessions,
		syncer:   syncer,
		backend:  backend,
		logger:   logger,
		route:    nav.RouteHome,
	}
	a.freshPage()
	return a
}

// Route returns the route currently rendered.
func (a *App) Route() nav.Route {
	return a.route
}

// Init starts the session hydration probe: a persisted token moves the
// session through Authenticating before the first real view renders.
func (a *App) Init() tea.Cmd {
	return a.refreshSessionCmd()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updatePage(msg)

	case navigateMsg:
		return a, a.navigate(msg.route)

	case sessionSettledMsg:
		if msg.err != nil {
			a.logger.Debug("session probe finished unauthenticated", "error", msg.err)
		}
		a.applyGuard()
		return a, a.syncSessionCmd()

	case resourcesLoadedMsg:
		if msg.err != nil {
			if cmd := a.demoteIfUnauthorized(msg.err); cmd != nil {
				return a, cmd
			}
			a.setError(fmt.Sprintf("Loading failed: %v", msg.err))
		}
		return a, nil

	case ResourcesChangedMsg:
		// List snapshots are read at render time; the message only
		// triggers a repaint.
		return a, nil

	case loginDoneMsg:
		if msg.err != nil {
			a.login.fail(msg.err)
			return a, nil
		}
		a.applyGuard()
		return a, a.syncSessionCmd()

	case registerDoneMsg:
		if msg.err != nil {
			a.register.fail(msg.err)
			return a, nil
		}
		cmd := a.navigate(nav.RouteLogin)
		a.setStatus("Account created. Please log in.")
		return a, cmd

	case projectCreatedMsg:
		if msg.err != nil {
			if cmd := a.demoteIfUnauthorized(msg.err); cmd != nil {
				return a, cmd
			}
			a.newProject.fail(msg.err)
			return a, nil
		}
		cmds := []tea.Cmd{a.notifyMutationCmd(resources.MutationProjectCreated, 0)}
		cmds = append(cmds, a.navigate(nav.ProjectRoute(msg.project.ID)))
		a.setStatus(fmt.Sprintf("Project %q created", msg.project.Name))
		return a, tea.Batch(cmds...)

	case uploadDoneMsg:
		if msg.err != nil {
			if cmd := a.demoteIfUnauthorized(msg.err); cmd != nil {
				return a, cmd
			}
			a.detail.failUpload(msg.err)
			return a, nil
		}
		a.detail.uploadDone()
		a.setStatus("Upload complete")
		return a, a.notifyMutationCmd(resources.MutationUploadCompleted, msg.projectID)

	case canvasCreatedMsg:
		if msg.err != nil {
			if cmd := a.demoteIfUnauthorized(msg.err); cmd != nil {
				return a, cmd
			}
			a.detail.failCanvas(msg.err)
			return a, nil
		}
		a.detail.canvasDone()
		a.setStatus("Canvas created")
		return a, a.notifyMutationCmd(resources.MutationCanvasCreated, msg.projectID)

	case profileSavedMsg:
		if msg.err != nil {
			if cmd := a.demoteIfUnauthorized(msg.err); cmd != nil {
				return a, cmd
			}
			a.account.fail(msg.err)
			return a, nil
		}
		a.account.saved(a.sessions.Current().User)
		a.setStatus("Profile saved")
		return a, nil
	}

	return a, a.updatePage(msg)
}

// View implements tea.Model.
func (a *App) View() string {
	decision := nav.Decide(a.sessions.Current().Status, a.route)
	if decision.Action != nav.ActionRender {
		// Loading, or a redirect the next update commits. Nothing of the
		// current route may be shown either way.
		return pageStyle.Render(labelStyle.Render("Connecting..."))
	}

	var body string
	switch {
	case a.route == nav.RouteLogin:
		body = a.login.view()
	case a.route == nav.RouteRegister:
		body = a.register.view()
	case a.route == nav.RouteHome:
		body = a.home.view(a.syncer.Projects(), a.sessions.Current().User)
	case a.route == nav.RouteNewProject:
		body = a.newProject.view()
	case a.route == nav.RouteAccount:
		body = a.account.view()
	default:
		if _, ok := a.route.ProjectID(); ok {
			body = a.detail.view(a.syncer.Detail())
		}
	}

	if a.status != "" {
		style := statusStyle
		if a.statusIsError {
			style = errorStyle
		}
		body += "\n" + style.Render(a.status)
	}
	return pageStyle.Render(body)
}

// navigate moves to a route, runs the guard, and starts whatever fetch
// the target view needs. Leaving a detail route closes its lists first.
func (a *App) navigate(route nav.Route) tea.Cmd {
	if route != a.route {
		if _, ok := a.route.ProjectID(); ok {
			a.syncer.CloseProject()
		}
		a.route = route
		a.status = ""
		a.statusIsError = false
	}
	a.applyGuard()
	a.freshPage()
	if id, ok := a.route.ProjectID(); ok {
		return a.openProjectCmd(id)
	}
	return nil
}

// applyGuard redirects away from the current route when the session
// status no longer permits it.
func (a *App) applyGuard() {
	decision := nav.Decide(a.sessions.Current().Status, a.route)
	if decision.Action != nav.ActionRedirect || decision.Target == a.route {
		return
	}
	if _, ok := a.route.ProjectID(); ok {
		a.syncer.CloseProject()
	}
	a.route = decision.Target
	a.freshPage()
}

// freshPage rebuilds the page model for the current route so stale form
// state never leaks between visits.
func (a *App) freshPage() {
	switch {
	case a.route == nav.RouteLogin:
		a.login = newLoginPage()
	case a.route == nav.RouteRegister:
		a.register = newRegisterPage()
	case a.route == nav.RouteHome:
		a.home = newHomePage()
	case a.route == nav.RouteNewProject:
		a.newProject = newNewProjectPage()
	case a.route == nav.RouteAccount:
		a.account = newAccountPage(a.sessions.Current().User)
	default:
		if id, ok := a.route.ProjectID(); ok {
			a.detail = newDetailPage(id)
		}
	}
}

// updatePage forwards a message to the page owning the current route.
func (a *App) updatePage(msg tea.Msg) tea.Cmd {
	switch {
	case a.route == nav.RouteLogin:
		return a.login.update(a, msg)
	case a.route == nav.RouteRegister:
		return a.register.update(a, msg)
	case a.route == nav.RouteHome:
		return a.home.update(a, msg)
	case a.route == nav.RouteNewProject:
		return a.newProject.update(a, msg)
	case a.route == nav.RouteAccount:
		return a.account.update(a, msg)
	default:
		if _, ok := a.route.ProjectID(); ok {
			return a.detail.update(a, msg)
		}
	}
	return nil
}

// demoteIfUnauthorized turns a 401 on an authenticated call into a
// session refresh. The refresh finds the token rejected, demotes the
// session, and the guard then redirects to login. Anonymous calls (login
// itself) never reach this path.
func (a *App) demoteIfUnauthorized(err error) tea.Cmd {
	if !errors.Is(err, api.ErrUnauthorized) {
		return nil
	}
	a.logger.Warn("authenticated call rejected, revalidating session", "error", err)
	return a.refreshSessionCmd()
}

func (a *App) setStatus(text string) {
	a.status = text
	a.statusIsError = false
}

func (a *App) setError(text string) {
	a.status = text
	a.statusIsError = true
}

// Commands. Each closes over the immutable inputs and reports back with
// a typed message; the update loop never blocks on the network.

func (a *App) refreshSessionCmd() tea.Cmd {
	return func() tea.Msg {
		return sessionSettledMsg{err: a.sessions.Refresh(context.Background())}
	}
}

func (a *App) syncSessionCmd() tea.Cmd {
	sess := a.sessions.Current()
	return func() tea.Msg {
		return resourcesLoadedMsg{err: a.syncer.HandleSession(context.Background(), sess)}
	}
}

func (a *App) loginCmd(creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		token, err := a.backend.Login(context.Background(), creds)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{err: a.sessions.Login(context.Background(), token)}
	}
}

func (a *App) registerCmd(creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		return registerDoneMsg{err: a.backend.Register(context.Background(), creds)}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return sessionSettledMsg{err: a.sessions.Logout(context.Background())}
	}
}

func (a *App) openProjectCmd(projectID int64) tea.Cmd {
	return func() tea.Msg {
		return resourcesLoadedMsg{err: a.syncer.OpenProject(context.Background(), projectID)}
	}
}

func (a *App) notifyMutationCmd(mutation resources.Mutation, projectID int64) tea.Cmd {
	return func() tea.Msg {
		return resourcesLoadedMsg{err: a.syncer.NotifyMutation(context.Background(), mutation, projectID)}
	}
}

func (a *App) createProjectCmd(name, description string) tea.Cmd {
	return func() tea.Msg {
		project, err := a.backend.CreateProject(context.Background(), api.CreateProjectRequest{
			Name:        name,
			Description: description,
		})
		return projectCreatedMsg{project: project, err: err}
	}
}

func (a *App) uploadCmd(projectID int64, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{projectID: projectID, err: fmt.Errorf("opening %s: %w", path, err)}
		}
		defer file.Close()
		err = a.backend.UploadCSV(context.Background(), projectID, filepath.Base(path), file)
		return uploadDoneMsg{projectID: projectID, err: err}
	}
}

func (a *App) createCanvasCmd(projectID int64, name string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.backend.CreateCanvas(context.Background(), projectID, api.CreateCanvasRequest{Name: name})
		return canvasCreatedMsg{projectID: projectID, err: err}
	}
}

func (a *App) saveProfileCmd(update api.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		return profileSavedMsg{err: a.sessions.UpdateProfile(context.Background(), update)}
	}
}

// navigateTo wraps a route change as a command so pages can request
// navigation without touching the root model directly.
func navigateTo(route nav.Route) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{route: route}
	}
}
