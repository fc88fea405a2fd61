package tui

import (
	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
)

// ResourcesChangedMsg reports that the synchronizer committed a list
// change. Sent from its subscription callback outside the update loop;
// views read snapshots at render time, so the message carries nothing.
type ResourcesChangedMsg struct{}

// navigateMsg asks the root model to move to a route. The route guard
// gets the final word on where the app actually lands.
type navigateMsg struct {
	route nav.Route
}

// sessionSettledMsg reports that a Login, Logout, or Refresh finished
// and the session snapshot may have changed.
type sessionSettledMsg struct {
	err error
}

// resourcesLoadedMsg reports a finished project-list or detail fetch.
type resourcesLoadedMsg struct {
	err error
}

// loginDoneMsg reports the outcome of a credentials exchange.
type loginDoneMsg struct {
	err error
}

// registerDoneMsg reports the outcome of account creation.
type registerDoneMsg struct {
	err error
}

// projectCreatedMsg reports a create-project mutation. The project list
// is refetched separately; the id here is only used for navigation.
type projectCreatedMsg struct {
	project *api.Project
	err     error
}

// uploadDoneMsg reports a CSV upload mutation for a project.
type uploadDoneMsg struct {
	projectID int64
	err       error
}

// canvasCreatedMsg reports a create-canvas mutation for a project.
type canvasCreatedMsg struct {
	projectID int64
	err       error
}

// profileSavedMsg reports a profile update. On success the session
// manager has already re-fetched the user.
type profileSavedMsg struct {
	err error
}
