package nav

import (
	"fmt"
	"strconv"
	"strings"
)

// Route identifies a navigable view by its path.
type Route string

const (
	RouteHome       Route = "/"
	RouteLogin      Route = "/login"
	RouteRegister   Route = "/register"
	RouteAccount    Route = "/account"
	RouteNewProject Route = "/projects/new"
)

// ProjectRoute returns the detail route for a project.
func ProjectRoute(id int64) Route {
	return Route(fmt.Sprintf("/projects/%d", id))
}

// ProjectID extracts the project id from a detail route. ok is false for
// any other route.
func (r Route) ProjectID() (int64, bool) {
	rest, found := strings.CutPrefix(string(r), "/projects/")
	if !found || rest == "new" {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Protected reports whether the route requires an authenticated session.
// Everything except the login and register views is protected.
func (r Route) Protected() bool {
	return r != RouteLogin && r != RouteRegister
}
