package nav

import "github.com/ganot/impala/internal/session"

// Action is the guard's verdict for a navigation.
type Action int

const (
	// ActionRender means the requested view may be shown.
	ActionRender Action = iota
	// ActionRedirect means navigation must go to Decision.Target instead.
	ActionRedirect
	// ActionLoading means the session is still being established; show a
	// neutral loading view and decide again on the next session change.
	ActionLoading
)

// Decision is the guard's output for one (status, route) pair.
type Decision struct {
	Action Action
	Target Route
	// ReplaceHistory marks a redirect that must replace the current history
	// entry, so backing out of the login view cannot loop.
	ReplaceHistory bool
}

// Decide gates a navigation on the session status. It is a pure function:
// the same inputs always produce the same decision, and no transition is
// implied — once settled, the session only moves on an explicit login,
// logout or failed request.
func Decide(status session.Status, route Route) Decision {
	if status == session.StatusAuthenticating {
		// The startup probe has not resolved; redirecting now would
		// flicker through the login view on every reload.
		return Decision{Action: ActionLoading}
	}

	if status == session.StatusAuthenticated && !route.Protected() {
		return Decision{Action: ActionRedirect, Target: RouteHome}
	}

	if status != session.StatusAuthenticated && route.Protected() {
		return Decision{Action: ActionRedirect, Target: RouteLogin, ReplaceHistory: true}
	}

	return Decision{Action: ActionRender}
}
