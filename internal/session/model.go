package session

import "github.com/ganot/impala/internal/api"

// Status represents the lifecycle status of the client session.
type Status string

const (
	// StatusAnonymous means no credential is held.
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticating means a token is held and the user fetch is in
	// flight. Views render a neutral loading state, never a redirect.
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated means token and user are present and consistent
	// with the last successful /api/me fetch.
	StatusAuthenticated Status = "authenticated"
	// StatusInvalid is the transient state after an auth failure; the
	// manager clears the token and settles at Anonymous immediately.
	StatusInvalid Status = "invalid"
)

// Session is the client's belief about who, if anyone, is authenticated.
// Exactly one Session exists for the process lifetime; it is mutated only
// by the Manager and reset to anonymous rather than destroyed.
type Session struct {
	Token  string
	User   *api.User
	Status Status
}

// Authenticated reports whether protected content may be rendered.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
