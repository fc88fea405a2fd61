package api

// User is the authenticated account snapshot returned by the backend.
// It is replaced wholesale on every fetch, never patched in place.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Project is a container for data sources and canvases.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DataSource is an uploaded CSV file scoped to one project.
type DataSource struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
}

// Canvas is a workspace scoped to one project.
type Canvas struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credentials carry a username and password for login and registration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ProfileUpdate carries the editable account fields.
type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
