// Package testserver provides an in-process fake of the Impala backend
// for integration tests. It implements the full REST contract in memory
// with serial ids, so a test can run register, login, and mutations
// against real HTTP without a database.
package testserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type account struct {
	id        int64
	username  string
	password  string
	firstName string
	lastName  string
}

type projectRecord struct {
	id          int64
	ownerID     int64
	name        string
	description string
	dataSources []dataSourceRecord
	canvases    []canvasRecord
}

type dataSourceRecord struct {
	id       int64
	fileName string
}

type canvasRecord struct {
	id   int64
	name string
}

// TestServer is the fake backend plus its running httptest server.
type TestServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]*account
	tokens   map[string]int64
	projects map[int64]*projectRecord
	nextID   int64
}

// New starts the fake backend and tears it down with the test.
func New(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		users:    make(map[string]*account),
		tokens:   make(map[string]int64),
		projects: make(map[int64]*projectRecord),
	}
	ts.Server = httptest.NewServer(ts.router())

	t.Cleanup(ts.Server.Close)
	return ts
}

// URL returns the server's base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// AddUser registers an account directly, skipping the HTTP round trip.
func (ts *TestServer) AddUser(username, password string) int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.nextID++
	ts.users[username] = &account{id: ts.nextID, username: username, password: password}
	return ts.nextID
}

// RevokeToken invalidates an issued token, simulating server-side expiry.
func (ts *TestServer) RevokeToken(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.tokens, token)
}

func (ts *TestServer) router() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/api/register", ts.handleRegister)
	r.Post("/api/login", ts.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(ts.authMiddleware)
		r.Get("/api/me", ts.handleMe)
		r.Put("/api/me/update", ts.handleUpdateProfile)
		r.Get("/api/projects", ts.handleListProjects)
		r.Post("/api/projects", ts.handleCreateProject)
		r.Get("/api/projects/{projectID}/data-sources", ts.handleListDataSources)
		r.Post("/api/projects/{projectID}/upload-csv", ts.handleUploadCSV)
		r.Get("/api/projects/{projectID}/canvases", ts.handleListCanvases)
		r.Post("/api/projects/{projectID}/canvases", ts.handleCreateCanvas)
	})

	return r
}

type userKey struct{}

func contextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userKey{}).(int64)
	return userID, ok
}

// authMiddleware resolves the bearer token to an account id.
func (ts *TestServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ts.mu.Lock()
		userID, ok := ts.tokens[token]
		ts.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := contextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (ts *TestServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid registration payload")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.users[creds.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username already exists.")
		return
	}
	ts.nextID++
	ts.users[creds.Username] = &account{id: ts.nextID, username: creds.Username, password: creds.Password}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully."})
}

func (ts *TestServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid login payload")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	user, ok := ts.users[creds.Username]
	if !ok || user.password != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password.")
		return
	}

	token := uuid.NewString()
	ts.tokens[token] = user.id
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (ts *TestServer) handleMe(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	user := ts.userLocked(r)
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         user.id,
		"username":   user.username,
		"first_name": user.firstName,
		"last_name":  user.lastName,
	})
}

func (ts *TestServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid profile payload")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	user := ts.userLocked(r)
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	user.firstName = update.FirstName
	user.lastName = update.LastName
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated."})
}

func (ts *TestServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	userID, _ := userIDFromContext(r.Context())

	var owned []*projectRecord
	for _, project := range ts.projects {
		if project.ownerID == userID {
			owned = append(owned, project)
		}
	}
	// Newest first, matching creation order of the serial ids.
	sort.Slice(owned, func(i, j int) bool { return owned[i].id > owned[j].id })

	out := make([]map[string]any, 0, len(owned))
	for _, project := range owned {
		out = append(out, map[string]any{
			"id":          project.id,
			"name":        project.name,
			"description": project.description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Project name is required.")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	userID, _ := userIDFromContext(r.Context())
	ts.nextID++
	project := &projectRecord{
		id:          ts.nextID,
		ownerID:     userID,
		name:        req.Name,
		description: req.Description,
	}
	ts.projects[project.id] = project
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          project.id,
		"name":        project.name,
		"description": project.description,
	})
}

func (ts *TestServer) handleListDataSources(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	project := ts.projectLocked(w, r)
	if project == nil {
		return
	}
	out := make([]map[string]any, 0, len(project.dataSources))
	for _, source := range project.dataSources {
		out = append(out, map[string]any{"id": source.id, "file_name": source.fileName})
	}
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid upload payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "A file is required.")
		return
	}
	defer file.Close()

	if !strings.EqualFold(path.Ext(header.Filename), ".csv") {
		writeDetail(w, http.StatusBadRequest, "Only CSV files are supported.")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	project := ts.projectLocked(w, r)
	if project == nil {
		return
	}
	ts.nextID++
	project.dataSources = append(project.dataSources, dataSourceRecord{
		id:       ts.nextID,
		fileName: header.Filename,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "File uploaded successfully."})
}

func (ts *TestServer) handleListCanvases(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	project := ts.projectLocked(w, r)
	if project == nil {
		return
	}
	out := make([]map[string]any, 0, len(project.canvases))
	for _, canvas := range project.canvases {
		out = append(out, map[string]any{"id": canvas.id, "name": canvas.name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Canvas name is required.")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	project := ts.projectLocked(w, r)
	if project == nil {
		return
	}
	ts.nextID++
	canvas := canvasRecord{id: ts.nextID, name: req.Name}
	project.canvases = append(project.canvases, canvas)
	writeJSON(w, http.StatusOK, map[string]any{"id": canvas.id, "name": canvas.name})
}

// userLocked resolves the request's account. Callers hold ts.mu.
func (ts *TestServer) userLocked(r *http.Request) *account {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		return nil
	}
	for _, user := range ts.users {
		if user.id == userID {
			return user
		}
	}
	return nil
}

// projectLocked resolves the {projectID} path parameter to a project the
// caller owns, writing the not-found response itself when it cannot.
// Callers hold ts.mu.
func (ts *TestServer) projectLocked(w http.ResponseWriter, r *http.Request) *projectRecord {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Project not found.")
		return nil
	}
	userID, _ := userIDFromContext(r.Context())
	project, ok := ts.projects[id]
	if !ok || project.ownerID != userID {
		writeDetail(w, http.StatusNotFound, "Project not found.")
		return nil
	}
	return project
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
