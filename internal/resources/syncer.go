package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/session"
)

// Detail holds the lists for the currently open project. The lists exist
// only while the detail view is open; closing it discards them.
type Detail struct {
	ProjectID   int64
	DataSources []api.DataSource
	Canvases    []api.Canvas
	// NotFound marks an unknown project id; the view renders a not-found
	// state instead of lists.
	NotFound bool
}

// Syncer keeps the project list and the open project's data-source and
// canvas lists consistent with server state. It never caches across
// projects and never inserts locally: every change is pulled from the
// server after the mutation that caused it (mutation-then-refresh).
//
// Stale responses are dropped with generation counters: a project-list
// fetch that resolves after a logout, and a detail fetch that resolves
// after the detail was closed, are both discarded.
type Syncer struct {
	client ProjectClient
	logger *slog.Logger

	mu        sync.Mutex
	projects  []api.Project
	projGen   uint64
	detail    *Detail
	detailGen uint64
	onChange  []func()
}

// NewSyncer creates a resource synchronizer.
func NewSyncer(client ProjectClient, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Syncer{client: client, logger: logger}
}

// Subscribe registers a change callback, invoked after any list snapshot
// changes.
func (s *Syncer) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Projects returns the current project list snapshot, in server order.
func (s *Syncer) Projects() []api.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Detail returns the open project's lists, or nil when no detail view is
// open.
func (s *Syncer) Detail() *Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil {
		return nil
	}
	snapshot := *s.detail
	snapshot.DataSources = append([]api.DataSource(nil), s.detail.DataSources...)
	snapshot.Canvases = append([]api.Canvas(nil), s.detail.Canvases...)
	return &snapshot
}

// HandleSession reacts to a session transition: a present user triggers a
// project-list fetch, an absent user clears all lists immediately without
// touching the network.
func (s *Syncer) HandleSession(ctx context.Context, sess session.Session) error {
	if sess.User == nil {
		s.clearAll()
		return nil
	}
	return s.LoadProjects(ctx)
}

// LoadProjects refetches the project list. Only the most recent in-flight
// fetch may apply its result; on failure the prior list is left untouched.
func (s *Syncer) LoadProjects(ctx context.Context) error {
	s.mu.Lock()
	s.projGen++
	gen := s.projGen
	s.mu.Unlock()

	projects, err := s.client.ListProjects(ctx)

	s.mu.Lock()
	if s.projGen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale project list")
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("project list fetch failed", "error", err)
		return fmt.Errorf("loading projects: %w", err)
	}
	s.projects = projects
	s.notifyLocked()
	return nil
}

// OpenProject loads the detail lists for a project. An unknown id yields
// a not-found detail state rather than an error the caller must special-case.
func (s *Syncer) OpenProject(ctx context.Context, projectID int64) error {
	s.mu.Lock()
	s.detailGen++
	gen := s.detailGen
	s.detail = &Detail{ProjectID: projectID}
	s.mu.Unlock()

	return s.loadDetail(ctx, gen, projectID, true, true)
}

// CloseProject discards the detail lists. A fetch resolving after close
// is dropped.
func (s *Syncer) CloseProject() {
	s.mu.Lock()
	s.detailGen++
	s.detail = nil
	s.notifyLocked()
}

// NotifyMutation refetches the list affected by a completed mutation.
func (s *Syncer) NotifyMutation(ctx context.Context, mutation Mutation, projectID int64) error {
	switch mutation {
	case MutationProjectCreated:
		return s.LoadProjects(ctx)
	case MutationUploadCompleted:
		return s.reloadDetail(ctx, projectID, true, false)
	case MutationCanvasCreated:
		return s.reloadDetail(ctx, projectID, false, true)
	default:
		return fmt.Errorf("unknown mutation %q", mutation)
	}
}

func (s *Syncer) reloadDetail(ctx context.Context, projectID int64, sources, canvases bool) error {
	s.mu.Lock()
	if s.detail == nil || s.detail.ProjectID != projectID {
		// The mutation targets a project whose detail view is not open;
		// its lists will be fetched fresh on the next open.
		s.mu.Unlock()
		return nil
	}
	gen := s.detailGen
	s.mu.Unlock()

	return s.loadDetail(ctx, gen, projectID, sources, canvases)
}

func (s *Syncer) loadDetail(ctx context.Context, gen uint64, projectID int64, sources, canvases bool) error {
	var (
		newSources  []api.DataSource
		newCanvases []api.Canvas
		err         error
	)
	if sources && err == nil {
		newSources, err = s.client.ListDataSources(ctx, projectID)
	}
	if canvases && err == nil {
		newCanvases, err = s.client.ListCanvases(ctx, projectID)
	}

	s.mu.Lock()
	if s.detailGen != gen || s.detail == nil {
		s.mu.Unlock()
		s.logger.Debug("dropping stale detail lists", "project_id", projectID)
		return nil
	}

	if errors.Is(err, api.ErrNotFound) {
		s.detail.NotFound = true
		s.notifyLocked()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("detail fetch failed", "project_id", projectID, "error", err)
		return fmt.Errorf("loading project %d lists: %w", projectID, err)
	}

	if sources {
		s.detail.DataSources = newSources
	}
	if canvases {
		s.detail.Canvases = newCanvases
	}
	s.notifyLocked()
	return nil
}

// clearAll drops every list. No network involved; the effect is
// observable synchronously.
func (s *Syncer) clearAll() {
	s.mu.Lock()
	s.projGen++
	s.detailGen++
	s.projects = nil
	s.detail = nil
	s.notifyLocked()
}

// notifyLocked releases the mutex and invokes change callbacks.
func (s *Syncer) notifyLocked() {
	subs := make([]func(), len(s.onChange))
	copy(subs, s.onChange)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
