package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ganot/impala/internal/api"
)

// Subscriber receives a session snapshot on every transition.
type Subscriber func(Session)

// Manager owns the process-wide session and its transitions:
// Anonymous → Authenticating → {Authenticated, Invalid}, with Invalid
// settling at Anonymous after the token is cleared.
//
// Methods are safe for concurrent use. Overlapping Refresh calls are
// resolved by a generation counter: only the newest call's result is
// applied, so a response arriving after a logout (or a newer login) is
// dropped.
type Manager struct {
	store  TokenStore
	client AccountClient
	logger *slog.Logger

	mu      sync.Mutex
	current Session
	gen     uint64
	subs    []Subscriber
}

// NewManager creates a session manager starting anonymous.
func NewManager(store TokenStore, client AccountClient, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Manager{
		store:   store,
		client:  client,
		logger:  logger,
		current: Session{Status: StatusAnonymous},
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a subscriber. Subscribers are invoked synchronously,
// in registration order, after each transition commits.
func (m *Manager) Subscribe(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
}

// Login persists the token, transitions to Authenticating and refreshes.
// The token write completes before any request is issued, so no request
// carries a stale credential. The write happens under the same lock as
// the generation bump: a refresh that was in flight when Login started
// can no longer touch the store.
func (m *Manager) Login(ctx context.Context, token string) error {
	m.mu.Lock()
	m.gen++ // supersede any in-flight refresh
	err := m.store.Set(ctx, token)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	m.transition(Session{Token: token, Status: StatusAuthenticating})
	return m.Refresh(ctx)
}

// Logout clears the token and settles at Anonymous. Subscribers observe
// the change before Logout returns; no network call is involved.
// Calling Logout twice has the same observable effect as once.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.gen++ // invalidate any in-flight refresh
	err := m.store.Clear(ctx)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}

	m.transition(Session{Status: StatusAnonymous})
	return nil
}

// Refresh derives the session from the stored token. With no token it
// settles at Anonymous without touching the network. With a token it
// fetches /api/me; on success the session becomes Authenticated, on any
// failure the token is cleared and the session demotes Invalid → Anonymous.
//
// A network failure is treated exactly like an auth failure. The design
// trades offline detection for simplicity; an unreachable backend logs the
// user out rather than leaving an unverifiable session in place.
func (m *Manager) Refresh(ctx context.Context) error {
	token, err := m.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	if token == "" {
		m.transition(Session{Status: StatusAnonymous})
		return nil
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()
	m.transition(Session{Token: token, Status: StatusAuthenticating})

	user, err := m.client.Me(ctx)

	if err != nil {
		if !m.applyIfCurrent(gen, Session{Status: StatusInvalid}) {
			// A newer refresh or a logout superseded this call.
			m.logger.Debug("dropping stale refresh result")
			return nil
		}
		m.logger.Warn("session refresh failed", "error", err)
		m.mu.Lock()
		// A login or logout that landed since the Invalid transition owns
		// the store now; only the newest generation may clear it.
		if m.gen == gen {
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				m.logger.Error("failed to clear token after refresh failure", "error", clearErr)
			}
		}
		m.mu.Unlock()
		m.applyIfCurrent(gen, Session{Status: StatusAnonymous})
		return fmt.Errorf("refreshing session: %w", err)
	}

	if !m.applyIfCurrent(gen, Session{Token: token, User: user, Status: StatusAuthenticated}) {
		m.logger.Debug("dropping stale refresh result")
		return nil
	}
	m.logger.Info("session authenticated", "username", user.Username)
	return nil
}

// UpdateProfile saves the editable account fields, then re-fetches the
// user so the session reflects the edit. Pull-based consistency: the
// session is never patched locally.
func (m *Manager) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	if err := m.client.UpdateProfile(ctx, update); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// applyIfCurrent commits next only when gen is still the newest refresh
// generation. Returns false when the result is stale and was dropped.
func (m *Manager) applyIfCurrent(gen uint64, next Session) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	if sameSession(m.current, next) {
		m.mu.Unlock()
		return true
	}
	m.current = next
	subs := make([]Subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return true
}

// transition commits a new session state and notifies subscribers.
// Re-committing an identical snapshot does not notify, so settling at
// Anonymous twice is observably idempotent.
func (m *Manager) transition(next Session) {
	m.mu.Lock()
	if sameSession(m.current, next) {
		m.mu.Unlock()
		return
	}
	m.current = next
	subs := make([]Subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}

func sameSession(a, b Session) bool {
	if a.Status != b.Status || a.Token != b.Token {
		return false
	}
	if (a.User == nil) != (b.User == nil) {
		return false
	}
	return a.User == nil || *a.User == *b.User
}
