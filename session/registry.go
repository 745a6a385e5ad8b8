package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/storage"
)

type entry struct {
	auth     *AuthContext
	lastSeen time.Time
}

// Registry maps browser session IDs onto their AuthContext
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	deps     Deps
	maxAge   time.Duration
	nowTime  func() time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

// NewRegistry creates a registry whose sessions expire after maxAge without activity
func NewRegistry(deps Deps, maxAge time.Duration, options ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*entry),
		deps:     deps,
		maxAge:   maxAge,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Create starts a new session backed by fresh in-memory storage
func (r *Registry) Create() (string, *AuthContext) {
	id := uuid.New().String()
	auth := NewAuthContext(storage.NewMemory(), r.deps)
	auth.Init()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &entry{auth: auth, lastSeen: r.nowTime()}
	return id, auth
}

// Get returns the session for id and refreshes its activity time
func (r *Registry) Get(id string) (*AuthContext, error) {
	if id == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	now := r.nowTime()
	if now.Sub(e.lastSeen) > r.maxAge {
		delete(r.sessions, id)
		return nil, apperrors.ErrSessionExpired
	}
	e.lastSeen = now
	return e.auth, nil
}

// Rotate moves the session under id to a fresh ID and forgets the old one, keeping its
// state. Used after login so an ID handed out before authentication stops working.
func (r *Registry) Rotate(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return "", apperrors.Wrapf(apperrors.ErrSessionNotFound, "[Registry Rotate] %s", id)
	}
	newID := uuid.New().String()
	delete(r.sessions, id)
	e.lastSeen = r.nowTime()
	r.sessions[newID] = e
	return newID, nil
}

// Delete removes a session. Unknown IDs are not an error.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep drops every expired session and reports how many were removed
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	removed := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.maxAge {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
