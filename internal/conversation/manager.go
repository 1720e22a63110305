package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps independent sessions keyed by an opaque id. Sessions share
// only the read-only knowledge base and the collaborators in Deps.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	deps     Deps
	sessions map[string]*Session
	newID    func() string
}

func NewManager(cfg Config, deps Deps) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Knowledge == nil {
		return nil, errors.New("knowledge base is required")
	}

	return &Manager{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
	}, nil
}

// Start creates a new session.
func (m *Manager) Start() (*Session, error) {
	s, err := New(m.newID(), m.cfg, m.deps)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Process(ctx context.Context, id, input string) (string, error) {
	s, ok := m.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Process(ctx, input), nil
}

// End closes a session but keeps it for export.
func (m *Manager) End(id string) (string, error) {
	s, ok := m.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.End(), nil
}

func (m *Manager) Reset(id string) (string, error) {
	s, ok := m.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Reset(), nil
}

// Remove forgets a session. Removing an unknown id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
