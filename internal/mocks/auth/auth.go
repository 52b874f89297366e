// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore is a thread-safe in-memory session store for tests and
// local development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

// Put stores the session until its expiry.
func (m *MemorySessionStore) Put(_ context.Context, s *domainauth.Session) error {
	if s == nil || s.ID == "" {
		return apperrors.Validation("session ID cannot be empty")
	}
	if time.Until(s.ExpiresAt) <= 0 {
		return apperrors.Validation("session is expired")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

// Get returns the session for the ID, or a not-found error when the ID is
// unknown or the session has expired.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*domainauth.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("Session not found")
	}
	if time.Now().After(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, apperrors.NotFound("Session not found")
	}
	out := s
	return &out, nil
}

// Delete removes the session. Deleting an unknown ID is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteByUID removes every session belonging to the UID.
func (m *MemorySessionStore) DeleteByUID(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UID == uid {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Touch extends the session's expiry.
func (m *MemorySessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperrors.NotFound("Session not found")
	}
	s.ExpiresAt = expiresAt
	m.sessions[id] = s
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
