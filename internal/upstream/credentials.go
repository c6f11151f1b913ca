package upstream

import "sync"

// CredentialStore supplies the bearer credential attached to outbound calls
// and discards it when the upstream rejects it.
type CredentialStore interface {
	Token() string
	Clear()
}

// MemoryCredentials is a mutex-guarded in-process credential holder.
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryCredentials seeds the store with an initial token, which may be
// empty (calls then go out unauthenticated).
func NewMemoryCredentials(token string) *MemoryCredentials {
	return &MemoryCredentials{token: token}
}

// Token returns the held credential, or "" when none is held.
func (m *MemoryCredentials) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Set replaces the held credential, e.g. after re-authentication.
func (m *MemoryCredentials) Set(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// Clear drops the held credential.
func (m *MemoryCredentials) Clear() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}
