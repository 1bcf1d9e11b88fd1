package session

import (
	"sync"
)

// Registry keeps one Session per profile for shells serving many users.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  func(profile string) *Session
}

func NewRegistry(factory func(profile string) *Session) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

func (r *Registry) Get(profile string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.sessions[profile]; exists {
		return s
	}
	s := r.factory(profile)
	r.sessions[profile] = s
	return s
}

func (r *Registry) Drop(profile string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, profile)
}
