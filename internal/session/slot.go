package session

import (
	"errors"
	"sync"

	"github.com/xaenox/wellbeing-bot/internal/models"
)

// ErrMissingSession means no assessment has been completed in this session.
// Callers redirect to a new assessment instead of rendering.
var ErrMissingSession = errors.New("session: no assessment in progress")

// Slot holds the most recent assessment. A new Put replaces the previous entry.
type Slot struct {
	mu      sync.RWMutex
	current *models.Assessment
}

func (s *Slot) Put(a models.Assessment) {
	cp := a.Clone()
	s.mu.Lock()
	s.current = &cp
	s.mu.Unlock()
}

func (s *Slot) Current() (models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return models.Assessment{}, ErrMissingSession
	}
	return s.current.Clone(), nil
}

func (s *Slot) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
