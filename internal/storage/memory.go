package storage

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	profiles map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		profiles: make(map[string]map[string]string),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, profile, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if values, exists := s.profiles[profile]; exists {
		if value, ok := values[key]; ok {
			return value, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStorage) Set(ctx context.Context, profile, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values(profile)[key] = value
	return nil
}

func (s *MemoryStorage) SetIfAbsent(ctx context.Context, profile, key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.values(profile)
	if existing, ok := values[key]; ok {
		return existing, nil
	}
	values[key] = value
	return value, nil
}

// values must be called with the write lock held.
func (s *MemoryStorage) values(profile string) map[string]string {
	values, exists := s.profiles[profile]
	if !exists {
		values = make(map[string]string)
		s.profiles[profile] = values
	}
	return values
}

func (s *MemoryStorage) Delete(ctx context.Context, profile, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if values, exists := s.profiles[profile]; exists {
		delete(values, key)
		if len(values) == 0 {
			delete(s.profiles, profile)
		}
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
