package credstore

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.creds
	out.User = append([]byte(nil), s.creds.User...)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds.User = append([]byte(nil), creds.User...)
	s.creds = creds
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
