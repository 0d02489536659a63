// Package memory provides an in-process record store for tests and local development.
package memory

import (
	"context"
	"sync"

	"example.com/exercisetracker/internal/domain"
)

// Store keeps users and log entries in insertion order.
type Store struct {
	mu      sync.RWMutex
	users   []domain.User
	byID    map[string]int
	entries []domain.LogEntry
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[user.ID] = len(s.users)
	s.users = append(s.users, user)
	return nil
}

// FindUserByID implements domain.UserRepository.
func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	user := s.users[idx]
	return &user, nil
}

// FindAllUsers implements domain.UserRepository.
func (s *Store) FindAllUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// CreateLogEntry implements domain.LogRepository.
func (s *Store) CreateLogEntry(ctx context.Context, entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// FindLogEntries implements domain.LogRepository. Filters combine
// conjunctively; bounds are inclusive.
func (s *Store) FindLogEntries(ctx context.Context, query domain.LogQuery) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.LogEntry, 0)
	for _, entry := range s.entries {
		if entry.Username != query.Username {
			continue
		}
		if query.From != nil && entry.Date.Before(*query.From) {
			continue
		}
		if query.To != nil && entry.Date.After(*query.To) {
			continue
		}
		results = append(results, entry)
		if query.Limit > 0 && len(results) == query.Limit {
			break
		}
	}
	return results, nil
}
