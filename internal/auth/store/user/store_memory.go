package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"authgate/internal/auth/models"
	id "authgate/pkg/domain"
	"authgate/pkg/platform/sentinel"
)

// InMemoryUserStore keeps profiles keyed by user ID with a unique email index.
// Callers get copies; mutating a returned profile does not change the store.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.UserProfile
	byEmail map[models.Email]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]*models.UserProfile),
		byEmail: make(map[models.Email]id.UserID),
	}
}

// CreateProfile returns sentinel.ErrConflict when the user ID or email is taken.
func (s *InMemoryUserStore) CreateProfile(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[profile.UserID]; ok {
		return fmt.Errorf("profile for user %s: %w", profile.UserID, sentinel.ErrConflict)
	}
	if _, ok := s.byEmail[profile.Email]; ok {
		return fmt.Errorf("profile for email: %w", sentinel.ErrConflict)
	}
	stored := *profile
	s.byID[profile.UserID] = &stored
	s.byEmail[profile.Email] = profile.UserID
	return nil
}

func (s *InMemoryUserStore) FindProfile(_ context.Context, userID id.UserID) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[userID]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email models.Email) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
	}
	out := *s.byID[userID]
	return &out, nil
}

func (s *InMemoryUserStore) UpdateLastLogin(_ context.Context, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
	}
	p.RecordLogin(at)
	return nil
}

// Count returns the number of stored profiles.
func (s *InMemoryUserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
