// Package storage holds the in-memory stores backing the dashboard
// panels. Nothing here survives a restart.
package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/guardview/guardview/internal/models"
)

// ErrDuplicateID is returned when a record with the same id already exists.
var ErrDuplicateID = errors.New("credential id already exists")

// ErrNotFound is returned when no record matches the given id.
var ErrNotFound = errors.New("credential not found")

// CredentialStore is a mutex-guarded in-memory credential map.
type CredentialStore struct {
	credentials map[string]*models.Credential
	mu          sync.RWMutex
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]*models.Credential),
	}
}

// Add stores a credential. An empty id gets a generated UUID; a
// duplicate id is rejected.
func (s *CredentialStore) Add(cred *models.Credential) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if _, exists := s.credentials[cred.ID]; exists {
		return nil, ErrDuplicateID
	}

	stored := *cred
	s.credentials[stored.ID] = &stored
	return &stored, nil
}

// Get returns the credential with the given id.
func (s *CredentialStore) Get(id string) (*models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, false
	}
	out := *cred
	return &out, true
}

// List returns all credentials ordered by site, then id.
func (s *CredentialStore) List() []*models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credentials := make([]*models.Credential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out := *cred
		credentials = append(credentials, &out)
	}
	sort.Slice(credentials, func(i, j int) bool {
		if credentials[i].Site != credentials[j].Site {
			return credentials[i].Site < credentials[j].Site
		}
		return credentials[i].ID < credentials[j].ID
	})
	return credentials
}

// Delete removes the credential with the given id.
func (s *CredentialStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[id]; !ok {
		return ErrNotFound
	}
	delete(s.credentials, id)
	return nil
}

// Len returns the number of stored credentials.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials)
}
