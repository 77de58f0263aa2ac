package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/formflow/pkg/domain"
)

// Store implements ports.FormStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Form
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with forms.
func NewStore(forms ...*domain.Form) *Store {
	s := &Store{
		data: make(map[string]*domain.Form),
	}
	for _, f := range forms {
		s.data[f.ID] = f.Clone()
	}
	return s
}

// Save persists the form in memory.
func (s *Store) Save(ctx context.Context, form *domain.Form) error {
	copied := form.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[form.ID] = copied
	return nil
}

// Get retrieves the form from memory.
func (s *Store) Get(ctx context.Context, formID string) (*domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.data[formID]
	if !ok {
		return nil, domain.ErrFormNotFound
	}

	// Copy on read so callers can't mutate the stored form through the pointer.
	return form.Clone(), nil
}

// Delete removes the form.
func (s *Store) Delete(ctx context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, formID)
	return nil
}

// List returns the stored form ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
