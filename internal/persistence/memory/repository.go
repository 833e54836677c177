// Package memory provides an in-process person store for local development and tests.
package memory

import (
	"context"
	"sync"

	"example.com/exercisetracker/internal/domain"
)

// Repository stores people in memory. The zero value is not usable; call NewRepository.
type Repository struct {
	mu         sync.RWMutex
	people     map[string]domain.Person
	byUsername map[string]string
	order      []string
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		people:     make(map[string]domain.Person),
		byUsername: make(map[string]string),
	}
}

// FindByUsername implements domain.PersonRepository.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	person := r.people[id].Clone()
	return &person, nil
}

// Create implements domain.PersonRepository.
func (r *Repository) Create(ctx context.Context, person domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[person.Username]; taken {
		return domain.ErrUsernameTaken
	}
	r.people[person.ID] = person.Clone()
	r.byUsername[person.Username] = person.ID
	r.order = append(r.order, person.ID)
	return nil
}

// Get implements domain.PersonRepository.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	person, ok := r.people[id]
	if !ok {
		return nil, nil
	}
	out := person.Clone()
	return &out, nil
}

// List returns people in registration order.
func (r *Repository) List(ctx context.Context) ([]domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Person, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.people[id].Clone())
	}
	return out, nil
}

// Update implements domain.PersonRepository. The write lock is held across mutate.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*domain.Person) error) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.people[id]
	if !ok {
		return nil, domain.ErrPersonNotFound
	}
	working := stored.Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.ID = stored.ID
	working.Rev = stored.Rev + 1
	r.people[id] = working

	out := working.Clone()
	return &out, nil
}
