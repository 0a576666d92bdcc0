package calibration

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a repository holding the given profiles.
// With no profiles it is seeded with DefaultProfile.
func NewInMemoryRepository(profiles ...*Profile) *InMemoryRepository {
	if len(profiles) == 0 {
		profiles = []*Profile{DefaultProfile()}
	}
	repo := &InMemoryRepository{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		cp := *p
		cp.normalize()
		repo.profiles[cp.Version] = &cp
	}
	return repo
}

// Get retrieves a profile by version.
func (r *InMemoryRepository) Get(_ context.Context, version string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[version]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// List retrieves all profiles ordered by version.
func (r *InMemoryRepository) List(_ context.Context) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Save creates or replaces a profile.
func (r *InMemoryRepository) Save(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	cp.normalize()
	cp.UpdatedAt = time.Now()
	r.profiles[cp.Version] = &cp
	return nil
}

// Delete removes a profile by version.
func (r *InMemoryRepository) Delete(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[version]; !ok {
		return ErrProfileNotFound
	}
	delete(r.profiles, version)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
