package calibration

import (
	"context"
	"errors"

	"github.com/aquadose/aquadose/internal/resilience"
)

// ResilientRepository wraps a Repository with retries and a circuit breaker.
// ErrProfileNotFound is passed through without retrying.
type ResilientRepository struct {
	next    Repository
	profile *resilience.Executor[*Profile]
	list    *resilience.Executor[[]*Profile]
	write   *resilience.Executor[struct{}]
}

// NewResilientRepository wraps next. cfg.Name is used as the dependency name
// in the health registry.
func NewResilientRepository(next Repository, cfg resilience.Config) *ResilientRepository {
	cfg.Permanent = func(err error) bool {
		return errors.Is(err, ErrProfileNotFound) || errors.Is(err, context.Canceled)
	}

	// Only Get reports to the health registry since it is on the calculation path.
	listCfg := cfg
	listCfg.Name = cfg.Name + "-list"
	listCfg.Registry = nil
	writeCfg := cfg
	writeCfg.Name = cfg.Name + "-writes"
	writeCfg.Registry = nil

	return &ResilientRepository{
		next:    next,
		profile: resilience.NewExecutor[*Profile](cfg),
		list:    resilience.NewExecutor[[]*Profile](listCfg),
		write:   resilience.NewExecutor[struct{}](writeCfg),
	}
}

// Get retrieves a profile by version.
func (r *ResilientRepository) Get(ctx context.Context, version string) (*Profile, error) {
	return r.profile.Do(ctx, func(ctx context.Context) (*Profile, error) {
		return r.next.Get(ctx, version)
	})
}

// List retrieves all profiles ordered by version.
func (r *ResilientRepository) List(ctx context.Context) ([]*Profile, error) {
	return r.list.Do(ctx, func(ctx context.Context) ([]*Profile, error) {
		return r.next.List(ctx)
	})
}

// Save creates or replaces a profile.
func (r *ResilientRepository) Save(ctx context.Context, p *Profile) error {
	_, err := r.write.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Save(ctx, p)
	})
	return err
}

// Delete removes a profile by version.
func (r *ResilientRepository) Delete(ctx context.Context, version string) error {
	_, err := r.write.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Delete(ctx, version)
	})
	return err
}

// Ensure ResilientRepository implements Repository interface.
var _ Repository = (*ResilientRepository)(nil)
