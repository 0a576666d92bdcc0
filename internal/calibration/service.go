package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/dosing"
)

// VersionSource supplies the version of the profile that is active.
type VersionSource interface {
	ActiveCalibration(ctx context.Context) string
}

// ServiceConfig holds configuration for the calibration service.
type ServiceConfig struct {
	Repository Repository

	// Versions selects the active profile. Nil always uses the default version.
	Versions VersionSource

	Logger   zerolog.Logger
	CacheTTL time.Duration // How long to cache profiles in memory
}

type cachedProfile struct {
	profile   *Profile
	expiresAt time.Time
}

// Service resolves calibration profiles with caching and fallback to the
// built-in profile.
type Service struct {
	repo     Repository
	versions VersionSource
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedProfile
}

// NewService creates a new calibration service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}
	return &Service{
		repo:     repo,
		versions: cfg.Versions,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]cachedProfile),
	}
}

// ActiveVersion returns the version selected by the version source.
func (s *Service) ActiveVersion(ctx context.Context) string {
	if s.versions == nil {
		return dosing.DefaultCoefficientsVersion
	}
	if v := s.versions.ActiveCalibration(ctx); v != "" {
		return v
	}
	return dosing.DefaultCoefficientsVersion
}

// Active returns the coefficients of the active profile. The built-in
// profile is used when the active version is the default one and the store
// does not hold it. Any other failure is returned so the caller can decide.
func (s *Service) Active(ctx context.Context) (dosing.Coefficients, error) {
	version := s.ActiveVersion(ctx)
	p, err := s.Get(ctx, version)
	if err == nil {
		return p.Coefficients, nil
	}
	if errors.Is(err, ErrProfileNotFound) && version == dosing.DefaultCoefficientsVersion {
		return dosing.DefaultCoefficients(), nil
	}
	return dosing.Coefficients{}, fmt.Errorf("active calibration %q: %w", version, err)
}

// Get retrieves a profile by version, using the cache when fresh.
func (s *Service) Get(ctx context.Context, version string) (*Profile, error) {
	if p := s.getCached(version); p != nil {
		return p, nil
	}

	p, err := s.repo.Get(ctx, version)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.Warn().Err(err).Str("version", version).Msg("failed to get calibration profile from repository")
		}
		return nil, err
	}

	s.setCached(p)
	return p, nil
}

// List retrieves all stored profiles. The built-in profile is always included.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Version == dosing.DefaultCoefficientsVersion {
			return profiles, nil
		}
	}
	return append([]*Profile{DefaultProfile()}, profiles...), nil
}

// Save validates and stores a profile.
func (s *Service) Save(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	s.setCached(p)
	s.logger.Info().Str("version", p.Version).Msg("calibration profile saved")
	return nil
}

// Delete removes a stored profile. The built-in profile cannot be deleted.
func (s *Service) Delete(ctx context.Context, version string) error {
	if version == dosing.DefaultCoefficientsVersion {
		return ErrBuiltinProfile
	}
	if err := s.repo.Delete(ctx, version); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, version)
	s.mu.Unlock()
	s.logger.Info().Str("version", version).Msg("calibration profile deleted")
	return nil
}

// Import saves every profile, stopping at the first failure.
func (s *Service) Import(ctx context.Context, profiles []*Profile) error {
	for _, p := range profiles {
		if err := s.Save(ctx, p); err != nil {
			return fmt.Errorf("import %q: %w", p.Version, err)
		}
	}
	return nil
}

// InvalidateCache clears the cached profiles, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedProfile)
}

func (s *Service) getCached(version string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cache[version]
	if !ok || time.Now().After(c.expiresAt) {
		return nil
	}
	return c.profile
}

func (s *Service) setCached(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[p.Version] = cachedProfile{profile: p, expiresAt: time.Now().Add(s.cacheTTL)}
}
