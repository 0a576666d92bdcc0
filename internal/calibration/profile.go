// Package calibration stores versioned dosing coefficient profiles and
// resolves the profile that calculations currently use.
package calibration

import (
	"context"
	"errors"
	"time"

	"github.com/aquadose/aquadose/internal/dosing"
)

var (
	// ErrProfileNotFound is returned when a calibration profile does not exist.
	ErrProfileNotFound = errors.New("calibration profile not found")

	// ErrBuiltinProfile is returned when trying to delete the built-in profile.
	ErrBuiltinProfile = errors.New("built-in calibration profile cannot be deleted")
)

// Profile is a named, versioned set of dosing coefficients.
type Profile struct {
	Version      string              `json:"version" yaml:"version"`
	Description  string              `json:"description,omitempty" yaml:"description"`
	Coefficients dosing.Coefficients `json:"coefficients" yaml:"coefficients"`
	UpdatedAt    time.Time           `json:"updatedAt" yaml:"-"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() *Profile {
	return &Profile{
		Version:      dosing.DefaultCoefficientsVersion,
		Description:  "Built-in corrected calibration",
		Coefficients: dosing.DefaultCoefficients(),
	}
}

// normalize keeps the coefficient version in step with the profile version.
func (p *Profile) normalize() {
	if p.Version == "" {
		p.Version = p.Coefficients.Version
	}
	p.Coefficients.Version = p.Version
}

// Validate reports whether the profile can be used for calculations.
func (p *Profile) Validate() error {
	p.normalize()
	return p.Coefficients.Validate()
}

// Repository defines the interface for calibration profile storage.
type Repository interface {
	// Get retrieves a profile by version.
	Get(ctx context.Context, version string) (*Profile, error)

	// List retrieves all profiles ordered by version.
	List(ctx context.Context) ([]*Profile, error)

	// Save creates or replaces a profile.
	Save(ctx context.Context, p *Profile) error

	// Delete removes a profile by version.
	Delete(ctx context.Context, version string) error
}
