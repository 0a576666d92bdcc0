// Package featureflags provides feature flag management for runtime configuration.
package featureflags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquadose/aquadose/internal/dosing"
)

// Well-known feature flag keys.
const (
	// FlagActiveCalibration names the calibration profile version used for
	// calculations.
	FlagActiveCalibration = "active_calibration"

	// FlagDefaultLocale is the locale used when a request does not name one.
	FlagDefaultLocale = "default_locale"

	// FlagDisableCSVExport turns off the CSV export endpoint.
	FlagDisableCSVExport = "disable_csv_export"
)

// ErrFlagNotFound is returned by a Repository for a key it does not hold.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository persists flag overrides. Keys it does not hold fall back to
// DefaultFlags in the Service. Implementations: InMemoryRepository for the
// memory store, PostgresRepository for the postgres store.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags applies an admin update in one transaction, so a calibration
	// switch and its companion flags land together.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag drops an override, returning the key to its default.
	DeleteFlag(ctx context.Context, key string) error
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// Validate checks that a well-known flag receives a value of the right type.
// Unknown keys are accepted as-is.
func (u FlagUpdate) Validate() error {
	switch u.Key {
	case "":
		return fmt.Errorf("flag key is required")
	case FlagActiveCalibration:
		if s, ok := u.Value.(string); !ok || s == "" {
			return fmt.Errorf("%s must be a non-empty string", u.Key)
		}
	case FlagDefaultLocale:
		s, ok := u.Value.(string)
		if !ok {
			return fmt.Errorf("%s must be a string", u.Key)
		}
		if _, ok := dosing.LookupLocale(s); !ok {
			return fmt.Errorf("%s must be one of the supported locales", u.Key)
		}
	case FlagDisableCSVExport:
		if _, ok := u.Value.(bool); !ok {
			return fmt.Errorf("%s must be a boolean", u.Key)
		}
	}
	return nil
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil, not found, or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
// Returns the default value if the flag is nil, not found, or not a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case string:
		return v
	default:
		return defaultValue
	}
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagActiveCalibration: {
			Key:       FlagActiveCalibration,
			Value:     dosing.DefaultCoefficientsVersion,
			UpdatedAt: now,
		},
		FlagDefaultLocale: {
			Key:       FlagDefaultLocale,
			Value:     string(dosing.DefaultLocale),
			UpdatedAt: now,
		},
		FlagDisableCSVExport: {
			Key:       FlagDisableCSVExport,
			Value:     false,
			UpdatedAt: now,
		},
	}
}
