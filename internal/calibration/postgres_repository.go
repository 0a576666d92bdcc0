package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Coefficients are stored as JSONB so new coefficients need no migration.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL calibration repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a profile by version.
func (r *PostgresRepository) Get(ctx context.Context, version string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT version, description, coefficients, updated_at
		FROM calibration_profiles
		WHERE version = $1
	`, version)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// List retrieves all profiles ordered by version.
func (r *PostgresRepository) List(ctx context.Context) ([]*Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT version, description, coefficients, updated_at
		FROM calibration_profiles
		ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("query calibration profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Save creates or replaces a profile.
func (r *PostgresRepository) Save(ctx context.Context, p *Profile) error {
	p.normalize()
	coefficients, err := json.Marshal(p.Coefficients)
	if err != nil {
		return fmt.Errorf("encode coefficients: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO calibration_profiles (version, description, coefficients, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (version) DO UPDATE SET
			description = EXCLUDED.description,
			coefficients = EXCLUDED.coefficients,
			updated_at = EXCLUDED.updated_at
	`, p.Version, p.Description, coefficients, time.Now())
	return err
}

// Delete removes a profile by version.
func (r *PostgresRepository) Delete(ctx context.Context, version string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calibration_profiles WHERE version = $1`, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p            Profile
		coefficients []byte
	)
	if err := row.Scan(&p.Version, &p.Description, &coefficients, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(coefficients, &p.Coefficients); err != nil {
		return nil, fmt.Errorf("decode coefficients for %s: %w", p.Version, err)
	}
	p.normalize()
	return &p, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
