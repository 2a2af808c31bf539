// Package postgres persists locations and sites. The (study_id, location_id)
// pair carries a unique constraint so duplicate site creation surfaces as a
// conflict rather than a second row.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studygate/internal/participant/models"
	"studygate/pkg/sentinel"
)

// Schema creates the locations and sites tables.
const Schema = `
CREATE TABLE IF NOT EXISTS locations (
	id VARCHAR(64) PRIMARY KEY,
	custom_id VARCHAR(64) NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sites (
	id VARCHAR(64) PRIMARY KEY,
	study_id VARCHAR(64) NOT NULL,
	location_id VARCHAR(64) NOT NULL REFERENCES locations (id),
	created_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT sites_study_location UNIQUE (study_id, location_id)
);
`

// Store implements the participant store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the table definitions. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure participant schema: %w", err)
	}
	return nil
}

func (s *Store) CreateLocation(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (id, custom_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		loc.ID, loc.CustomID, loc.Name, loc.Description,
		string(loc.Status), loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	query := `
		SELECT id, custom_id, name, description, status, created_at, updated_at
		FROM locations
		WHERE id = $1
	`
	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return loc, err
}

func (s *Store) UpdateLocation(ctx context.Context, loc *models.Location) error {
	query := `
		UPDATE locations SET
			name = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Description, string(loc.Status), loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListLocations(ctx context.Context) ([]*models.Location, error) {
	query := `
		SELECT id, custom_id, name, description, status, created_at, updated_at
		FROM locations
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}

func (s *Store) CreateSite(ctx context.Context, site *models.Site) error {
	query := `
		INSERT INTO sites (id, study_id, location_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT sites_study_location DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		site.ID, site.StudyID, site.LocationID, site.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) ListSites(ctx context.Context, studyID string) ([]*models.Site, error) {
	query := `
		SELECT id, study_id, location_id, created_at
		FROM sites
		WHERE study_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(&site.ID, &site.StudyID, &site.LocationID, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, &site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}
	return sites, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.Location, error) {
	var (
		loc    models.Location
		status string
	)
	err := row.Scan(
		&loc.ID, &loc.CustomID, &loc.Name, &loc.Description,
		&status, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan location: %w", err)
	}
	loc.Status = models.LocationStatus(status)
	return &loc, nil
}
