// Package postgres persists studies. Sections and resources are stored as
// JSONB alongside the row; the aggregate is always loaded whole.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"studygate/internal/studybuilder/models"
	"studygate/pkg/sentinel"
)

// Schema creates the studies table.
const Schema = `
CREATE TABLE IF NOT EXISTS studies (
	id VARCHAR(64) PRIMARY KEY,
	custom_id VARCHAR(64),
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category VARCHAR(100) NOT NULL DEFAULT '',
	sponsor VARCHAR(255) NOT NULL DEFAULT '',
	tagline VARCHAR(255) NOT NULL DEFAULT '',
	app_id VARCHAR(100) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	enrollment VARCHAR(20) NOT NULL DEFAULT '',
	allow_rejoin BOOLEAN NOT NULL DEFAULT FALSE,
	sections JSONB NOT NULL DEFAULT '{}',
	resources JSONB NOT NULL DEFAULT '{}',
	version INT NOT NULL DEFAULT 0,
	created_by VARCHAR(100) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store implements the study store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the table definition. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure studies schema: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, study *models.Study) error {
	sections, resources, err := marshalAggregates(study)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO studies (
			id, custom_id, name, description, category, sponsor, tagline,
			app_id, status, enrollment, allow_rejoin, sections, resources,
			version, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		study.ID, study.CustomID, study.Name, study.Description,
		study.Category, study.Sponsor, study.Tagline, study.AppID,
		string(study.Status), study.Enrollment, study.AllowRejoin,
		sections, resources, study.Version, study.CreatedBy,
		study.CreatedAt, study.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert study: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Study, error) {
	query := `
		SELECT id, custom_id, name, description, category, sponsor, tagline,
			app_id, status, enrollment, allow_rejoin, sections, resources,
			version, created_by, created_at, updated_at
		FROM studies
		WHERE id = $1
	`
	study, err := scanStudy(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return study, err
}

func (s *Store) Update(ctx context.Context, study *models.Study) error {
	sections, resources, err := marshalAggregates(study)
	if err != nil {
		return err
	}
	query := `
		UPDATE studies SET
			custom_id = $2, name = $3, description = $4, category = $5,
			sponsor = $6, tagline = $7, app_id = $8, status = $9,
			enrollment = $10, allow_rejoin = $11, sections = $12,
			resources = $13, version = $14, updated_at = $15
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		study.ID, study.CustomID, study.Name, study.Description,
		study.Category, study.Sponsor, study.Tagline, study.AppID,
		string(study.Status), study.Enrollment, study.AllowRejoin,
		sections, resources, study.Version, study.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update study: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Study, error) {
	query := `
		SELECT id, custom_id, name, description, category, sponsor, tagline,
			app_id, status, enrollment, allow_rejoin, sections, resources,
			version, created_by, created_at, updated_at
		FROM studies
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	var studies []*models.Study
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return studies, nil
}

func marshalAggregates(study *models.Study) (sections, resources []byte, err error) {
	sections, err = json.Marshal(study.Sections)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal sections: %w", err)
	}
	resources, err = json.Marshal(study.Resources)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal resources: %w", err)
	}
	return sections, resources, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(row rowScanner) (*models.Study, error) {
	var (
		study     models.Study
		status    string
		sections  []byte
		resources []byte
	)
	err := row.Scan(
		&study.ID, &study.CustomID, &study.Name, &study.Description,
		&study.Category, &study.Sponsor, &study.Tagline, &study.AppID,
		&status, &study.Enrollment, &study.AllowRejoin, &sections,
		&resources, &study.Version, &study.CreatedBy,
		&study.CreatedAt, &study.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan study: %w", err)
	}
	study.Status = models.Status(status)
	if err := json.Unmarshal(sections, &study.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(resources, &study.Resources); err != nil {
		return nil, fmt.Errorf("unmarshal resources: %w", err)
	}
	return &study, nil
}
