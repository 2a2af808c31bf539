// Package models defines locations and the sites that bind them to studies.
package models

import (
	"strings"
	"time"

	dErrors "studygate/pkg/domain-errors"
)

// LocationStatus tracks whether a location accepts new sites.
type LocationStatus string

const (
	LocationActive         LocationStatus = "active"
	LocationDecommissioned LocationStatus = "decommissioned"
)

// Status toggle values used by the admin UI, preserved for wire
// compatibility: 0 decommissions, 1 reactivates.
const (
	StatusToggleDecommission = 0
	StatusToggleActivate     = 1
)

// Location is a physical place where a study can run.
type Location struct {
	ID          string         `json:"id"`
	CustomID    string         `json:"customId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      LocationStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Site attaches a study to a location. At most one site exists per
// (study, location) pair.
type Site struct {
	ID         string    `json:"id"`
	StudyID    string    `json:"studyId"`
	LocationID string    `json:"locationId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateLocationRequest is the POST /locations payload.
type CreateLocationRequest struct {
	CustomID    string `json:"customId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks the creation payload.
func (r CreateLocationRequest) Validate() error {
	if strings.TrimSpace(r.CustomID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "customId must not be empty")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name must not be empty")
	}
	return nil
}

// UpdateLocationRequest is the PUT /locations/{id} payload. Status is a
// pointer so "absent" and "decommission" stay distinguishable.
type UpdateLocationRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      *int   `json:"status,omitempty"`
}

// CreateSiteRequest is the POST /sites payload.
type CreateSiteRequest struct {
	StudyID    string `json:"studyId"`
	LocationID string `json:"locationId"`
}

// Validate checks the site payload.
func (r CreateSiteRequest) Validate() error {
	if strings.TrimSpace(r.StudyID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "studyId must not be empty")
	}
	if strings.TrimSpace(r.LocationID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "locationId must not be empty")
	}
	return nil
}
