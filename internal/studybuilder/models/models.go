// Package models defines the study aggregate and its lifecycle rules.
package models

import "time"

// Status is the study lifecycle state.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPreLaunch   Status = "pre-launch"
	StatusActive      Status = "active"
	StatusPaused      Status = "paused"
	StatusDeactivated Status = "deactivated"
)

// Section names the editable areas of a study.
type Section string

const (
	SectionBasicInfo      Section = "basic-info"
	SectionSettings       Section = "settings"
	SectionConsent        Section = "consent"
	SectionQuestionnaires Section = "questionnaires"
	SectionNotifications  Section = "notifications"
	SectionResources      Section = "resources"
)

// KnownSection reports whether the section name is one we manage.
func KnownSection(s Section) bool {
	switch s {
	case SectionBasicInfo, SectionSettings, SectionConsent,
		SectionQuestionnaires, SectionNotifications, SectionResources:
		return true
	}
	return false
}

// Action identifies a lifecycle transition. The values are the admin UI
// button ids, preserved for wire compatibility with existing clients.
type Action string

const (
	ActionLaunch         Action = "lunchId"
	ActionPublish        Action = "publishId"
	ActionPublishUpdates Action = "updatesId"
	ActionPause          Action = "pauseId"
	ActionResume         Action = "resumeId"
	ActionDeactivate     Action = "deactivateId"
)

// Study is the root aggregate of the study builder.
type Study struct {
	ID          string               `json:"id"`
	CustomID    string               `json:"customId,omitempty"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	Sponsor     string               `json:"sponsor,omitempty"`
	Tagline     string               `json:"tagline,omitempty"`
	AppID       string               `json:"appId,omitempty"`
	Status      Status               `json:"status"`
	Enrollment  string               `json:"enrollment,omitempty"`
	AllowRejoin bool                 `json:"allowRejoin"`
	Sections    map[Section]bool     `json:"sections"`
	Resources   map[string]*Resource `json:"-"`
	Version     int                  `json:"version"`
	CreatedBy   string               `json:"createdBy,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Resource is a study resource document shown to participants.
type Resource struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Completed bool   `json:"completed"`
}

// Clone returns a deep copy so store callers never share mutable maps.
func (s *Study) Clone() *Study {
	out := *s
	out.Sections = make(map[Section]bool, len(s.Sections))
	for k, v := range s.Sections {
		out.Sections[k] = v
	}
	out.Resources = make(map[string]*Resource, len(s.Resources))
	for k, v := range s.Resources {
		r := *v
		out.Resources[k] = &r
	}
	return &out
}

// Transition returns the status an action leads to from the current status.
// The second return is false when the transition is illegal.
func Transition(current Status, action Action) (Status, bool) {
	switch action {
	case ActionPublish:
		if current == StatusDraft {
			return StatusPreLaunch, true
		}
	case ActionLaunch:
		if current == StatusDraft || current == StatusPreLaunch {
			return StatusActive, true
		}
	case ActionPublishUpdates:
		if current == StatusActive {
			return StatusActive, true
		}
	case ActionPause:
		if current == StatusActive {
			return StatusPaused, true
		}
	case ActionResume:
		if current == StatusPaused {
			return StatusActive, true
		}
	case ActionDeactivate:
		if current == StatusActive || current == StatusPaused {
			return StatusDeactivated, true
		}
	}
	return current, false
}

// CreateStudyRequest is the POST /studies payload.
type CreateStudyRequest struct {
	Name        string `json:"name"`
	CustomID    string `json:"customId,omitempty"`
	AppID       string `json:"appId,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Sponsor     string `json:"sponsor,omitempty"`
	Tagline     string `json:"tagline,omitempty"`
}

// SaveSectionRequest carries section content. Zero-value fields leave the
// study untouched.
type SaveSectionRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Sponsor     string `json:"sponsor,omitempty"`
	Tagline     string `json:"tagline,omitempty"`
	Enrollment  string `json:"enrollment,omitempty"`
	AllowRejoin *bool  `json:"allowRejoin,omitempty"`
}

// ActionRequest is the POST /studies/{id}/action payload.
type ActionRequest struct {
	Action string `json:"action"`
}

// SaveResourceRequest carries resource content.
type SaveResourceRequest struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Published reports whether the study has ever left draft.
func (s *Study) Published() bool {
	return s.Status != StatusDraft
}
