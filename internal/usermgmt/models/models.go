// Package models defines user accounts and registration payloads.
package models

import (
	"net/mail"
	"strings"
	"time"

	dErrors "studygate/pkg/domain-errors"
)

// UserStatus tracks account activation.
type UserStatus string

const (
	StatusPending UserStatus = "pending"
	StatusActive  UserStatus = "active"
)

// User is a platform account. Credentials live in the auth server; this
// record carries only profile and activation state.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	AppID     string     `json:"appId,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// RegisterRequest is the POST /users payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	AppID     string `json:"appId,omitempty"`
}

// Validate checks the syntactic rules enforced before the auth server is
// consulted. The auth server owns the full password policy.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email must not be empty")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "email is not a valid address")
	}
	if len(r.Password) < 8 || len(r.Password) > 64 {
		return dErrors.New(dErrors.CodeBadRequest, "password must be 8-64 characters")
	}
	return nil
}

// VerifyRequest is the POST /users/verify payload.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
