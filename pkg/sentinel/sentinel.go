// Package sentinel defines shared sentinel errors for infrastructure facts.
//
// Stores and infrastructure layers return these (optionally wrapped) so
// services can translate them into domain errors without importing store
// internals. For validation errors (bad input, missing fields), use
// pkg/domain-errors directly.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
