package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound = errors.New("resource not found")

	// Deck Errors
	ErrDeckNotFound      = errors.New("deck not found")
	ErrDeckAlreadyExists = errors.New("deck with this game_id already exists")
	ErrSceneNotFound     = errors.New("scene not found in deck")

	// Validation Errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input data")

	// Auth Errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
