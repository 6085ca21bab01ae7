package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyJoined   = errors.New("session has already joined")

	// Identity errors
	ErrIdentityNotFound = errors.New("identity not found")
)
