package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Service-level errors
var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Login never distinguishes the two, so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
