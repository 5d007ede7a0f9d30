package adapter

import (
	"errors"
)

var (
	// ErrInvalidPageSize is returned for a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrEmptyCredential is returned when no access token is supplied.
	ErrEmptyCredential = errors.New("empty access token")

	// ErrInvalidCredential is returned when a credential is rejected before
	// any storage is touched.
	ErrInvalidCredential = errors.New("invalid access token")
)
