// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrBadSignature indicates a client signature token failed verification.
	ErrBadSignature = errors.New("bad signature")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., duplicate event id).
	ErrAlreadyExists = errors.New("already exists")
)
