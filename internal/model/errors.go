package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrAlreadyClaimed is returned by guarded claim transitions when another
	// execution already advanced the record. Callers treat it as a no-op.
	ErrAlreadyClaimed = errors.New("already claimed")
)
