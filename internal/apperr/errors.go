// Package apperr holds the error values shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrAlreadyExists = errors.New("already exists")
)
