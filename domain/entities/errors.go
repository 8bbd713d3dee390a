package entities

import "errors"

// Operation failure taxonomy. Every façade operation resolves to one of
// these or succeeds; storage faults are recovered internally and never
// surface through this set.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("serial number already exists")
)
