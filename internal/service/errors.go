package service

import (
	"errors"
)

var (
	// ErrNotFound: no matching record under any visibility.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: a matching record exists but the observer lacks the
	// required capability. Always distinguished from ErrNotFound by the
	// two-phase lookup in the resolver.
	ErrForbidden = errors.New("permission denied")
	// ErrExists: a visible sibling already carries the requested name.
	ErrExists = errors.New("name already exists")
	// ErrFileSizeLimit: upload exceeded the configured per-file maximum.
	// The record and blob have already been removed when this is returned.
	ErrFileSizeLimit = errors.New("file exceeds maximum size")
	// ErrQuotaExceeded: upload pushed the account over its quota. Same
	// cleanup guarantee as ErrFileSizeLimit.
	ErrQuotaExceeded = errors.New("account storage quota exceeded")
)
