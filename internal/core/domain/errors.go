package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQueryFailed wraps any failure of an upstream data source.
	ErrQueryFailed = errors.New("query failed")

	// ErrInvalidOwner is returned for owner ids that are not UUIDs.
	ErrInvalidOwner = errors.New("invalid owner id")
)
