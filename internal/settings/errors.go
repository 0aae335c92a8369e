package settings

import "errors"

var (
	// ErrEmptyKey is returned when a namespace or key is empty.
	ErrEmptyKey = errors.New("settings: empty namespace or key")

	// ErrUnknownBackend is returned by Open for an unrecognised storage.backend.
	ErrUnknownBackend = errors.New("settings: unknown backend")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("settings: backend closed")
)
