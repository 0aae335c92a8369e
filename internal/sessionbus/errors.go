package sessionbus

import "errors"

var (
	// ErrInvalidPayload is returned by handlers when a message cannot be decoded.
	ErrInvalidPayload = errors.New("sessionbus: invalid payload")

	// ErrUnknownAction is reported for a profiles command with an unsupported action.
	ErrUnknownAction = errors.New("sessionbus: unknown profiles action")

	// ErrMissingField is reported when a command lacks a required field.
	ErrMissingField = errors.New("sessionbus: missing required field")

	// ErrSessionNotFound is reported when a preferred session command names
	// an unknown session.
	ErrSessionNotFound = errors.New("sessionbus: session not found")

	// ErrProfileNotFound is reported when a remove command matches nothing.
	ErrProfileNotFound = errors.New("sessionbus: profile not found")

	// ErrAlreadyStarted is returned by Start on a running bridge.
	ErrAlreadyStarted = errors.New("sessionbus: already started")
)
