package models

import "errors"

var (
	// ErrNotFound is returned for a single-item fetch that the backend
	// could not resolve, and for unknown or expired share links.
	ErrNotFound = errors.New("not found")

	// ErrAuthRequired is returned when no usable token is held and a
	// refresh could not produce one. The gateway maps it to a consent
	// redirect.
	ErrAuthRequired = errors.New("authentication required")

	// ErrConfigNotSet indicates the provider's OAuth configuration was
	// read before being injected. This is a deployment error, never
	// expected at runtime.
	ErrConfigNotSet = errors.New("provider config not set")

	// ErrInvalidProvider indicates an unknown provider tag in the
	// request path or in a stored share link record.
	ErrInvalidProvider = errors.New("invalid provider")
)
