package api

import "errors"

var (
	// ErrUnknownRoute is returned when a route name has no pattern.
	ErrUnknownRoute = errors.New("api: unknown route")
	// ErrMissingParam is returned when a path placeholder has no value.
	ErrMissingParam = errors.New("api: missing route parameter")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("api: unexpected status")
	// ErrNoTransport is returned when a client has no transport configured.
	ErrNoTransport = errors.New("api: transport is nil")
)
