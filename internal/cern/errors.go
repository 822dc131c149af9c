package cern

import "errors"

var (
	// ErrNoResource is returned when neither the resource API nor the directory
	// could provide data and no authenticated user is available to query.
	ErrNoResource = errors.New("no resource available to resolve the user")

	// ErrUnauthenticated is returned by operations requiring a logged-in local user.
	ErrUnauthenticated = errors.New("user is not authenticated")

	// ErrNoRequest is returned when the context carries no request state.
	ErrNoRequest = errors.New("request state missing from context")
)
