// Package repository defines the movie store contract and its adapters.
// The sentinel values below let higher layers such as the service and
// handlers distinguish an expected miss from an infrastructure failure.
package repository

import "errors"

// ErrMovieNotFound is returned when no movie matches the identifier, including
// when the identifier is not well formed for the store.  Handlers should
// translate this into an HTTP 404 response.
var ErrMovieNotFound = errors.New("movie not found")

// ErrInvalidID is returned by callers that check identifier syntax before
// reaching the store.  Handlers should translate this into an HTTP 400
// response.
var ErrInvalidID = errors.New("invalid movie id")
