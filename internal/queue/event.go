// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// Movie event types.
const (
	MovieCreated = "movie.created"
	MovieUpdated = "movie.updated"
	MovieDeleted = "movie.deleted"
)

// MovieEvent is published after a movie is created, updated or deleted.
// Movie carries the stored record for create and update and is nil for
// deletes, so consumers can log or index without querying the store.
type MovieEvent struct {
	Type       string       `json:"type"`
	MovieID    string       `json:"movie_id"`
	Movie      *model.Movie `json:"movie,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
