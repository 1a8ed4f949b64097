package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MovieStore is the persistence contract for movies.  Each adapter applies a
// single insert, update or delete atomically; nothing beyond that is promised,
// so concurrent updates to one movie are last-write-wins.
type MovieStore interface {
	// ValidID reports whether id is syntactically an identifier of this
	// store.  It never performs I/O.
	ValidID(id string) bool
	// Insert stores m, assigns its ID and returns it.  CreatedAt and
	// UpdatedAt are persisted as supplied.
	Insert(ctx context.Context, m *model.Movie) (string, error)
	// Get returns ErrMovieNotFound when the id is unknown or malformed.
	Get(ctx context.Context, id string) (*model.Movie, error)
	// ListAll returns every movie, most recently created first.
	ListAll(ctx context.Context) ([]*model.Movie, error)
	// Update merges the patch into the stored movie and sets UpdatedAt to now.
	Update(ctx context.Context, id string, patch model.MoviePatch, now time.Time) (*model.Movie, error)
	// Delete removes the movie permanently.
	Delete(ctx context.Context, id string) error
	// Search matches query case-insensitively as a substring of title,
	// description, genre or director.  An empty query matches nothing.
	Search(ctx context.Context, query string) ([]*model.Movie, error)
	// Count returns the number of stored movies.
	Count(ctx context.Context) (int64, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// searchFields lists the movie attributes a search query is matched against.
var searchFields = []string{"title", "description", "genre", "director"}

// matches reports whether the lower-cased needle occurs in any searchable field.
func matches(m *model.Movie, needle string) bool {
	for _, hay := range []string{m.Title, m.Description, m.Genre, m.Director} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders movies by CreatedAt descending.  Ties keep their
// relative order.
func sortNewestFirst(ms []*model.Movie) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].CreatedAt.After(ms[j].CreatedAt)
	})
}

// canonicalID normalizes any accepted UUID spelling (upper case, braces,
// urn:uuid: prefix) to the lower-case hyphenated form ids are stored under.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
