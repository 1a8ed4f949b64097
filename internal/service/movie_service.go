// Package service implements the movie query/command operations.  Each
// operation validates input, calls the store under a bounded context and maps
// store outcomes onto the sentinel errors the HTTP layer understands.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/model"
	q "github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/stats"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

var (
	// ErrNoFields is returned when an update supplies no recognised field.
	ErrNoFields = errors.New("no valid fields to update")
	// ErrPersistence wraps every unexpected store failure, timeouts included.
	ErrPersistence = errors.New("persistence failure")
)

// Re-exported so handlers only need this package for error mapping.
var (
	ErrMovieNotFound = repository.ErrMovieNotFound
	ErrInvalidID     = repository.ErrInvalidID
)

const eventTimeout = 3 * time.Second

// HealthStatus is the outcome of a liveness probe.
type HealthStatus struct {
	Healthy   bool
	Timestamp time.Time
	Error     string
}

// MovieService composes the validator and the store.  It holds no state of
// its own and adds no locking; concurrent updates are last-write-wins.
type MovieService struct {
	store     repository.MovieStore
	validator *validation.Validator
	events    EventPublisher
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewMovieService wires a service around store.  A nil publisher disables
// events; timeout bounds every store call.
func NewMovieService(store repository.MovieStore, events EventPublisher, timeout time.Duration, log zerolog.Logger) *MovieService {
	if events == nil {
		events = NopPublisher{}
	}
	s := &MovieService{
		store:   store,
		events:  events,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
	s.validator = &validation.Validator{Now: func() time.Time { return s.now() }}
	return s
}

// WithClock replaces the clock used for timestamps and the year bound.
func (s *MovieService) WithClock(now func() time.Time) *MovieService {
	s.now = now
	return s
}

// timestamp returns the current time in UTC at millisecond precision, the
// finest resolution every store keeps.
func (s *MovieService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create validates raw and inserts the resulting movie.  Validation failures
// are returned as validation.FieldErrors and never reach the store.
func (s *MovieService) Create(ctx context.Context, raw validation.RawInput) (*model.Movie, error) {
	in, fe := s.validator.ValidateCreate(raw)
	if fe != nil {
		s.log.Debug().Interface("errors", fe).Msg("create rejected")
		return nil, fe
	}
	m := in.NewMovie(s.timestamp())

	var id string
	err := s.call(ctx, "insert", func(ctx context.Context) error {
		var err error
		id, err = s.store.Insert(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.ID = id
	s.publish(ctx, q.MovieCreated, id, m)
	return m, nil
}

// Get returns the movie with the given id.
func (s *MovieService) Get(ctx context.Context, id string) (*model.Movie, error) {
	if !s.store.ValidID(id) {
		return nil, ErrInvalidID
	}
	var m *model.Movie
	err := s.call(ctx, "get", func(ctx context.Context) error {
		var err error
		m, err = s.store.Get(ctx, id)
		return err
	})
	return m, err
}

// Update re-validates only the supplied fields and merges them into the
// stored movie.
func (s *MovieService) Update(ctx context.Context, id string, raw validation.RawInput) (*model.Movie, error) {
	if !s.store.ValidID(id) {
		return nil, ErrInvalidID
	}
	patch, fe := s.validator.ValidatePatch(raw)
	if fe != nil {
		s.log.Debug().Interface("errors", fe).Str("movie_id", id).Msg("update rejected")
		return nil, fe
	}
	if patch.IsEmpty() {
		return nil, ErrNoFields
	}

	now := s.timestamp()
	var m *model.Movie
	err := s.call(ctx, "update", func(ctx context.Context) error {
		var err error
		m, err = s.store.Update(ctx, id, patch, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, q.MovieUpdated, id, m)
	return m, nil
}

// Delete removes the movie permanently.  Deleting an absent movie reports
// ErrMovieNotFound.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	if !s.store.ValidID(id) {
		return ErrInvalidID
	}
	err := s.call(ctx, "delete", func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, q.MovieDeleted, id, nil)
	return nil
}

// List returns every movie, newest first.
func (s *MovieService) List(ctx context.Context) ([]*model.Movie, error) {
	var out []*model.Movie
	err := s.call(ctx, "list", func(ctx context.Context) error {
		var err error
		out, err = s.store.ListAll(ctx)
		return err
	})
	return out, err
}

// Search returns movies whose text fields contain query.  A blank query
// yields an empty result without touching the store.
func (s *MovieService) Search(ctx context.Context, query string) ([]*model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Movie{}, nil
	}
	var out []*model.Movie
	err := s.call(ctx, "search", func(ctx context.Context) error {
		var err error
		out, err = s.store.Search(ctx, query)
		return err
	})
	return out, err
}

// Stats computes the dashboard aggregates over the whole catalog.
func (s *MovieService) Stats(ctx context.Context) (stats.Summary, error) {
	movies, err := s.List(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Compute(movies), nil
}

// Health pings the store.  It never returns an error; an unreachable store is
// reported through HealthStatus.
func (s *MovieService) Health(ctx context.Context) HealthStatus {
	err := s.call(ctx, "ping", s.store.Ping)
	st := HealthStatus{Healthy: err == nil, Timestamp: s.now().UTC()}
	if err != nil {
		st.Error = "database unreachable"
	}
	return st
}

// Seed inserts the given movies when the store is empty.  Each entry goes
// through the same validation as Create.  It returns the number inserted.
func (s *MovieService) Seed(ctx context.Context, entries []validation.RawInput) (int, error) {
	var n int64
	if err := s.call(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = s.store.Count(ctx)
		return err
	}); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	inserted := 0
	for _, raw := range entries {
		if _, err := s.Create(ctx, raw); err != nil {
			return inserted, fmt.Errorf("seed %v: %w", raw[validation.FieldTitle], err)
		}
		inserted++
	}
	return inserted, nil
}

// call runs fn under the store timeout, records metrics and classifies the
// error: not-found passes through, anything else becomes ErrPersistence.
func (s *MovieService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		metrics.RecordStoreOperation(op, "ok", elapsed)
		return nil
	case errors.Is(err, repository.ErrMovieNotFound):
		metrics.RecordStoreOperation(op, "not_found", elapsed)
		return ErrMovieNotFound
	default:
		metrics.RecordStoreOperation(op, "error", elapsed)
		s.log.Error().Err(err).Str("op", op).Msg("movie store failure")
		return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	}
}

// publish emits a change event.  Failures are logged by the publisher and
// never fail the request that caused them.
func (s *MovieService) publish(ctx context.Context, typ, id string, m *model.Movie) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	ev := q.MovieEvent{Type: typ, MovieID: id, Movie: m, OccurredAt: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", typ).Str("movie_id", id).Msg("movie event not published")
	}
}
