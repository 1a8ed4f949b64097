package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/model"
	q "github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/seed"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.MovieEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev q.MovieEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*MovieService, *repository.MemoryMovieRepo, *recordingPublisher, *clock) {
	t.Helper()
	store := repository.NewMemoryMovieRepo()
	pub := &recordingPublisher{}
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewMovieService(store, pub, time.Second, zerolog.Nop()).WithClock(clk.now)
	return svc, store, pub, clk
}

func dune() validation.RawInput {
	return validation.RawInput{
		"title":        "Dune",
		"description":  "Desert planet",
		"release_year": json.Number("2021"),
		"genre":        "Sci-Fi",
		"director":     "Denis Villeneuve",
		"rating":       json.Number("8.5"),
	}
}

func TestCreateThenGet(t *testing.T) {
	svc, _, pub, _ := newTestService(t)
	ctx := context.Background()

	in := dune()
	in["title"] = "  Dune  "
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{q.MovieCreated}, pub.types())
}

func TestCreateInvalidDoesNotTouchStore(t *testing.T) {
	svc, store, pub, _ := newTestService(t)
	ctx := context.Background()

	in := dune()
	delete(in, "genre")
	in["rating"] = json.Number("10.001")
	_, err := svc.Create(ctx, in)

	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 2)
	assert.Contains(t, fe, "genre")
	assert.Contains(t, fe, "rating")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.types())
}

func TestUpdateRatingOnly(t *testing.T) {
	svc, _, _, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	clk.t = clk.t.Add(time.Hour)
	updated, err := svc.Update(ctx, created.ID, validation.RawInput{"rating": json.Number("9.0")})
	require.NoError(t, err)

	assert.Equal(t, 9.0, updated.Rating)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.ReleaseYear, updated.ReleaseYear)
	assert.Equal(t, created.Genre, updated.Genre)
	assert.Equal(t, created.Director, updated.Director)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clk.t, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Before(updated.UpdatedAt))
}

func TestUpdateErrors(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	_, err = svc.Update(ctx, "not-an-id", validation.RawInput{"rating": json.Number("1")})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Update(ctx, created.ID, validation.RawInput{"unknown": "x", "title": nil})
	assert.ErrorIs(t, err, ErrNoFields)

	_, err = svc.Update(ctx, created.ID, validation.RawInput{"rating": json.Number("-1")})
	var fe validation.FieldErrors
	assert.True(t, errors.As(err, &fe))

	_, err = svc.Update(ctx, "4f1c2e0e-9d0b-4f5e-8f5a-0a1b2c3d4e5f", validation.RawInput{"rating": json.Number("1")})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestDeleteTwice(t *testing.T) {
	svc, _, pub, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrMovieNotFound)
	assert.Equal(t, []string{q.MovieCreated, q.MovieDeleted}, pub.types())
}

func TestGetInvalidID(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "xyz")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(context.Background(), "xyz"), ErrInvalidID)
}

func TestSearch(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	in := dune()
	in["genre"] = "action"
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	got, err := svc.Search(ctx, "ACTION")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	store.SetUnavailable(errors.New("down"))
	got, err = svc.Search(ctx, "   ")
	require.NoError(t, err, "blank query must not reach the store")
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _, clk := newTestService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, dune())
	require.NoError(t, err)
	clk.t = clk.t.Add(time.Minute)
	second, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestStoreFailureBecomesPersistenceError(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	store.SetUnavailable(errors.New("connection refused"))

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = svc.Create(context.Background(), dune())
	assert.ErrorIs(t, err, ErrPersistence)
}

type slowStore struct {
	*repository.MemoryMovieRepo
}

func (s slowStore) ListAll(ctx context.Context) ([]*model.Movie, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeout(t *testing.T) {
	svc := NewMovieService(slowStore{repository.NewMemoryMovieRepo()}, nil, 10*time.Millisecond, zerolog.Nop())
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealth(t *testing.T) {
	svc, store, _, clk := newTestService(t)
	st := svc.Health(context.Background())
	assert.True(t, st.Healthy)
	assert.Equal(t, clk.t, st.Timestamp)

	store.SetUnavailable(errors.New("down"))
	st = svc.Health(context.Background())
	assert.False(t, st.Healthy)
	assert.NotEmpty(t, st.Error)
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	svc, _, pub, _ := newTestService(t)
	pub.err = errors.New("broker down")
	_, err := svc.Create(context.Background(), dune())
	assert.NoError(t, err)
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx, seed.SampleMovies())
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = svc.Seed(ctx, seed.SampleMovies())
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)
}

func TestStats(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Seed(ctx, seed.SampleMovies())
	require.NoError(t, err)

	s, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 9.3, s.HighestRating)
	assert.Equal(t, "The Shawshank Redemption", s.TopRated[0].Title)
}
