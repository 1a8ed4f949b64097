package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MemoryMovieRepo keeps movies in process memory.  It backs STORE_DRIVER=memory
// for local runs and serves as the store in service and handler tests.
type MemoryMovieRepo struct {
	mu     sync.RWMutex
	movies map[string]*model.Movie
	order  []string // insertion order, used to break CreatedAt ties
	down   error    // when set, every call fails with it
}

// NewMemoryMovieRepo returns an empty in-memory store.
func NewMemoryMovieRepo() *MemoryMovieRepo {
	return &MemoryMovieRepo{movies: make(map[string]*model.Movie)}
}

// SetUnavailable makes every subsequent call fail with err; nil restores it.
func (r *MemoryMovieRepo) SetUnavailable(err error) {
	r.mu.Lock()
	r.down = err
	r.mu.Unlock()
}

func (r *MemoryMovieRepo) ValidID(id string) bool {
	_, ok := canonicalID(id)
	return ok
}

func (r *MemoryMovieRepo) Insert(ctx context.Context, m *model.Movie) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down != nil {
		return "", r.down
	}
	id := uuid.NewString()
	cp := *m
	cp.ID = id
	r.movies[id] = &cp
	r.order = append(r.order, id)
	return id, nil
}

func (r *MemoryMovieRepo) Get(ctx context.Context, id string) (*model.Movie, error) {
	id, _ = canonicalID(id)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.down != nil {
		return nil, r.down
	}
	m, ok := r.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryMovieRepo) ListAll(ctx context.Context) ([]*model.Movie, error) {
	return r.collect(func(*model.Movie) bool { return true })
}

func (r *MemoryMovieRepo) Update(ctx context.Context, id string, patch model.MoviePatch, now time.Time) (*model.Movie, error) {
	id, _ = canonicalID(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down != nil {
		return nil, r.down
	}
	m, ok := r.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	patch.Apply(m, now)
	cp := *m
	return &cp, nil
}

func (r *MemoryMovieRepo) Delete(ctx context.Context, id string) error {
	id, _ = canonicalID(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down != nil {
		return r.down
	}
	if _, ok := r.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(r.movies, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryMovieRepo) Search(ctx context.Context, query string) ([]*model.Movie, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []*model.Movie{}, nil
	}
	return r.collect(func(m *model.Movie) bool { return matches(m, needle) })
}

func (r *MemoryMovieRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.down != nil {
		return 0, r.down
	}
	return int64(len(r.movies)), nil
}

func (r *MemoryMovieRepo) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.down
}

func (r *MemoryMovieRepo) Close(ctx context.Context) error { return nil }

// collect copies matching movies newest first.  The order slice is walked
// backwards so equal CreatedAt values come out latest-inserted first.
func (r *MemoryMovieRepo) collect(keep func(*model.Movie) bool) ([]*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.down != nil {
		return nil, r.down
	}
	out := make([]*model.Movie, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.movies[r.order[i]]
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}
