package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MySQLMovieRepo encapsulates all database queries related to movies when the
// catalog runs on MySQL.  Identifiers are UUID strings generated here, not by
// the database.  The DSN must set clientFoundRows=true so that an update
// which changes nothing still reports the matched row.
type MySQLMovieRepo struct {
	db *sql.DB // db is the underlying connection pool
}

// NewMySQLMovieRepo constructs a MySQLMovieRepo with the provided DB handle.
func NewMySQLMovieRepo(db *sql.DB) *MySQLMovieRepo {
	return &MySQLMovieRepo{db: db}
}

const movieColumns = "id, title, description, release_year, genre, director, rating, created_at, updated_at"

// EnsureSchema creates the movies table when it does not exist yet.  It never
// alters an existing table.
func (r *MySQLMovieRepo) EnsureSchema(ctx context.Context) error {
	// Text columns carry no length limit, matching validation; the indexes
	// cover a prefix only.
	const q = `CREATE TABLE IF NOT EXISTS movies (
		id           CHAR(36)    NOT NULL PRIMARY KEY,
		title        TEXT        NOT NULL,
		description  TEXT        NOT NULL,
		release_year INT         NOT NULL,
		genre        TEXT        NOT NULL,
		director     TEXT        NOT NULL,
		rating       DOUBLE      NOT NULL,
		created_at   DATETIME(3) NOT NULL,
		updated_at   DATETIME(3) NOT NULL,
		INDEX idx_movies_title (title(191)),
		INDEX idx_movies_genre (genre(191)),
		INDEX idx_movies_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *MySQLMovieRepo) ValidID(id string) bool {
	_, ok := canonicalID(id)
	return ok
}

func (r *MySQLMovieRepo) Insert(ctx context.Context, m *model.Movie) (string, error) {
	const q = "INSERT INTO movies (" + movieColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, q, id, m.Title, m.Description, m.ReleaseYear,
		m.Genre, m.Director, m.Rating, m.CreatedAt, m.UpdatedAt); err != nil {
		return "", err
	}
	return id, nil
}

func (r *MySQLMovieRepo) Get(ctx context.Context, id string) (*model.Movie, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrMovieNotFound
	}
	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *MySQLMovieRepo) ListAll(ctx context.Context) ([]*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY created_at DESC"
	return r.query(ctx, q)
}

// Update writes the supplied fields only.  The follow-up SELECT returns the
// merged row to the caller.
func (r *MySQLMovieRepo) Update(ctx context.Context, id string, patch model.MoviePatch, now time.Time) (*model.Movie, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrMovieNotFound
	}
	set, args := mysqlSetClause(patch, now)
	res, err := r.db.ExecContext(ctx, "UPDATE movies SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrMovieNotFound
	}
	return r.Get(ctx, id)
}

func (r *MySQLMovieRepo) Delete(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return ErrMovieNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Search lower-cases both sides and escapes LIKE wildcards so the query is
// matched as a literal substring.
func (r *MySQLMovieRepo) Search(ctx context.Context, query string) ([]*model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Movie{}, nil
	}
	where, args := mysqlSearchClause(query)
	return r.query(ctx, "SELECT "+movieColumns+" FROM movies WHERE "+where+" ORDER BY created_at DESC", args...)
}

func (r *MySQLMovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *MySQLMovieRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *MySQLMovieRepo) Close(ctx context.Context) error {
	return r.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// mysqlSetClause returns the SET list for an update and its arguments.
// updated_at is always written last.
func mysqlSetClause(patch model.MoviePatch, now time.Time) (string, []any) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ReleaseYear != nil {
		add("release_year", *patch.ReleaseYear)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.Director != nil {
		add("director", *patch.Director)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	add("updated_at", now)
	return strings.Join(sets, ", "), args
}

// mysqlSearchClause ORs a case-insensitive literal substring match over every
// searchable column.
func mysqlSearchClause(query string) (string, []any) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	where := make([]string, 0, len(searchFields))
	args := make([]any, 0, len(searchFields))
	for _, f := range searchFields {
		where = append(where, "LOWER("+f+") LIKE ?")
		args = append(args, pattern)
	}
	return strings.Join(where, " OR "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var m model.Movie
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ReleaseYear, &m.Genre,
		&m.Director, &m.Rating, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func (r *MySQLMovieRepo) query(ctx context.Context, q string, args ...any) ([]*model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
