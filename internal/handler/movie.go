// Package handler exposes the HTTP handlers of the movie catalog API.  Each
// handler decodes the request, calls the service and maps service errors onto
// status codes; error bodies are always {"error": "..."} except validation
// failures, which return {"errors": {field: message}}.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// MovieHandler serves the /movies endpoints.
type MovieHandler struct {
	Svc *service.MovieService
	Log zerolog.Logger
}

// NewMovieHandler builds a MovieHandler.
func NewMovieHandler(svc *service.MovieService, log zerolog.Logger) *MovieHandler {
	return &MovieHandler{Svc: svc, Log: log}
}

// readBody decodes the request body into a RawInput.  A missing body, null
// or an empty object is reported as "No data provided".
func readBody(c echo.Context) (validation.RawInput, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read request body"})
	}
	if len(data) == 0 {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "No data provided"})
	}
	raw, err := validation.Decode(data)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if len(raw) == 0 {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "No data provided"})
	}
	return raw, nil
}

// fail maps a service error onto a response.
func (h *MovieHandler) fail(c echo.Context, err error) error {
	var fe validation.FieldErrors
	switch {
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fe})
	case errors.Is(err, service.ErrInvalidID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid movie ID"})
	case errors.Is(err, service.ErrNoFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No valid fields to update"})
	case errors.Is(err, service.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Movie not found"})
	default:
		h.Log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

// List returns every movie, newest first.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// Get returns one movie.
func (h *MovieHandler) Get(c echo.Context) error {
	m, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": m})
}

// Create adds a movie and returns it with its assigned id.
func (h *MovieHandler) Create(c echo.Context) error {
	raw, err := readBody(c)
	if raw == nil {
		return err
	}
	m, err := h.Svc.Create(c.Request().Context(), raw)
	if err != nil {
		return h.fail(c, err)
	}
	h.Log.Info().Str("movie_id", m.ID).Str("title", m.Title).Msg("movie created")
	return c.JSON(http.StatusCreated, echo.Map{"message": "Movie added successfully", "movie": m})
}

// Update applies a partial update.
func (h *MovieHandler) Update(c echo.Context) error {
	raw, err := readBody(c)
	if raw == nil {
		return err
	}
	m, err := h.Svc.Update(c.Request().Context(), c.Param("id"), raw)
	if err != nil {
		return h.fail(c, err)
	}
	h.Log.Info().Str("movie_id", m.ID).Msg("movie updated")
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie updated successfully", "movie": m})
}

// Delete removes a movie.
func (h *MovieHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	h.Log.Info().Str("movie_id", id).Msg("movie deleted")
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deleted successfully"})
}

// Search matches ?q= against title, genre, director and description.
func (h *MovieHandler) Search(c echo.Context) error {
	movies, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// Stats serves the dashboard aggregates.
func (h *MovieHandler) Stats(c echo.Context) error {
	s, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": s})
}
