// Package router defines how HTTP routes are registered for the API.
package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/service"
)

// Deps bundles what the routes need.  Redis is optional; a nil client
// disables response caching.
type Deps struct {
	Config  *config.Config
	Service *service.MovieService
	Redis   *redis.Client
	Log     zerolog.Logger
}

// New builds an Echo instance with every route and middleware registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Log)
	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes wires the global middleware, the health probe, the metrics
// endpoint and the movie API under the configured prefix.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Config.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderOrigin},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group(d.Config.APIPrefix)

	health := &handler.HealthHandler{Svc: d.Service}
	api.GET("/health", health.Health)

	movies := handler.NewMovieHandler(d.Service, d.Log)
	g := api.Group("/movies", middleware.NewRedisCache(d.Config.Cache, d.Redis, d.Log))
	g.GET("", movies.List)
	g.POST("", movies.Create)
	// static segments before /:id so "search" and "stats" are never read as ids
	g.GET("/search", movies.Search)
	g.GET("/stats", movies.Stats)
	g.GET("/:id", movies.Get)
	g.PUT("/:id", movies.Update)
	g.DELETE("/:id", movies.Delete)
}

// errorHandler renders errors that escape the handlers with the same
// {"error": "..."} body the handlers use.
func errorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch code {
			case http.StatusNotFound:
				msg = "Endpoint not found"
			case http.StatusMethodNotAllowed:
				msg = "Method not allowed"
			case http.StatusInternalServerError:
			default:
				if s, ok := he.Message.(string); ok {
					msg = s
				} else {
					msg = http.StatusText(code)
				}
			}
		}
		if code >= 500 {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
