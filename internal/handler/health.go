package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/service"
)

// HealthHandler reports whether the service can reach its store.  Load
// balancers and monitoring poll it.
type HealthHandler struct {
	Svc *service.MovieService
}

// Health returns 200 with database "connected" when the store answers a
// ping, 500 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	st := h.Svc.Health(c.Request().Context())
	ts := st.Timestamp.Format(time.RFC3339Nano)
	if !st.Healthy {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":    "unhealthy",
			"timestamp": ts,
			"error":     st.Error,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"timestamp": ts,
		"database":  "connected",
	})
}
