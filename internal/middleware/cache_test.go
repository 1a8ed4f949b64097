package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/config"
)

func newContext(e *echo.Echo, target, route string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	return c
}

func TestCacheKeyDependsOnGenerationAndPath(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "movies-cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, 0, newContext(e, "/api/movies/1", "/api/movies/:id"))
	b := cacheKeyFrom(cfg, 0, newContext(e, "/api/movies/2", "/api/movies/:id"))
	assert.NotEqual(t, a, b)

	again := cacheKeyFrom(cfg, 0, newContext(e, "/api/movies/1", "/api/movies/:id"))
	assert.Equal(t, a, again)

	bumped := cacheKeyFrom(cfg, 1, newContext(e, "/api/movies/1", "/api/movies/:id"))
	assert.NotEqual(t, a, bumped)
	assert.Contains(t, bumped, "movies-cache:1:")
}

func TestCacheKeyQuery(t *testing.T) {
	e := echo.New()
	withQuery := config.CacheConfig{Prefix: "p", KeyStrategy: "route_query"}
	routeOnly := config.CacheConfig{Prefix: "p", KeyStrategy: "route"}

	q1 := newContext(e, "/api/movies/search?q=dune", "/api/movies/search")
	q2 := newContext(e, "/api/movies/search?q=matrix", "/api/movies/search")
	assert.NotEqual(t, cacheKeyFrom(withQuery, 0, q1), cacheKeyFrom(withQuery, 0, q2))
	assert.Equal(t, cacheKeyFrom(routeOnly, 0, q1), cacheKeyFrom(routeOnly, 0, q2))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"movies":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"movies":[]}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	called := 0
	h := NewRedisCache(config.CacheConfig{Enabled: true}, nil, zerolog.Nop())(func(c echo.Context) error {
		called++
		return c.String(http.StatusOK, "ok")
	})

	c := newContext(e, "/api/movies", "/api/movies")
	require.NoError(t, h(c))
	assert.Equal(t, 1, called)
	assert.Empty(t, c.Response().Header().Get("X-Cache"))
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, err := cw.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", cw.buf.String())
	assert.EqualValues(t, 6, cw.size)
	assert.Equal(t, "abcdef", rec.Body.String())
}
