package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/movie-catalog/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestNewAppliesLevel(t *testing.T) {
	log := New(&config.Config{ServiceName: "movie-catalog", Env: "production", LogLevel: "warn"})
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}
