// Command movie-events consumes movie change events from RabbitMQ and appends
// them to an audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/logger"
	"github.com/iliyamo/movie-catalog/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.New(cfg).With().Str("component", "movie-events").Logger()

	url := cfg.Events.BrokerURL()
	if url == "" {
		lg.Fatal().Msg("RABBITMQ_URL or AMQP_URL must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: url, Queue: cfg.Events.Queue, LogPath: cfg.Events.LogPath, Log: lg}
	lg.Info().Str("queue", c.Queue).Str("log_path", c.LogPath).Msg("consuming movie events")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal().Err(err).Msg("consumer stopped")
	}
	lg.Info().Msg("consumer stopped")
}
