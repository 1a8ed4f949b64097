package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/logger"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/router"
	"github.com/iliyamo/movie-catalog/internal/seed"
	"github.com/iliyamo/movie-catalog/internal/service"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open movie store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			lg.Warn().Err(err).Msg("closing movie store")
		}
	}()

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb, err = config.NewRedisClient(cfg.Redis)
		if err != nil {
			lg.Warn().Err(err).Str("addr", cfg.Redis.Address()).Msg("redis unavailable, response cache disabled")
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	var events service.EventPublisher
	if url := cfg.Events.BrokerURL(); url != "" {
		events = service.NewAMQPPublisher(url, cfg.Events.Queue, lg)
	}

	svc := service.NewMovieService(store, events, cfg.StoreTimeout, lg)

	if cfg.SeedSampleData {
		n, err := svc.Seed(ctx, seed.SampleMovies())
		if err != nil {
			lg.Error().Err(err).Int("inserted", n).Msg("seeding sample movies failed")
		} else if n > 0 {
			lg.Info().Int("inserted", n).Msg("seeded sample movies")
		}
	}

	e := router.New(router.Deps{Config: cfg, Service: svc, Redis: rdb, Log: lg})

	banner := lg.Info().
		Str("addr", cfg.Addr()).
		Str("api_prefix", cfg.APIPrefix).
		Str("driver", cfg.StoreDriver).
		Bool("cache", rdb != nil).
		Bool("events", events != nil)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		banner = banner.Str("database", cfg.Mongo.Database).Str("mongo", cfg.Mongo.RedactedURI())
	case config.DriverMySQL:
		banner = banner.Str("database", cfg.MySQL.Name).Str("mysql", cfg.MySQL.Host+":"+cfg.MySQL.Port)
	}
	banner.Msg("movie catalog API starting")

	go func() {
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore connects the backend selected by STORE_DRIVER and prepares its
// indexes or schema.
func openStore(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (repository.MovieStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMySQLMovieRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		lg.Warn().Msg("using in-memory movie store; data is lost on restart")
		return repository.NewMemoryMovieRepo(), nil
	default:
		client, err := database.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoMovieRepo(client, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			lg.Warn().Err(err).Msg("could not create movie indexes")
		}
		return repo, nil
	}
}

// loadEnvFiles loads .env from the working directory or its parent when
// present.  Values already in the environment win.
func loadEnvFiles() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				log.Warn().Err(err).Str("path", p).Msg("failed to load env file")
			}
			return
		}
	}
}
