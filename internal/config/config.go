// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; defaults target a localhost development setup.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"movie-catalog"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Port            string        `env:"APP_PORT" envDefault:"5001"`
	APIPrefix       string        `env:"API_PREFIX" envDefault:"/api"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"mongo"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	SeedSampleData  bool          `env:"SEED_SAMPLE_DATA" envDefault:"false"`

	Mongo  MongoConfig
	MySQL  MySQLConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Events EventsConfig
}

// MongoConfig describes the document store connection.  URI wins when set;
// otherwise one is assembled from the host parts.
type MongoConfig struct {
	URI        string `env:"MONGO_URI"`
	Host       string `env:"MONGO_HOST" envDefault:"localhost"`
	Port       string `env:"MONGO_PORT" envDefault:"27017"`
	Username   string `env:"MONGO_ROOT_USERNAME"`
	Password   string `env:"MONGO_ROOT_PASSWORD"`
	Database   string `env:"DATABASE_NAME" envDefault:"moviedb"`
	Collection string `env:"MONGO_COLLECTION" envDefault:"movies"`
}

// ConnectionURI returns the URI used to dial MongoDB.  Credentials, when
// present, authenticate against the admin database.
func (m MongoConfig) ConnectionURI() string {
	if m.URI != "" {
		return m.URI
	}
	host := m.Host + ":" + m.Port
	if m.Username != "" && m.Password != "" {
		u := url.UserPassword(m.Username, m.Password).String()
		return fmt.Sprintf("mongodb://%s@%s/%s?authSource=admin", u, host, m.Database)
	}
	return fmt.Sprintf("mongodb://%s/%s", host, m.Database)
}

// RedactedURI hides everything before the host so the URI can be logged.
func (m MongoConfig) RedactedURI() string {
	uri := m.ConnectionURI()
	if i := strings.LastIndex(uri, "@"); i >= 0 {
		return "mongodb://***" + uri[i:]
	}
	return uri
}

// MySQLConfig holds the connection parts used when STORE_DRIVER=mysql.
type MySQLConfig struct {
	User string `env:"DB_USER" envDefault:"root"`
	Pass string `env:"DB_PASS"`
	Host string `env:"DB_HOST" envDefault:"localhost"`
	Port string `env:"DB_PORT" envDefault:"3306"`
	Name string `env:"DB_NAME" envDefault:"moviedb"`
}

// EventsConfig controls publishing of movie change events.  An empty URL
// disables publishing.
type EventsConfig struct {
	URL     string `env:"RABBITMQ_URL"`
	AltURL  string `env:"AMQP_URL"`
	Queue   string `env:"MOVIE_EVENTS_QUEUE" envDefault:"movie.events"`
	LogPath string `env:"MOVIE_EVENTS_LOG" envDefault:"logs/movie-events.log"`
}

// BrokerURL returns RABBITMQ_URL, falling back to AMQP_URL.
func (e EventsConfig) BrokerURL() string {
	if e.URL != "" {
		return e.URL
	}
	return e.AltURL
}

// Load reads configuration values from the environment and normalizes them.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", cfg.StoreTimeout)
	}

	cfg.APIPrefix = normalizePrefix(cfg.APIPrefix)

	origins := cfg.CORSOrigins[:0]
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg.CORSOrigins = origins

	cfg.Cache.normalize()
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// normalizePrefix yields "" or a path starting with "/" and without a
// trailing slash.
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
