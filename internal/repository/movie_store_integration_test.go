package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
)

// startContainer starts req and returns its host and the mapped port of
// exposed.  The test is skipped when -short is set or no container runtime is
// reachable.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, exposed string) (string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, nat.Port(exposed))
	require.NoError(t, err)
	return host, port.Port()
}

func TestIntegration_MongoMovieRepo(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
	}, "27017/tcp")

	ctx := context.Background()
	client, err := database.OpenMongo(ctx, config.MongoConfig{URI: fmt.Sprintf("mongodb://%s:%s", host, port)})
	require.NoError(t, err)

	repo := NewMongoMovieRepo(client, "moviedb_test", "movies")
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	require.NoError(t, repo.EnsureIndexes(ctx))
	require.NoError(t, repo.EnsureIndexes(ctx), "index creation is idempotent")

	exerciseMovieStore(t, repo)
}

func TestIntegration_MySQLMovieRepo(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret",
			"MYSQL_DATABASE":      "moviedb",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(3 * time.Minute),
	}, "3306/tcp")

	ctx := context.Background()
	cfg := config.MySQLConfig{User: "root", Pass: "secret", Host: host, Port: port, Name: "moviedb"}

	// the server may still refuse connections right after the log line
	var repo *MySQLMovieRepo
	require.Eventually(t, func() bool {
		db, err := database.OpenMySQL(ctx, cfg)
		if err != nil {
			return false
		}
		repo = NewMySQLMovieRepo(db)
		return true
	}, time.Minute, time.Second)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation is idempotent")

	exerciseMovieStore(t, repo)
}
