package testing

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

const (
	PostgresDBName = "gymplan_test"
	PostgresUser   = "postgres"
)

func newDockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create dockertest pool")
	require.NoError(t, pool.Client.Ping(), "could not ping docker")
	pool.MaxWait = time.Minute

	return pool
}

// StartRedis runs a throwaway redis container and returns a connected client.
func StartRedis(t *testing.T) *redis.Client {
	t.Helper()

	pool := newDockerPool(t)
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	require.NoError(t, err, "run redis")
	t.Cleanup(func() {
		if err := resource.Close(); err != nil {
			t.Logf("redis teardown: %s", err)
		}
	})

	rdb := redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort("localhost", resource.GetPort("6379/tcp")),
		DB:   0,
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	require.NoError(t, pool.Retry(func() error {
		return rdb.Ping(context.Background()).Err()
	}))

	return rdb
}

// StartPostgres runs a throwaway postgres container and returns its DSN and a connected pool.
func StartPostgres(t *testing.T) (string, *pgxpool.Pool) {
	t.Helper()

	pool := newDockerPool(t)
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + PostgresUser,
			"POSTGRES_DB=" + PostgresDBName,
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err, "run postgres")
	t.Cleanup(func() {
		if err := resource.Close(); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	dsn := fmt.Sprintf(
		"postgres://%s@localhost:%s/%s?sslmode=disable",
		PostgresUser, resource.GetPort("5432/tcp"), PostgresDBName,
	)

	ctx := context.Background()
	dbPool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "create connection pool")
	t.Cleanup(dbPool.Close)

	require.NoError(t, pool.Retry(func() error {
		return dbPool.Ping(ctx)
	}), "connect to db")

	return dsn, dbPool
}
