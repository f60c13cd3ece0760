// Package testutil starts throwaway Postgres instances for integration tests.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Tomlord1122/task-tracker/internal/config"
)

const (
	dbName = "tasks"
	dbUser = "user"
	dbPwd  = "password"
)

// StartPostgres runs a Postgres container and returns settings that point at
// it, plus a teardown func. It fails when Docker is not reachable.
func StartPostgres(ctx context.Context) (cfg config.Database, teardown func(context.Context) error, err error) {
	// Provider discovery panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			cfg, teardown, err = config.Database{}, nil, fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return config.Database{}, nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return config.Database{}, nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return config.Database{}, nil, fmt.Errorf("container port: %w", err)
	}

	cfg = config.Database{
		Host:     host,
		Port:     port.Port(),
		Name:     dbName,
		Username: dbUser,
		Password: dbPwd,
		LogLevel: "silent",
	}
	teardown = func(ctx context.Context) error {
		return container.Terminate(ctx)
	}
	return cfg, teardown, nil
}
