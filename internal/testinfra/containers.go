package testinfra

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "intake"
)

// Schema creates the five form tables. It is idempotent.
//
//go:embed schema.sql
var Schema string

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartSimplePostgres starts a plain PostgreSQL container with the form
// tables already created.
func StartSimplePostgres(ctx context.Context) (*PostgresContainer, error) {
	initScript, err := writeSchemaScript()
	if err != nil {
		return nil, err
	}

	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		postgres.WithInitScripts(initScript),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

func writeSchemaScript() (string, error) {
	dir, err := os.MkdirTemp("", "intake-schema-")
	if err != nil {
		return "", fmt.Errorf("create schema dir: %w", err)
	}
	path := filepath.Join(dir, "01-forms.sql")
	if err := os.WriteFile(path, []byte(Schema), 0644); err != nil {
		return "", fmt.Errorf("write schema script: %w", err)
	}
	return path, nil
}
