//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testDatabaseURL points at DATABASE_URL when set, otherwise at a throwaway
// postgres container started for this package.
var testDatabaseURL string

func TestMain(m *testing.M) {
	ctx := context.Background()

	testDatabaseURL = os.Getenv("DATABASE_URL")
	var container *postgres.PostgresContainer
	if testDatabaseURL == "" {
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("bookshelf"),
			postgres.WithUsername("bookshelf"),
			postgres.WithPassword("bookshelf"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			log.Fatalf("failed to start postgres container: %s", err)
		}
		testDatabaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			log.Fatalf("failed to obtain connection string: %s", err)
		}
	}

	if err := Migrate(ctx, testDatabaseURL); err != nil {
		log.Fatalf("failed to migrate: %s", err)
	}

	code := m.Run()

	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	os.Exit(code)
}
