package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var (
	newPgxPool = func(ctx context.Context, connString string) (*pgxpool.Pool, error) {
		return pgxpool.New(ctx, connString)
	}
	pingPostgres = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects the package-level Pool. When DATABASE_URL is
// unset the pool stays nil and callers fall back to in-memory behavior.
func InitPostgres(ctx context.Context) {
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Println("Warning: DATABASE_URL not set, Postgres disabled")
		return
	}

	pool, err := newPgxPool(ctx, connString)
	if err != nil {
		log.Fatalf("failed to create Postgres pool: %v", err)
	}

	if err := pingPostgres(ctx, pool); err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}

	Pool = pool
	log.Println("Connected to Postgres")
}
