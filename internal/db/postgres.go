package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema holds the dossier tables when POSTGRES_SCHEMA is unset.
const DefaultSchema = "mairie"

// Connect opens a small pool against databaseURL and makes sure schema
// exists. Unless the URL already carries a search_path, sessions resolve
// unqualified tables in schema.
func Connect(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if schema == "" {
		schema = DefaultSchema
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	params := poolConfig.ConnConfig.RuntimeParams
	if _, ok := params["search_path"]; !ok {
		params["search_path"] = pgx.Identifier{schema}.Sanitize()
	}
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = "mairie"
	}

	// One office writer never needs more than a couple of connections.
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.MaxConnLifetime = 45 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema %s: %w", schema, err)
	}

	return pool, nil
}
