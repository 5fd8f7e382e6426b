package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"mairie/internal/utils"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at BIGINT NOT NULL
)`

var kvColumns = utils.StructTagValues(kvEntry{})

// PostgresBackend stores entries in the kv_entries table of the pool's
// search_path schema, which db.Connect creates.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool) (*PostgresBackend, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}

	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := psql().
		Select(kvColumns...).
		From(kvTableName).
		Where(sq.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate kv select query: %w", err)
	}

	var entry = new(kvEntry)
	err = pgxscan.Get(ctx, b.pool, entry, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, false, utils.WrapErrorf(err, "failed to read key %s", key)
	}

	if err != nil {
		return nil, false, nil
	}

	return entry.Value, true, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	columns, values := utils.ColumnValues(kvEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UnixMilli(),
	})

	query, args, err := psql().
		Insert(kvTableName).
		Columns(columns...).
		Values(values...).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kv upsert query: %w", err)
	}

	_, err = b.pool.Exec(ctx, query, args...)
	return utils.WrapErrorf(err, "failed to write key %s", key)
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
