package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"mairie/internal/utils"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteBackend stores entries in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend applies the schema to conn and takes ownership of it.
func NewSQLiteBackend(ctx context.Context, conn *sql.DB) (*SQLiteBackend, error) {
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}

	return &SQLiteBackend{db: conn}, nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := sqlite().
		Select(utils.StructTagValues(kvEntry{})...).
		From(kvTableName).
		Where(sq.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate kv select query: %w", err)
	}

	var entry kvEntry
	err = sqlscan.Get(ctx, b.db, &entry, query, args...)
	if sqlscan.NotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, utils.WrapErrorf(err, "failed to read key %s", key)
	}

	return entry.Value, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	columns, values := utils.ColumnValues(kvEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UnixMilli(),
	})

	query, args, err := sqlite().
		Insert(kvTableName).
		Columns(columns...).
		Values(values...).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kv upsert query: %w", err)
	}

	_, err = b.db.ExecContext(ctx, query, args...)
	return utils.WrapErrorf(err, "failed to write key %s", key)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
