// Package store persists the dossier collection as a single document in a
// key-value backend and owns the parse-and-validate boundary for it.
package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// Backend is a durable key-value map. Get reports ok=false for an absent
// key; errors mean the backend itself could not be reached.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// kvEntry is the row layout shared by the SQL backends.
type kvEntry struct {
	Key       string `db:"key"`
	Value     []byte `db:"value"`
	UpdatedAt int64  `db:"updated_at"` // unix millis
}

const kvTableName = "kv_entries"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func sqlite() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

const upsertSuffix = "ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"
