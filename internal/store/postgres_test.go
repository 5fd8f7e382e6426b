package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mairie/internal/db"
)

// postgresURL starts a throwaway PostgreSQL and returns its connection string.
func postgresURL(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("mairie_test"),
		postgres.WithUsername("mairie"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func newPostgresBackend(t *testing.T, url, schema string) *PostgresBackend {
	t.Helper()
	ctx := context.Background()

	pool, err := db.Connect(ctx, url, schema)
	require.NoError(t, err)

	backend, err := NewPostgresBackend(ctx, pool)
	if err != nil {
		pool.Close()
	}
	require.NoError(t, err)
	return backend
}

func TestPostgresBackend(t *testing.T) {
	url := postgresURL(t)
	ctx := context.Background()

	t.Run("get and put", func(t *testing.T) {
		backend := newPostgresBackend(t, url, "")
		defer backend.Close()

		_, ok, err := backend.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, backend.Put(ctx, "k", []byte("first")))
		require.NoError(t, backend.Put(ctx, "k", []byte("second")))

		v, ok, err := backend.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", string(v))
	})

	t.Run("collection survives reconnect", func(t *testing.T) {
		first := newPostgresBackend(t, url, "")
		require.NoError(t, NewDossierStore(first, "", quietLogger()).Save(ctx, sampleDossiers()))
		require.NoError(t, first.Close())

		second := newPostgresBackend(t, url, "")
		defer second.Close()
		assert.Equal(t, sampleDossiers(), NewDossierStore(second, "", quietLogger()).Load(ctx))
	})

	t.Run("schemas are isolated", func(t *testing.T) {
		office := newPostgresBackend(t, url, "office_a")
		defer office.Close()
		other := newPostgresBackend(t, url, "office-b")
		defer other.Close()

		require.NoError(t, office.Put(ctx, DefaultKey, []byte("[]")))

		_, ok, err := other.Get(ctx, DefaultKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
