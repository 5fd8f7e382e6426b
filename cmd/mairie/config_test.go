package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MAIRIE_HOME", t.TempDir())

	c, err := loadConfig("MAIRIE")
	require.NoError(t, err)
	assert.Equal(t, driverSQLite, c.StoreDriver)
	assert.NotEmpty(t, c.SQLitePath)
	assert.Equal(t, "mairie_manager_dossiers_v1", c.StorageKey)
	assert.Equal(t, uint(8080), c.ServerPort)
	assert.Equal(t, 28800, c.SessionMaxAgeSec)
	assert.Equal(t, int64(512), c.ImportMaxMB)
	assert.Equal(t, "mairie", c.PostgresSchema)
}

func TestLoadConfigPrefix(t *testing.T) {
	t.Setenv("TEST_STORE_DRIVER", "Memory")
	t.Setenv("TEST_STRICT_PERSISTENCE", "true")
	t.Setenv("TEST_STORAGE_KEY", "other_key")

	c, err := loadConfig("TEST")
	require.NoError(t, err)
	assert.Equal(t, driverMemory, c.StoreDriver)
	assert.True(t, c.StrictPersistence)
	assert.Equal(t, "other_key", c.StorageKey)
}

func TestLoadConfigRejectsBadDriver(t *testing.T) {
	t.Setenv("TEST_STORE_DRIVER", "redis")

	_, err := loadConfig("TEST")
	assert.Error(t, err)
}

func TestLoadConfigPostgresNeedsURL(t *testing.T) {
	t.Setenv("TEST_STORE_DRIVER", "postgres")

	_, err := loadConfig("TEST")
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadLocation(t *testing.T) {
	loc, err := loadLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = loadLocation("Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	_, err = loadLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENVTEST_STORE_DRIVER=memory\nENVTEST_LOGIN_ID=Accueil\n"), 0o600))

	t.Setenv("ENVTEST_LOGIN_ID", "Secrétariat")
	t.Cleanup(func() { os.Unsetenv("ENVTEST_STORE_DRIVER") })

	require.NoError(t, loadEnvFile(path))
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	c, err := loadConfig("ENVTEST")
	require.NoError(t, err)
	assert.Equal(t, driverMemory, c.StoreDriver)
	// already set variables win
	assert.Equal(t, "Secrétariat", c.LoginID)
}
