package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"mairie/internal/db"
	"mairie/internal/dossier"
	"mairie/internal/storage"
	"mairie/internal/store"
	"mairie/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

// loadEnvFile exports the variables of path that are not already set. A
// missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func loadConfig(prefix string) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case driverSQLite:
		if c.SQLitePath == "" {
			path, err := db.DefaultSQLitePath()
			if err != nil {
				return nil, fmt.Errorf("resolve sqlite path: %w", err)
			}
			c.SQLitePath = path
		}
	case driverPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("set %s_DATABASE_URL when STORE_DRIVER is postgres", prefix)
		}
	case driverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want sqlite, postgres or memory)", c.StoreDriver)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if c.SessionMaxAgeSec <= 0 {
		c.SessionMaxAgeSec = 8 * 60 * 60
	}

	return c, nil
}

// ensureCookieKeys fills in random cookie keys when none are configured.
// Sessions then do not survive a restart.
func ensureCookieKeys(c *types.Config, logger logrus.FieldLogger) {
	if c.CookieHashKey == "" {
		c.CookieHashKey = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("COOKIE_HASH_KEY not set, using a random key; sessions reset on restart")
	}

	if c.CookieBlockKey == "" {
		c.CookieBlockKey = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	}
}

func newLogger(c *types.Config, json bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if c.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSizeMB,
			MaxBackups: c.LogMaxBackups,
			Compress:   true,
		}))
	}

	if json || c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("invalid LOG_LEVEL, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func openBackend(ctx context.Context, c *types.Config) (store.Backend, error) {
	switch c.StoreDriver {
	case driverMemory:
		return store.NewMemoryBackend(), nil
	case driverPostgres:
		pool, err := db.Connect(ctx, c.DatabaseURL, c.PostgresSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		backend, err := store.NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil
	default:
		conn, err := db.OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		backend, err := store.NewSQLiteBackend(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return backend, nil
	}
}

// app bundles what every command needs: the config, a logger and an opened
// manager over the configured backend.
type app struct {
	config  *types.Config
	logger  *logrus.Logger
	manager *dossier.Manager
	backend store.Backend
	// swept is how many dossiers Open archived.
	swept int
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close store")
	}
}

// openApp loads configuration and opens the manager, which runs the
// archival sweep.
func openApp(cCtx *cli.Context, jsonLogs bool) (*app, error) {
	if err := loadEnvFile(cCtx.String("env-file")); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cCtx.String("env-prefix"))
	if err != nil {
		return nil, err
	}

	if cCtx.Bool("ephemeral") {
		cfg.StoreDriver = driverMemory
	}

	logger := newLogger(cfg, jsonLogs)

	loc, err := loadLocation(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cCtx.Context, cfg)
	if err != nil {
		return nil, err
	}

	dossierStore := store.NewDossierStore(backend, cfg.StorageKey, logger)
	manager := dossier.New(
		dossierStore,
		logger,
		dossier.WithClock(func() time.Time { return time.Now().In(loc) }),
		dossier.WithStrictPersistence(cfg.StrictPersistence),
	)

	archived, err := manager.Open(cCtx.Context)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to open dossiers: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver":   cfg.StoreDriver,
		"dossiers": len(manager.Dossiers()),
		"archived": archived,
	}).Debug("dossiers opened")

	return &app{config: cfg, logger: logger, manager: manager, backend: backend, swept: archived}, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

// snapshotArchive returns nil when no bucket is configured.
func (a *app) snapshotArchive(ctx context.Context) (*storage.SnapshotArchive, error) {
	if a.config.SnapshotBucket == "" {
		return nil, nil
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return storage.NewSnapshotArchive(
		s3.NewFromConfig(awsConfig),
		a.config.SnapshotBucket,
		a.config.SnapshotPrefix,
		a.logger,
	), nil
}
