package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string `envconfig:"LOG_FORMAT" default:"text"`
	// LogFile also writes logs to a rotated file when set.
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`

	// Storage
	StoreDriver       string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, postgres or memory
	SQLitePath        string `envconfig:"SQLITE_PATH"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	PostgresSchema    string `envconfig:"POSTGRES_SCHEMA" default:"mairie"`
	StorageKey        string `envconfig:"STORAGE_KEY" default:"mairie_manager_dossiers_v1"`
	StrictPersistence bool   `envconfig:"STRICT_PERSISTENCE" default:"false"`
	// ImportMaxMB bounds an uploaded backup. Exports carry every attachment
	// inline, so this is far above the intake form limit.
	ImportMaxMB int64 `envconfig:"IMPORT_MAX_MB" default:"512"`

	// Week boundaries are computed on this location's calendar.
	TimeZone string `envconfig:"TIMEZONE" default:"Local"`

	// Front office login
	LoginID       string `envconfig:"LOGIN_ID" default:"Cabinet du maire"`
	LoginPassword string `envconfig:"LOGIN_PASSWORD" default:"jenesaispas"`

	// Auth Configuration
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"mairie_session"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"28800"` // 8 hours

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Snapshot archive (optional)
	SnapshotBucket string `envconfig:"SNAPSHOT_BUCKET"`
	SnapshotPrefix string `envconfig:"SNAPSHOT_PREFIX" default:"snapshots"`
}
