package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	HTTP          HTTPConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Catalog       CatalogConfig
	Idempotency   IdempotencyConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARTSYNC_SERVICE_KIND" default:"api"`
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `envconfig:"CARTSYNC_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"CARTSYNC_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"CARTSYNC_HTTP_IDLE_TIMEOUT" default:"60s"`
	CORSOrigins  []string      `envconfig:"CARTSYNC_CORS_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARTSYNC_DB_DSN"`
	Driver string `envconfig:"CARTSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CARTSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"CARTSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARTSYNC_DB_USER"`
	LegacyPassword string `envconfig:"CARTSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARTSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARTSYNC_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"CARTSYNC_SQLITE_PATH" default:"cartsync.db"`

	MaxOpenConns    int           `envconfig:"CARTSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTSYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARTSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"CARTSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CARTSYNC_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CARTSYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CARTSYNC_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CARTSYNC_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CARTSYNC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CARTSYNC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CARTSYNC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CARTSYNC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CARTSYNC_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CARTSYNC_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARTSYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARTSYNC_AUTO_MIGRATE" default:"false"`
}

// CatalogConfig points at the read-only product catalog.
type CatalogConfig struct {
	BaseURL         string        `envconfig:"CARTSYNC_CATALOG_BASE_URL" default:"https://fakestoreapi.com"`
	Timeout         time.Duration `envconfig:"CARTSYNC_CATALOG_TIMEOUT" default:"10s"`
	CacheTTL        time.Duration `envconfig:"CARTSYNC_CATALOG_CACHE_TTL" default:"15m"`
	EnrichmentLimit int           `envconfig:"CARTSYNC_CATALOG_ENRICHMENT_LIMIT" default:"4"`
	DisableCache    bool          `envconfig:"CARTSYNC_CATALOG_DISABLE_CACHE" default:"false"`
}

type IdempotencyConfig struct {
	OrderTTL time.Duration `envconfig:"CARTSYNC_IDEMPOTENCY_ORDER_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CARTSYNC_GCP_PROJECT_ID"`
	CredentialsFile string `envconfig:"CARTSYNC_GCP_CREDENTIALS_FILE"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"CARTSYNC_PUBSUB_ORDERS_TOPIC" default:"cartsync-order-events"`
	EmulatorHost string `envconfig:"CARTSYNC_PUBSUB_EMULATOR_HOST"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CARTSYNC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CARTSYNC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CARTSYNC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"CARTSYNC_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"CARTSYNC_CRON_LOCK_TTL" default:"55m"`
	OutboxRetentionDays int           `envconfig:"CARTSYNC_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"CARTSYNC_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
