package config

const EnvPrefix = "CARTSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "CARTSYNC_APP_ENV"
	EnvPort                   = "CARTSYNC_APP_PORT"
	EnvDBDSN                  = "CARTSYNC_DB_DSN"
	EnvDBHost                 = "CARTSYNC_DB_HOST"
	EnvDBUser                 = "CARTSYNC_DB_USER"
	EnvDBName                 = "CARTSYNC_DB_NAME"
	EnvDBPassword             = "CARTSYNC_DB_PASSWORD"
	EnvUseSQLite              = "CARTSYNC_USE_SQLITE"
	EnvRedisURL               = "CARTSYNC_REDIS_URL"
	EnvJWTSecret              = "CARTSYNC_JWT_SECRET"
	EnvJWTIssuer              = "CARTSYNC_JWT_ISSUER"
	EnvJWTExpMins             = "CARTSYNC_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CARTSYNC_REFRESH_TOKEN_TTL_MINUTES"
	EnvCatalogBaseURL         = "CARTSYNC_CATALOG_BASE_URL"
	EnvCatalogTimeout         = "CARTSYNC_CATALOG_TIMEOUT"
	EnvCORSOrigins            = "CARTSYNC_CORS_ORIGINS"
	EnvPubSubOrdersTopic      = "CARTSYNC_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
