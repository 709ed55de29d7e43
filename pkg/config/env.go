package config

// EnvPrefix is empty because every field carries its fully qualified env name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ROPERITO_APP_ENV"
	EnvPort     = "ROPERITO_APP_PORT"
	EnvLogLevel = "ROPERITO_LOG_LEVEL"

	EnvDBDSN    = "ROPERITO_DB_DSN"
	EnvDBDriver = "ROPERITO_DB_DRIVER"
	EnvDBHost   = "ROPERITO_DB_HOST"
	EnvDBUser   = "ROPERITO_DB_USER"
	EnvDBName   = "ROPERITO_DB_NAME"

	EnvRedisURL = "ROPERITO_REDIS_URL"

	EnvJWTSecret              = "ROPERITO_JWT_SECRET"
	EnvJWTIssuer              = "ROPERITO_JWT_ISSUER"
	EnvJWTExpMins             = "ROPERITO_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ROPERITO_REFRESH_TOKEN_TTL_MINUTES"
	EnvRealtimeSendBuffer     = "ROPERITO_REALTIME_SEND_BUFFER"
	EnvRealtimeAllowedOrigins = "ROPERITO_REALTIME_ALLOWED_ORIGINS"
	EnvCronPendingOrderTTL    = "ROPERITO_ORDER_PENDING_TTL"
	EnvFeatureAutoMigrate     = "ROPERITO_AUTO_MIGRATE"
	EnvFeatureRealtimeBridge  = "ROPERITO_REALTIME_BRIDGE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
