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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Realtime      RealtimeConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("%s must be positive", EnvRealtimeSendBuffer)
	}
	if c.Cron.PendingOrderTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCronPendingOrderTTL)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"ROPERITO_APP_ENV" required:"true"`
	Port         string `envconfig:"ROPERITO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROPERITO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROPERITO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"ROPERITO_DB_DSN"`
	Driver string `envconfig:"ROPERITO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROPERITO_DB_HOST"`
	LegacyPort     int    `envconfig:"ROPERITO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROPERITO_DB_USER"`
	LegacyPassword string `envconfig:"ROPERITO_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROPERITO_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROPERITO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROPERITO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROPERITO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROPERITO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROPERITO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the database driver points at sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ROPERITO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROPERITO_REDIS_ADDR"`
	Password     string        `envconfig:"ROPERITO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROPERITO_REDIS_DB" default:"0"`
	Namespace    string        `envconfig:"ROPERITO_REDIS_NAMESPACE" default:"rp"`
	PoolSize     int           `envconfig:"ROPERITO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROPERITO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROPERITO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROPERITO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROPERITO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ROPERITO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ROPERITO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ROPERITO_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ROPERITO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ROPERITO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ROPERITO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ROPERITO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ROPERITO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ROPERITO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ROPERITO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ROPERITO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ROPERITO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ROPERITO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ROPERITO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ROPERITO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RealtimeConfig tunes the websocket relay.
type RealtimeConfig struct {
	SendBuffer     int           `envconfig:"ROPERITO_REALTIME_SEND_BUFFER" default:"16"`
	PingPeriod     time.Duration `envconfig:"ROPERITO_REALTIME_PING_PERIOD" default:"54s"`
	PongWait       time.Duration `envconfig:"ROPERITO_REALTIME_PONG_WAIT" default:"60s"`
	WriteWait      time.Duration `envconfig:"ROPERITO_REALTIME_WRITE_WAIT" default:"10s"`
	AllowedOrigins []string      `envconfig:"ROPERITO_REALTIME_ALLOWED_ORIGINS"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"ROPERITO_CRON_INTERVAL" default:"5m"`
	LockTTL         time.Duration `envconfig:"ROPERITO_CRON_LOCK_TTL" default:"4m"`
	PendingOrderTTL time.Duration `envconfig:"ROPERITO_ORDER_PENDING_TTL" default:"72h"`
	BatchSize       int           `envconfig:"ROPERITO_CRON_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"ROPERITO_AUTO_MIGRATE" default:"false"`
	RealtimeBridge bool `envconfig:"ROPERITO_REALTIME_BRIDGE" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:roperito.db?cache=shared"
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
