package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Upstream     UpstreamConfig
	Workflow     WorkflowConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RESTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"RESTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RESTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RESTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RESTOCK_DB_DSN"`
	Driver string `envconfig:"RESTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"RESTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESTOCK_DB_USER"`
	LegacyPassword string `envconfig:"RESTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RESTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"RESTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RESTOCK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RESTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RESTOCK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// UpstreamConfig points at the document renderer the workflow calls out to.
type UpstreamConfig struct {
	BaseURL        string        `envconfig:"RESTOCK_UPSTREAM_BASE_URL"`
	RefreshToken   string        `envconfig:"RESTOCK_UPSTREAM_REFRESH_TOKEN"`
	RequestTimeout time.Duration `envconfig:"RESTOCK_UPSTREAM_REQUEST_TIMEOUT" default:"30s"`
	RefreshTimeout time.Duration `envconfig:"RESTOCK_UPSTREAM_REFRESH_TIMEOUT" default:"15s"`
}

type WorkflowConfig struct {
	SessionTTL     time.Duration `envconfig:"RESTOCK_WORKFLOW_SESSION_TTL" default:"4h"`
	CatalogPage    int           `envconfig:"RESTOCK_WORKFLOW_CATALOG_PAGE_SIZE" default:"200"`
	IdempotencyTTL time.Duration `envconfig:"RESTOCK_WORKFLOW_IDEMPOTENCY_TTL" default:"24h"`
}

// CronConfig drives the background maintenance loop.
type CronConfig struct {
	Enabled        bool          `envconfig:"RESTOCK_CRON_ENABLED" default:"true"`
	Interval       time.Duration `envconfig:"RESTOCK_CRON_INTERVAL" default:"1h"`
	LockTTL        time.Duration `envconfig:"RESTOCK_CRON_LOCK_TTL" default:"55m"`
	DraftRetention time.Duration `envconfig:"RESTOCK_CRON_DRAFT_RETENTION" default:"720h"`
	PurgeAfter     time.Duration `envconfig:"RESTOCK_CRON_PURGE_AFTER" default:"168h"`
}

// RateLimitConfig throttles mutating API calls per user. A zero limit
// disables the middleware.
type RateLimitConfig struct {
	WriteLimit  int64         `envconfig:"RESTOCK_RATE_LIMIT_WRITE_LIMIT" default:"0"`
	WriteWindow time.Duration `envconfig:"RESTOCK_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RESTOCK_AUTO_MIGRATE" default:"false"`
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
