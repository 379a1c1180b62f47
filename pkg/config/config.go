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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Sync         SyncConfig
	Ventra       VentraConfig
	Crypto       CryptoConfig
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
	Env          string `envconfig:"SALESCOPE_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESCOPE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESCOPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALESCOPE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SALESCOPE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"SALESCOPE_DB_DSN"`

	LegacyHost     string `envconfig:"SALESCOPE_DB_HOST"`
	LegacyPort     int    `envconfig:"SALESCOPE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALESCOPE_DB_USER"`
	LegacyPassword string `envconfig:"SALESCOPE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALESCOPE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALESCOPE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALESCOPE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESCOPE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESCOPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESCOPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESCOPE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SALESCOPE_REDIS_ADDR"`
	Password     string        `envconfig:"SALESCOPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESCOPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESCOPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESCOPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESCOPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESCOPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESCOPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SyncConfig tunes the gateway synchronization engine.
type SyncConfig struct {
	Interval      time.Duration `envconfig:"SALESCOPE_SYNC_INTERVAL" default:"5m"`
	PageDelay     time.Duration `envconfig:"SALESCOPE_SYNC_PAGE_DELAY" default:"500ms"`
	WindowDelay   time.Duration `envconfig:"SALESCOPE_SYNC_WINDOW_DELAY" default:"1s"`
	BackfillDays  int           `envconfig:"SALESCOPE_SYNC_BACKFILL_DAYS" default:"365"`
	TriggerLimit  int64         `envconfig:"SALESCOPE_SYNC_TRIGGER_LIMIT" default:"10"`
	TriggerWindow time.Duration `envconfig:"SALESCOPE_SYNC_TRIGGER_WINDOW" default:"1h"`
}

// Backfill returns how far back a gateway's first sync reaches.
func (s SyncConfig) Backfill() time.Duration {
	days := s.BackfillDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

type VentraConfig struct {
	BaseURL     string        `envconfig:"SALESCOPE_VENTRA_BASE_URL" default:"https://api.ventrahub.com/v2"`
	HTTPTimeout time.Duration `envconfig:"SALESCOPE_VENTRA_HTTP_TIMEOUT" default:"30s"`
}

// CryptoConfig carries the key that opens stored gateway credentials.
type CryptoConfig struct {
	CredentialKey string `envconfig:"SALESCOPE_CREDENTIAL_KEY"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SALESCOPE_AUTO_MIGRATE" default:"false"`
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
