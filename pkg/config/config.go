package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "obtrack"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "OBTRACK_APP_ENV"
	EnvDBDSN  = "OBTRACK_DB_DSN"
	EnvDBHost = "OBTRACK_DB_HOST"
	EnvDBUser = "OBTRACK_DB_USER"
	EnvDBName = "OBTRACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Watch        WatchConfig
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
	Env          string `envconfig:"OBTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"OBTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OBTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OBTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OBTRACK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OBTRACK_DB_DSN"`
	Driver string `envconfig:"OBTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OBTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"OBTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OBTRACK_DB_USER"`
	LegacyPassword string `envconfig:"OBTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"OBTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"OBTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OBTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OBTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OBTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OBTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OBTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OBTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"OBTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"OBTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OBTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OBTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OBTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OBTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OBTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OBTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OBTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OBTRACK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// WatchConfig tunes the change-notification poll loops. Every consumer keeps
// its own interval; there is no single shared cadence.
type WatchConfig struct {
	CommentPollInterval time.Duration `envconfig:"OBTRACK_WATCH_COMMENT_POLL_INTERVAL" default:"5s"`
	Scopes              []string      `envconfig:"OBTRACK_WATCH_SCOPES" default:"default"`
	StatsPollInterval   time.Duration `envconfig:"OBTRACK_WATCH_STATS_POLL_INTERVAL" default:"30s"`
	NotificationCap     int           `envconfig:"OBTRACK_WATCH_NOTIFICATION_CAP" default:"100"`
	StateTTL            time.Duration `envconfig:"OBTRACK_WATCH_STATE_TTL" default:"720h"`
	LockTTL             time.Duration `envconfig:"OBTRACK_WATCH_LOCK_TTL" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OBTRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OBTRACK_AUTO_MIGRATE" default:"false"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
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
