package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pantrybot"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "PANTRYBOT_APP_ENV"
	EnvDBDSN     = "PANTRYBOT_DB_DSN"
	EnvDBHost    = "PANTRYBOT_DB_HOST"
	EnvDBUser    = "PANTRYBOT_DB_USER"
	EnvDBName    = "PANTRYBOT_DB_NAME"
	EnvRedisURL  = "PANTRYBOT_REDIS_URL"
	EnvRedisAddr = "PANTRYBOT_REDIS_ADDR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

func (r *RedisConfig) ensureTarget() error {
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Bot          BotConfig
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
	if err := cfg.Redis.ensureTarget(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PANTRYBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"PANTRYBOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PANTRYBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PANTRYBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PANTRYBOT_DB_DSN"`
	Driver string `envconfig:"PANTRYBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PANTRYBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"PANTRYBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PANTRYBOT_DB_USER"`
	LegacyPassword string `envconfig:"PANTRYBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PANTRYBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PANTRYBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PANTRYBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PANTRYBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PANTRYBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PANTRYBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Startup is retried with fixed backoff; the process aborts once attempts exhaust.
	ConnectAttempts uint64        `envconfig:"PANTRYBOT_DB_CONNECT_ATTEMPTS" default:"30"`
	ConnectBackoff  time.Duration `envconfig:"PANTRYBOT_DB_CONNECT_BACKOFF" default:"2s"`
}

// RedisConfig targets Redis either by URL or by the address/password/db
// triple; URL wins when both are set.
type RedisConfig struct {
	URL          string        `envconfig:"PANTRYBOT_REDIS_URL"`
	Address      string        `envconfig:"PANTRYBOT_REDIS_ADDR"`
	Password     string        `envconfig:"PANTRYBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PANTRYBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PANTRYBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PANTRYBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PANTRYBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PANTRYBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PANTRYBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	BaseURL   string        `envconfig:"PANTRYBOT_CATALOG_BASE_URL" default:"https://world.openfoodfacts.org"`
	Timeout   time.Duration `envconfig:"PANTRYBOT_CATALOG_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"PANTRYBOT_CATALOG_USER_AGENT" default:"PantryBot/1.0 (github.com/mconcas/pantrybot-backend)"`
}

type BotConfig struct {
	DefaultCategories []string      `envconfig:"PANTRYBOT_DEFAULT_CATEGORIES" default:"Pantry,Fridge,Freezer"`
	SessionTTL        time.Duration `envconfig:"PANTRYBOT_SESSION_TTL" default:"30m"`
	ItemsPageSize     int           `envconfig:"PANTRYBOT_ITEMS_PAGE_SIZE" default:"200"`
	BarcodePageSize   int           `envconfig:"PANTRYBOT_BARCODE_PAGE_SIZE" default:"50"`
	ReviewPageSize    int           `envconfig:"PANTRYBOT_REVIEW_PAGE_SIZE" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PANTRYBOT_AUTO_MIGRATE" default:"false"`
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
