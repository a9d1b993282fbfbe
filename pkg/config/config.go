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
	Backend       BackendConfig
	JWT           JWTConfig
	Session       SessionConfig
	Pricing       PricingConfig
	FlashSale     FlashSaleConfig
	Checkout      CheckoutConfig
	AuthRateLimit AuthRateLimitConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// BackendConfig points the storefront at the upstream microservices or at the
// in-memory fixture.
type BackendConfig struct {
	Mode        string        `envconfig:"STOREFRONT_BACKEND_MODE" default:"http"`
	BaseURL     string        `envconfig:"STOREFRONT_BACKEND_BASE_URL" default:"http://localhost:8000"`
	Timeout     time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"10s"`
	MockLatency time.Duration `envconfig:"STOREFRONT_MOCK_LATENCY" default:"500ms"`
}

func (b BackendConfig) IsMock() bool {
	return strings.EqualFold(strings.TrimSpace(b.Mode), BackendModeMock)
}

func (b BackendConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(b.Mode))
	switch mode {
	case BackendModeHTTP:
		if _, err := url.ParseRequestURI(b.BaseURL); err != nil {
			return fmt.Errorf("%s must be an absolute url: %w", EnvBackendBaseURL, err)
		}
		return nil
	case BackendModeMock:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvBackendMode, BackendModeHTTP, BackendModeMock, b.Mode)
}

// JWTConfig controls how upstream access tokens are inspected. The storefront
// never mints tokens; with an empty secret claims are read without signature
// verification because the user service remains the authority.
type JWTConfig struct {
	Secret      string `envconfig:"STOREFRONT_JWT_SECRET"`
	Issuer      string `envconfig:"STOREFRONT_JWT_ISSUER"`
	UserIDClaim string `envconfig:"STOREFRONT_JWT_USER_ID_CLAIM" default:"userId"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_sid"`
	TTL        time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"STOREFRONT_SESSION_SECURE" default:"false"`
}

type PricingConfig struct {
	FreeShippingThreshold int64 `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD" default:"30000"`
	FlatShippingFee       int64 `envconfig:"STOREFRONT_FLAT_SHIPPING_FEE" default:"3000"`
}

type FlashSaleConfig struct {
	MaxRemaining     int `envconfig:"STOREFRONT_FLASH_SALE_MAX_REMAINING" default:"10"`
	MinDiscount      int `envconfig:"STOREFRONT_FLASH_SALE_MIN_DISCOUNT" default:"30"`
	LowStockAt       int `envconfig:"STOREFRONT_LOW_STOCK_AT" default:"5"`
	AlmostGoneAt     int `envconfig:"STOREFRONT_ALMOST_GONE_AT" default:"3"`
	BaselineStock    int `envconfig:"STOREFRONT_FLASH_SALE_BASELINE_STOCK" default:"100"`
	HomeSectionLimit int `envconfig:"STOREFRONT_FLASH_SALE_HOME_LIMIT" default:"6"`
}

type CheckoutConfig struct {
	HoldWindow     time.Duration `envconfig:"STOREFRONT_CHECKOUT_HOLD_WINDOW" default:"10m"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginIDLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_ID_LIMIT" default:"5"`
}

// CronConfig drives the background worker: order status sync and receipt
// retention.
type CronConfig struct {
	Interval         time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"1m"`
	LockTTL          time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"5m"`
	ReceiptRetention time.Duration `envconfig:"STOREFRONT_RECEIPT_RETENTION" default:"2160h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	MemoryStore bool `envconfig:"STOREFRONT_MEMORY_STORE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
