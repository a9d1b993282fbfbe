package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BackendModeHTTP = "http"
	BackendModeMock = "mock"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvBackendMode    = "STOREFRONT_BACKEND_MODE"
	EnvBackendBaseURL = "STOREFRONT_BACKEND_BASE_URL"
	EnvUseSQLite      = "STOREFRONT_USE_SQLITE"
	EnvMemoryStore    = "STOREFRONT_MEMORY_STORE"
	EnvFreeShipping   = "STOREFRONT_FREE_SHIPPING_THRESHOLD"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
