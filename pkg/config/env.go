package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it only
// matters for fields without one.
const EnvPrefix = "INVENTORY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "INVENTORY_APP_ENV"
	EnvPort     = "INVENTORY_APP_PORT"
	EnvLogLevel = "INVENTORY_LOG_LEVEL"

	EnvDBDSN    = "INVENTORY_DB_DSN"
	EnvDBDriver = "INVENTORY_DB_DRIVER"
	EnvDBHost   = "INVENTORY_DB_HOST"
	EnvDBPort   = "INVENTORY_DB_PORT"
	EnvDBUser   = "INVENTORY_DB_USER"
	EnvDBPass   = "INVENTORY_DB_PASSWORD"
	EnvDBName   = "INVENTORY_DB_NAME"

	EnvRedisURL = "INVENTORY_REDIS_URL"

	EnvAutoMigrate    = "INVENTORY_AUTO_MIGRATE"
	EnvIdempotencyTTL = "INVENTORY_IDEMPOTENCY_TTL"
	EnvMetricsEnabled = "INVENTORY_METRICS_ENABLED"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
