package config

// EnvPrefix is the envconfig prefix shared by every variable below.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "REPORTDESK_APP_ENV"
	EnvPort     = "REPORTDESK_APP_PORT"
	EnvLogLevel = "REPORTDESK_LOG_LEVEL"

	EnvDBDSN      = "REPORTDESK_DB_DSN"
	EnvDBHost     = "REPORTDESK_DB_HOST"
	EnvDBUser     = "REPORTDESK_DB_USER"
	EnvDBName     = "REPORTDESK_DB_NAME"
	EnvDBPassword = "REPORTDESK_DB_PASSWORD"

	EnvRedisURL = "REPORTDESK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
