package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "NERDACADEMY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "NERDACADEMY_APP_ENV"
	EnvPort         = "NERDACADEMY_APP_PORT"
	EnvLogLevel     = "NERDACADEMY_LOG_LEVEL"
	EnvLogFormat    = "NERDACADEMY_LOG_FORMAT"
	EnvLogWarnStack = "NERDACADEMY_LOG_WARN_STACK"

	EnvDBDSN    = "NERDACADEMY_DB_DSN"
	EnvDBDriver = "NERDACADEMY_DB_DRIVER"
	EnvDBHost   = "NERDACADEMY_DB_HOST"
	EnvDBPort   = "NERDACADEMY_DB_PORT"
	EnvDBUser   = "NERDACADEMY_DB_USER"
	EnvDBPass   = "NERDACADEMY_DB_PASSWORD"
	EnvDBName   = "NERDACADEMY_DB_NAME"

	EnvRedisURL = "NERDACADEMY_REDIS_URL"

	EnvJWTSecret              = "NERDACADEMY_JWT_SECRET"
	EnvJWTIssuer              = "NERDACADEMY_JWT_ISSUER"
	EnvJWTExpMins             = "NERDACADEMY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "NERDACADEMY_REFRESH_TOKEN_TTL_MINUTES"

	EnvAutoMigrate            = "NERDACADEMY_AUTO_MIGRATE"
	EnvAllowAdminRegistration = "NERDACADEMY_ALLOW_ADMIN_REGISTRATION"

	EnvCORSAllowedOrigins = "NERDACADEMY_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
