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
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"NERDACADEMY_APP_ENV" required:"true"`
	Port         string `envconfig:"NERDACADEMY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NERDACADEMY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"NERDACADEMY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"NERDACADEMY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NERDACADEMY_DB_DSN"`
	Driver string `envconfig:"NERDACADEMY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NERDACADEMY_DB_HOST"`
	LegacyPort     int    `envconfig:"NERDACADEMY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NERDACADEMY_DB_USER"`
	LegacyPassword string `envconfig:"NERDACADEMY_DB_PASSWORD"`
	LegacyName     string `envconfig:"NERDACADEMY_DB_NAME"`
	LegacySSLMode  string `envconfig:"NERDACADEMY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NERDACADEMY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NERDACADEMY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NERDACADEMY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NERDACADEMY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"NERDACADEMY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NERDACADEMY_REDIS_ADDR"`
	Password     string        `envconfig:"NERDACADEMY_REDIS_PASSWORD"`
	DB           int           `envconfig:"NERDACADEMY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NERDACADEMY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NERDACADEMY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NERDACADEMY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NERDACADEMY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NERDACADEMY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NERDACADEMY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NERDACADEMY_JWT_ISSUER" default:"nerdacademy"`
	ExpirationMinutes      int    `envconfig:"NERDACADEMY_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"NERDACADEMY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NERDACADEMY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NERDACADEMY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NERDACADEMY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NERDACADEMY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NERDACADEMY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NERDACADEMY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"NERDACADEMY_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate            bool `envconfig:"NERDACADEMY_AUTO_MIGRATE" default:"false"`
	AllowAdminRegistration bool `envconfig:"NERDACADEMY_ALLOW_ADMIN_REGISTRATION" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NERDACADEMY_CORS_ALLOWED_ORIGINS" default:"http://localhost:5500"`
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
