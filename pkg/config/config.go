package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "AIRVOUCHER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AIRVOUCHER_DB_DSN"
	EnvDBHost = "AIRVOUCHER_DB_HOST"
	EnvDBUser = "AIRVOUCHER_DB_USER"
	EnvDBName = "AIRVOUCHER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App            AppConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Password       PasswordConfig
	AuthRateLimit  AuthRateLimitConfig
	FeatureFlags   FeatureFlagsConfig
	Sale           SaleConfig
	InventoryCache InventoryCacheConfig
	StockAlert     StockAlertConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	Outbox         OutboxConfig
	OTT            OTTConfig
	BillPay        BillPayConfig
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
	Env          string `envconfig:"AIRVOUCHER_APP_ENV" required:"true"`
	Port         string `envconfig:"AIRVOUCHER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AIRVOUCHER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AIRVOUCHER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AIRVOUCHER_DB_DSN"`
	Driver string `envconfig:"AIRVOUCHER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AIRVOUCHER_DB_HOST"`
	LegacyPort     int    `envconfig:"AIRVOUCHER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AIRVOUCHER_DB_USER"`
	LegacyPassword string `envconfig:"AIRVOUCHER_DB_PASSWORD"`
	LegacyName     string `envconfig:"AIRVOUCHER_DB_NAME"`
	LegacySSLMode  string `envconfig:"AIRVOUCHER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AIRVOUCHER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AIRVOUCHER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AIRVOUCHER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AIRVOUCHER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AIRVOUCHER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AIRVOUCHER_REDIS_ADDR"`
	Password     string        `envconfig:"AIRVOUCHER_REDIS_PASSWORD"`
	DB           int           `envconfig:"AIRVOUCHER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AIRVOUCHER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AIRVOUCHER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AIRVOUCHER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AIRVOUCHER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AIRVOUCHER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AIRVOUCHER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AIRVOUCHER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AIRVOUCHER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AIRVOUCHER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AIRVOUCHER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AIRVOUCHER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AIRVOUCHER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AIRVOUCHER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AIRVOUCHER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AIRVOUCHER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"AIRVOUCHER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"AIRVOUCHER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AIRVOUCHER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AIRVOUCHER_AUTO_MIGRATE" default:"false"`
}

// SaleConfig tunes the sale execution path.
type SaleConfig struct {
	// ExecuteTimeout bounds the atomic sale transaction. On expiry the outcome
	// is reported as indeterminate, never assumed failed.
	ExecuteTimeout time.Duration `envconfig:"AIRVOUCHER_SALE_EXECUTE_TIMEOUT" default:"15s"`
	// SessionTTL bounds how long an unconfirmed sale session survives in redis.
	SessionTTL time.Duration `envconfig:"AIRVOUCHER_SALE_SESSION_TTL" default:"10m"`
}

// InventoryCacheConfig tunes the read-through stock cache.
type InventoryCacheConfig struct {
	TTL     time.Duration `envconfig:"AIRVOUCHER_INVENTORY_CACHE_TTL" default:"30s"`
	Enabled bool          `envconfig:"AIRVOUCHER_INVENTORY_CACHE_ENABLED" default:"true"`
}

// StockAlertConfig tunes the low-stock monitor fed by sale events.
type StockAlertConfig struct {
	Threshold int64 `envconfig:"AIRVOUCHER_STOCK_ALERT_THRESHOLD" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AIRVOUCHER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AIRVOUCHER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AIRVOUCHER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SalesTopic        string `envconfig:"AIRVOUCHER_PUBSUB_SALES_TOPIC" default:"av-sale-events"`
	SalesSubscription string `envconfig:"AIRVOUCHER_PUBSUB_SALES_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AIRVOUCHER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AIRVOUCHER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AIRVOUCHER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// OTTConfig configures the OTT voucher vendor integration.
type OTTConfig struct {
	BaseURL   string        `envconfig:"AIRVOUCHER_OTT_BASE_URL"`
	APIKey    string        `envconfig:"AIRVOUCHER_OTT_API_KEY"`
	SharedKey string        `envconfig:"AIRVOUCHER_OTT_SHARED_KEY"`
	Timeout   time.Duration `envconfig:"AIRVOUCHER_OTT_TIMEOUT" default:"20s"`
}

// BillPayConfig configures the bill-payment vendor integration.
type BillPayConfig struct {
	BaseURL  string        `envconfig:"AIRVOUCHER_BILLPAY_BASE_URL"`
	Username string        `envconfig:"AIRVOUCHER_BILLPAY_USERNAME"`
	Password string        `envconfig:"AIRVOUCHER_BILLPAY_PASSWORD"`
	Timeout  time.Duration `envconfig:"AIRVOUCHER_BILLPAY_TIMEOUT" default:"20s"`
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
