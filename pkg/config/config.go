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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Razorpay     RazorpayConfig
	SMTP         SMTPConfig
	Shipping     ShippingConfig
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
	Env          string `envconfig:"VYAPAR_APP_ENV" required:"true"`
	Port         string `envconfig:"VYAPAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VYAPAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VYAPAR_LOG_WARN_STACK" default:"false"`
	BaseCurrency string `envconfig:"VYAPAR_BASE_CURRENCY" default:"INR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VYAPAR_DB_DSN"`
	Driver string `envconfig:"VYAPAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VYAPAR_DB_HOST"`
	LegacyPort     int    `envconfig:"VYAPAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VYAPAR_DB_USER"`
	LegacyPassword string `envconfig:"VYAPAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"VYAPAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"VYAPAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VYAPAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VYAPAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VYAPAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VYAPAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VYAPAR_REDIS_URL"`
	Address      string        `envconfig:"VYAPAR_REDIS_ADDR"`
	Password     string        `envconfig:"VYAPAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"VYAPAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VYAPAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VYAPAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VYAPAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VYAPAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VYAPAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret         string `envconfig:"VYAPAR_JWT_SECRET" required:"true"`
	Issuer         string `envconfig:"VYAPAR_JWT_ISSUER" default:"vyapar"`
	SessionTTLDays int    `envconfig:"VYAPAR_JWT_SESSION_TTL_DAYS" default:"30"`
}

// SessionTTL returns the signed-session lifetime configured in days.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLDays <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VYAPAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VYAPAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VYAPAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VYAPAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VYAPAR_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VYAPAR_AUTO_MIGRATE" default:"false"`
}

type RazorpayConfig struct {
	KeyID          string        `envconfig:"VYAPAR_RAZORPAY_KEY_ID"`
	KeySecret      string        `envconfig:"VYAPAR_RAZORPAY_KEY_SECRET"`
	Timeout        time.Duration `envconfig:"VYAPAR_RAZORPAY_TIMEOUT" default:"15s"`
	IdempotencyTTL time.Duration `envconfig:"VYAPAR_RAZORPAY_IDEMPOTENCY_TTL" default:"24h"`
}

type SMTPConfig struct {
	Host     string `envconfig:"VYAPAR_SMTP_HOST"`
	Port     int    `envconfig:"VYAPAR_SMTP_PORT" default:"587"`
	Username string `envconfig:"VYAPAR_SMTP_USERNAME"`
	Password string `envconfig:"VYAPAR_SMTP_PASSWORD"`
	From     string `envconfig:"VYAPAR_SMTP_FROM"`
}

// ShippingConfig carries the weight-tier pricing knobs. Amounts are rupees.
type ShippingConfig struct {
	BaseFee        int `envconfig:"VYAPAR_SHIPPING_BASE_FEE" default:"50"`
	BlockFee       int `envconfig:"VYAPAR_SHIPPING_BLOCK_FEE" default:"40"`
	BlockGrams     int `envconfig:"VYAPAR_SHIPPING_BLOCK_GRAMS" default:"500"`
	ExpeditedFee   int `envconfig:"VYAPAR_SHIPPING_EXPEDITED_FEE" default:"100"`
	ForeignFlatFee int `envconfig:"VYAPAR_SHIPPING_FOREIGN_FLAT_FEE" default:"100"`
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
