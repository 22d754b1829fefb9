package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Pricing      PricingConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUQPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"SUQPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUQPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUQPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SUQPOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SUQPOS_DB_DSN"`
	Driver string `envconfig:"SUQPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SUQPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"SUQPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUQPOS_DB_USER"`
	LegacyPassword string `envconfig:"SUQPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUQPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUQPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUQPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUQPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUQPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUQPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
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

type RedisConfig struct {
	URL          string        `envconfig:"SUQPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SUQPOS_REDIS_ADDR"`
	Password     string        `envconfig:"SUQPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUQPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUQPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUQPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUQPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUQPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUQPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUQPOS_AUTO_MIGRATE" default:"false"`
}

type LedgerConfig struct {
	// AppendMaxRetries bounds re-resolution attempts after a CAS conflict.
	AppendMaxRetries int           `envconfig:"SUQPOS_LEDGER_APPEND_MAX_RETRIES" default:"3"`
	IdempotencyTTL   time.Duration `envconfig:"SUQPOS_LEDGER_IDEMPOTENCY_TTL" default:"168h"`
	Currency         string        `envconfig:"SUQPOS_LEDGER_CURRENCY" default:"OMR"`
}

type PricingConfig struct {
	TaxEnabled        bool   `envconfig:"SUQPOS_PRICING_TAX_ENABLED" default:"true"`
	TaxRate           string `envconfig:"SUQPOS_PRICING_TAX_RATE" default:"0.05"`
	CommissionMinimum string `envconfig:"SUQPOS_PRICING_COMMISSION_MINIMUM" default:"0"`
}

func (p PricingConfig) validate() error {
	rate, err := p.TaxRateDecimal()
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %s out of range [0,1]", p.TaxRate)
	}
	minimum, err := p.CommissionMinimumDecimal()
	if err != nil {
		return err
	}
	if minimum.IsNegative() {
		return fmt.Errorf("commission minimum %s must not be negative", p.CommissionMinimum)
	}
	return nil
}

func (p PricingConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", p.TaxRate, err)
	}
	return rate, nil
}

func (p PricingConfig) CommissionMinimumDecimal() (decimal.Decimal, error) {
	minimum, err := decimal.NewFromString(p.CommissionMinimum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing commission minimum %q: %w", p.CommissionMinimum, err)
	}
	return minimum, nil
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"SUQPOS_RECONCILE_INTERVAL" default:"5m"`
	Lookback time.Duration `envconfig:"SUQPOS_RECONCILE_LOOKBACK" default:"24h"`
}
