package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Commerce  CommerceConfig
	Geo       GeoConfig
	Checkout  CheckoutConfig
	GuestCart GuestCartConfig
	Redis     RedisConfig
	JWT       JWTConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CommerceConfig points at the remote commerce API that owns the
// server-side cart and creates payment sessions.
type CommerceConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"10s"`
}

// GeoConfig configures the postal-code lookup backend used for
// address resolution.
type GeoConfig struct {
	BaseURL         string        `envconfig:"STOREFRONT_GEO_BASE_URL" default:"https://api.zippopotam.us"`
	Timeout         time.Duration `envconfig:"STOREFRONT_GEO_TIMEOUT" default:"10s"`
	DebounceWindow  time.Duration `envconfig:"STOREFRONT_GEO_DEBOUNCE_WINDOW" default:"500ms"`
	MinPostalLength int           `envconfig:"STOREFRONT_GEO_MIN_POSTAL_LENGTH" default:"3"`
}

type CheckoutConfig struct {
	SessionTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_TIMEOUT" default:"10s"`
	LockTTL        time.Duration `envconfig:"STOREFRONT_CHECKOUT_LOCK_TTL" default:"30s"`
}

type GuestCartConfig struct {
	TTL        time.Duration `envconfig:"STOREFRONT_GUEST_CART_TTL" default:"168h"`
	CookieName string        `envconfig:"STOREFRONT_GUEST_CART_COOKIE" default:"sf_guest_cart"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the auth service. This
// service never mints tokens.
type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
}
