package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName           = "Neuro21"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultSessionTTL        = 30 * 24 * time.Hour
	defaultSessionIdle       = 30 * time.Minute
	defaultLoginDelay        = 1500 * time.Millisecond
	defaultRegisterDelay     = 2 * time.Second
	defaultWalletRPCTimeout  = 10 * time.Second
	defaultLoginRatePerMin   = 5
	defaultDevSessionSecret  = "neuro21-dev-session-secret"
	idemTTLSecondsEnvVar     = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar         = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
	sessionTTLSecondsEnvVar  = "SESSION_TTL_SECONDS"
	sessionTTLDurationEnvVar = "SESSION_TTL"
)

// Session storage backends. An empty SessionStore picks Redis, then
// Postgres, then memory, depending on what is configured.
const (
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

// Authentication modes.
const (
	AuthModeDemo     = "demo"
	AuthModeVerified = "verified"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	SessionSecret string
	SessionTTL    time.Duration
	SessionIdle   time.Duration
	SessionStore  string

	AuthMode      string
	LoginDelay    time.Duration
	RegisterDelay time.Duration

	Network          string
	WalletRPCURL     string
	WalletRPCTimeout time.Duration
	SyntheticWallet  bool

	LoginRatePerMin int

	// MetricsUser and MetricsPass protect /metrics with basic auth when both are set.
	MetricsUser string
	MetricsPass string
}

// Load reads configuration values from the environment and populates a
// Config instance. A .env file in the working directory is loaded first
// when present; real environment variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionTTL:       defaultSessionTTL,
		SessionIdle:      defaultSessionIdle,
		SessionStore:     strings.ToLower(os.Getenv("SESSION_STORE")),
		LoginDelay:       defaultLoginDelay,
		RegisterDelay:    defaultRegisterDelay,
		Network:          strings.ToLower(getEnv("NETWORK", "mainnet")),
		WalletRPCURL:     os.Getenv("WALLET_RPC_URL"),
		WalletRPCTimeout: defaultWalletRPCTimeout,
		LoginRatePerMin:  defaultLoginRatePerMin,
		MetricsUser:      os.Getenv("METRICS_USER"),
		MetricsPass:      os.Getenv("METRICS_PASS"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationFromEnv(sessionTTLSecondsEnvVar, sessionTTLDurationEnvVar, cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdle, err = durationFromEnv("", "SESSION_IDLE", cfg.SessionIdle); err != nil {
		return Config{}, err
	}
	if cfg.LoginDelay, err = durationFromEnv("", "DEMO_LOGIN_DELAY", cfg.LoginDelay); err != nil {
		return Config{}, err
	}
	if cfg.RegisterDelay, err = durationFromEnv("", "DEMO_REGISTER_DELAY", cfg.RegisterDelay); err != nil {
		return Config{}, err
	}
	if cfg.WalletRPCTimeout, err = durationFromEnv("", "WALLET_RPC_TIMEOUT", cfg.WalletRPCTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("LOGIN_RATE_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_PER_MIN: %w", err)
		}
		cfg.LoginRatePerMin = n
	}

	cfg.SyntheticWallet = cfg.IsDev()
	if v := os.Getenv("SYNTHETIC_WALLET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SYNTHETIC_WALLET: %w", err)
		}
		cfg.SyntheticWallet = b
	}

	switch cfg.SessionStore {
	case "", SessionStoreRedis, SessionStorePostgres, SessionStoreMemory:
	default:
		return Config{}, fmt.Errorf("invalid SESSION_STORE %q", cfg.SessionStore)
	}

	cfg.AuthMode = AuthModeVerified
	if cfg.IsDev() {
		cfg.AuthMode = AuthModeDemo
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		cfg.AuthMode = strings.ToLower(v)
	}
	if cfg.AuthMode != AuthModeDemo && cfg.AuthMode != AuthModeVerified {
		return Config{}, fmt.Errorf("invalid AUTH_MODE %q", cfg.AuthMode)
	}

	if cfg.IsDev() {
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = defaultDevSessionSecret
		}
		return cfg, nil
	}

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET must be set")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment, where
// Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationFromEnv reads an integer number of seconds from secondsKey or, if
// unset, a Go duration string from durationKey.
func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
