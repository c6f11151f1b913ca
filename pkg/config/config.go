package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// upstreamTimeoutMargin keeps the client-side budget above the upstream
// gateway's own failure timeout so a 503 from the gateway can arrive before
// the client gives up. See Upstream.ClientTimeout.
const upstreamTimeoutMargin = 2 * time.Second

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Upstream UpstreamConfig
	Catalog  CatalogConfig
	Sweeper  SweeperConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig governs the resilient client that fronts the core store.
//
// ClientTimeout must stay strictly above GatewayTimeout: the upstream API
// gateway trips its own breaker after GatewayTimeout and answers 503, and
// that 503 is what lets the client classify the failure as CIRCUIT_OPEN
// rather than a local TIMEOUT. Load enforces the ordering instead of
// trusting two independently tuned numbers.
type UpstreamConfig struct {
	BaseURL        string
	ClientTimeout  time.Duration
	GatewayTimeout time.Duration
	ServiceToken   string
	ServiceName    string
	LoginURL       string
	// DegradableResources lists the catalog-like resource names whose GET
	// failures degrade to an empty payload instead of an error.
	DegradableResources []string
	ClientTimeoutRaised bool
}

// CatalogConfig tunes the gateway-side fallback cache for catalog reads.
type CatalogConfig struct {
	FallbackEnabled bool
	FallbackTTL     time.Duration
}

// SweeperConfig drives the expiry worker binary.
type SweeperConfig struct {
	Interval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL:             v.GetString("UPSTREAM_BASE_URL"),
		ClientTimeout:       parseDuration(v.GetString("UPSTREAM_CLIENT_TIMEOUT"), 12*time.Second),
		GatewayTimeout:      parseDuration(v.GetString("UPSTREAM_GATEWAY_TIMEOUT"), 10*time.Second),
		ServiceToken:        v.GetString("UPSTREAM_SERVICE_TOKEN"),
		ServiceName:         v.GetString("UPSTREAM_SERVICE_NAME"),
		LoginURL:            v.GetString("UPSTREAM_LOGIN_URL"),
		DegradableResources: splitAndTrim(v.GetString("UPSTREAM_DEGRADABLE_RESOURCES")),
	}
	if cfg.Upstream.ClientTimeout <= cfg.Upstream.GatewayTimeout {
		cfg.Upstream.ClientTimeout = cfg.Upstream.GatewayTimeout + upstreamTimeoutMargin
		cfg.Upstream.ClientTimeoutRaised = true
	}

	cfg.Catalog = CatalogConfig{
		FallbackEnabled: v.GetBool("CATALOG_FALLBACK_ENABLED"),
		FallbackTTL:     parseDuration(v.GetString("CATALOG_FALLBACK_TTL"), 6*time.Hour),
	}

	cfg.Sweeper = SweeperConfig{
		Interval: parseDuration(v.GetString("SWEEPER_INTERVAL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "carevia")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "carevia-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8081")
	v.SetDefault("UPSTREAM_CLIENT_TIMEOUT", "12s")
	v.SetDefault("UPSTREAM_GATEWAY_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_SERVICE_TOKEN", "")
	v.SetDefault("UPSTREAM_SERVICE_NAME", "appointments-core")
	v.SetDefault("UPSTREAM_LOGIN_URL", "/login")
	v.SetDefault("UPSTREAM_DEGRADABLE_RESOURCES", "appointments,hospitals,doctors,specialties,staff,kpis,metrics,charts")

	v.SetDefault("CATALOG_FALLBACK_ENABLED", true)
	v.SetDefault("CATALOG_FALLBACK_TTL", "6h")

	v.SetDefault("SWEEPER_INTERVAL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
