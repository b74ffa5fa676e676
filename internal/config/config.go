package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds process configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPPort string

	LogLevel  string
	LogFormat string

	// DBDSN is the sqlite DSN. The catalog is process-resident; the default
	// keeps everything in memory and shares one connection cache.
	DBDSN string

	// Seed loads the demo laboratory catalog at boot.
	Seed bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	return Config{
		AppName:     getenv("APP_SERVICE", "pricebook"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPPort:    getenv("HTTP_PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		DBDSN:       getenv("DATABASE_DSN", "file::memory:?cache=shared"),
		Seed:        getenvBool("PRICEBOOK_SEED", environment != "production"),
	}
}

func (c Config) Debug() bool {
	return c.Environment != "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPricingConfigHolder),
)
