package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the journal API. Values come from
// the environment, with a .env file loaded first when present.
type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	Env            string
	Debug          bool
	ImportInterval time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "journal.db"),
		JWTSecret:      getEnv("JWT_SECRET", "journal-secret-key"),
		Env:            getEnv("ENV", "development"),
		Debug:          getEnv("DEBUG", "") == "true",
		ImportInterval: getDuration("IMPORT_INTERVAL_SECONDS", 5*time.Second),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
