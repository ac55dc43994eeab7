// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Durations accept the time.ParseDuration
// syntax ("10m", "24h").
type Config struct {
	Env          string        // application environment (e.g. "dev", "prod")
	DBUser       string        // database username
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	HoldTTL      time.Duration // how long a seat hold blocks other buyers
	CancelWindow time.Duration // how long after purchase an order is refundable
	SeatCacheTTL time.Duration // lifetime of cached per-event seat maps
	BrokerURL    string        // RabbitMQ endpoint (empty -> env/default resolution)
}

// Load reads configuration from the environment.  A .env file in the
// working directory is merged in first when present.  Missing required
// variables cause the program to exit with a fatal log message.
func Load() Config {
	// Ignore a missing .env; real deployments export variables directly.
	_ = godotenv.Load()

	return Config{
		Env:          getenv("APP_ENV", "dev"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		HoldTTL:      envDur("HOLD_TTL", 10*time.Minute),
		CancelWindow: envDur("CANCEL_WINDOW", 24*time.Hour),
		SeatCacheTTL: envDur("SEATMAP_CACHE_TTL", 30*time.Second),
		BrokerURL:    os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
