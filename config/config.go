// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	Addr        string
	DBPath      string
	LogLevel    string
	CORSOrigins []string
	Auth        AuthConfig
	SeedEnabled bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
	BcryptCost      int
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load() // absent in production, fine

	return Config{
		Addr:     getEnv("ADDR", ":8080"),
		DBPath:   getEnv("DB_PATH", "leave.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		CORSOrigins: []string{
			getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 480),
			BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		},
		SeedEnabled: getEnvBool("SEED_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
