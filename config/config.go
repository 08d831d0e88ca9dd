/*
Package config loads server configuration from the environment.

A .env file in the working directory is loaded first when present
(development convenience); real environment variables win.

VARIABLES:
  PORT        HTTP server port (default: 8080)
  DB_PATH     SQLite database path (default: leave.db)
  JWT_SECRET  Session token signing key (default: dev-only value)
  ENV         Deployment environment label (default: development)
*/
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	Env       string
}

// Load reads the .env file (if any) and the environment.
func Load() Config {
	// Missing .env is fine; env vars alone are a valid configuration.
	_ = godotenv.Load()

	return Config{
		Port:      getEnv("PORT", "8080"),
		DBPath:    getEnv("DB_PATH", "leave.db"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		Env:       getEnv("ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
