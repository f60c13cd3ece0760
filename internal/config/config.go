// Package config reads the service configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port int
	// Store selects the record store: "postgres" or "memory".
	Store    string
	Database Database
	Auth     Auth
}

// Database holds the Postgres connection settings.
type Database struct {
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	Schema   string
	LogLevel string
}

// Auth holds credential hashing and session token settings.
type Auth struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const (
	defaultPort       = 8080
	defaultTokenTTL   = 24 * time.Hour
	defaultBcryptCost = 10
)

// Load builds a Config from environment variables, falling back to defaults
// for anything unset or malformed.
func Load() Config {
	return Config{
		Port:  intEnv("PORT", defaultPort),
		Store: stringEnv("STORE_DRIVER", StorePostgres),
		Database: Database{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     os.Getenv("BLUEPRINT_DB_PORT"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
			LogLevel: stringEnv("DB_LOG_LEVEL", "warn"),
		},
		Auth: Auth{
			TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
			TokenTTL:    durationEnv("AUTH_TOKEN_TTL", defaultTokenTTL),
			BcryptCost:  intEnv("AUTH_BCRYPT_COST", defaultBcryptCost),
		},
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s environment variable '%s'. Using default %d. Error: %v", key, v, fallback, err)
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s environment variable '%s'. Using default %s. Error: %v", key, v, fallback, err)
		return fallback
	}
	return d
}
