// Package config loads runtime configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPort          = "PORT"
	EnvStorageDriver = "STORAGE_DRIVER"
	EnvSQLitePath    = "SQLITE_PATH"
	EnvMongoURI      = "MONGODB_URI"
	EnvMongoDatabase = "MONGODB_DATABASE"
	EnvAdminPassword = "OPEN2FA_ADMIN_PASSWORD"
	EnvUserPassword  = "OPEN2FA_USER_PASSWORD"
)

// Storage driver names accepted in STORAGE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds the console's runtime configuration.
type Config struct {
	Port          string
	StorageDriver string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	AdminPassword string
	UserPassword  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          envOrDefault(EnvPort, "8080"),
		StorageDriver: strings.ToLower(envOrDefault(EnvStorageDriver, DriverSQLite)),
		SQLitePath:    envOrDefault(EnvSQLitePath, "open2fa.db"),
		MongoURI:      strings.TrimSpace(os.Getenv(EnvMongoURI)),
		MongoDatabase: strings.TrimSpace(os.Getenv(EnvMongoDatabase)),
		AdminPassword: os.Getenv(EnvAdminPassword),
		UserPassword:  os.Getenv(EnvUserPassword),
	}

	switch cfg.StorageDriver {
	case DriverMemory, DriverSQLite, DriverMongo:
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
