package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Connectors ConnectorsConfig
	App        AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	MigrationsDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// Disabled switches the API into dev mode: requests may identify
	// themselves with an X-User-Id header instead of a Firebase token.
	Disabled            bool
	FirebaseCredentials string
}

type StorageConfig struct {
	S3Bucket  string
	S3Region  string
	URLExpiry int // seconds a presigned URL stays valid
}

type ConnectorsConfig struct {
	ProcoreBaseURL      string
	ProcoreClientID     string
	ProcoreClientSecret string
	PlanGridBaseURL     string
	PlanGridAPIKey      string
	FieldwireBaseURL    string
	FieldwireAPIKey     string
	BuildingConnBaseURL string
	BuildingConnAPIKey  string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			Name:          getEnv("DB_NAME", "gcpanel"),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Disabled:            getEnv("AUTH_DISABLED", "false") == "true",
			FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Storage: StorageConfig{
			S3Bucket:  getEnv("S3_BUCKET", ""),
			S3Region:  getEnv("S3_REGION", "us-east-1"),
			URLExpiry: getEnvAsInt("S3_URL_EXPIRY_SECONDS", 900),
		},
		Connectors: ConnectorsConfig{
			ProcoreBaseURL:      getEnv("PROCORE_BASE_URL", "https://api.procore.com"),
			ProcoreClientID:     getEnv("PROCORE_CLIENT_ID", ""),
			ProcoreClientSecret: getEnv("PROCORE_CLIENT_SECRET", ""),
			PlanGridBaseURL:     getEnv("PLANGRID_BASE_URL", "https://io.plangrid.com"),
			PlanGridAPIKey:      getEnv("PLANGRID_API_KEY", ""),
			FieldwireBaseURL:    getEnv("FIELDWIRE_BASE_URL", "https://client-api.us.fieldwire.com"),
			FieldwireAPIKey:     getEnv("FIELDWIRE_API_KEY", ""),
			BuildingConnBaseURL: getEnv("BUILDINGCONNECTED_BASE_URL", "https://app.buildingconnected.com/api"),
			BuildingConnAPIKey:  getEnv("BUILDINGCONNECTED_API_KEY", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if !c.Auth.Disabled && c.Auth.FirebaseCredentials == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required unless AUTH_DISABLED=true")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
