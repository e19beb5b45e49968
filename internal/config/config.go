package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Ledger storage configuration
	Storage StorageConfig

	// Database configuration (postgres storage driver only)
	Database DatabaseConfig

	// Ledger rules
	Ledger LedgerConfig

	// Scheduled ledger backups
	Backup BackupConfig

	// JWT configuration
	JWT JWTConfig

	// Operator account
	Operator OperatorConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// StorageConfig selects where the ledger lives
type StorageConfig struct {
	Driver  string // "file" or "postgres"
	DataDir string
	Codec   string // "json" or "cbor", file driver only
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// LedgerConfig holds bus inventory rules
type LedgerConfig struct {
	MinTravelYear        int
	MaxSeatsPerBus       int
	RejectOversizedSeats bool
}

// BackupConfig schedules ledger snapshots. An empty Schedule disables them.
type BackupConfig struct {
	Schedule string // cron spec with seconds, e.g. "0 0 * * * *"
	Dir      string
	Keep     int
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// OperatorConfig holds the single operator's credentials and lockout policy
type OperatorConfig struct {
	Username         string
	PasswordHash     string // bcrypt hash, see `busctl hash-password`
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:  getEnv("STORAGE_DRIVER", "file"),
			DataDir: getEnv("DATA_DIR", "data"),
			Codec:   getEnv("LEDGER_CODEC", "json"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Ledger: loadLedger(),
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Backup: BackupConfig{
			Schedule: getEnv("LEDGER_BACKUP_SCHEDULE", ""),
			Dir:      getEnv("LEDGER_BACKUP_DIR", "data/backups"),
			Keep:     getEnvAsInt("LEDGER_BACKUP_KEEP", 24),
		},
		Operator: OperatorConfig{
			Username:         getEnv("OPERATOR_USERNAME", "admin"),
			PasswordHash:     getEnv("OPERATOR_PASSWORD_HASH", ""),
			MaxLoginAttempts: getEnvAsInt("OPERATOR_MAX_LOGIN_ATTEMPTS", 3),
			LockoutDuration:  time.Duration(getEnvAsInt("OPERATOR_LOCKOUT_SECONDS", 300)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadLedger loads only the ledger rules. Tools that open the data
// directory directly use it so they apply the same rules as the server.
func LoadLedger() (LedgerConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	ledger := loadLedger()
	if err := ledger.Validate(); err != nil {
		return LedgerConfig{}, err
	}
	return ledger, nil
}

func loadLedger() LedgerConfig {
	return LedgerConfig{
		MinTravelYear:        getEnvAsInt("LEDGER_MIN_TRAVEL_YEAR", 2023),
		MaxSeatsPerBus:       getEnvAsInt("LEDGER_MAX_SEATS_PER_BUS", 50),
		RejectOversizedSeats: getEnvAsBool("LEDGER_REJECT_OVERSIZED_SEATS", false),
	}
}

// Validate validates the ledger rules
func (l LedgerConfig) Validate() error {
	if l.MaxSeatsPerBus < 1 {
		return fmt.Errorf("LEDGER_MAX_SEATS_PER_BUS must be at least 1")
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file storage driver")
		}
		if c.Storage.Codec != "json" && c.Storage.Codec != "cbor" {
			return fmt.Errorf("invalid LEDGER_CODEC: %s (must be 'json' or 'cbor')", c.Storage.Codec)
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER: %s (must be 'file' or 'postgres')", c.Storage.Driver)
	}

	if c.Backup.Schedule != "" && c.Backup.Dir == "" {
		return fmt.Errorf("LEDGER_BACKUP_DIR is required when LEDGER_BACKUP_SCHEDULE is set")
	}

	if err := c.Ledger.Validate(); err != nil {
		return err
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Operator.Username == "" {
		return fmt.Errorf("OPERATOR_USERNAME is required")
	}

	if c.Operator.PasswordHash == "" {
		return fmt.Errorf("OPERATOR_PASSWORD_HASH is required")
	}

	if c.Operator.MaxLoginAttempts < 1 {
		return fmt.Errorf("OPERATOR_MAX_LOGIN_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
