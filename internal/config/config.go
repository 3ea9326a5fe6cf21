package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token   string
	AppID   string
	GuildID string

	// HTTP configuration
	HTTPAddr  string
	JWTSecret string

	// Storage
	DataDir     string
	StorageType string // "memory", "sqlite" or "postgres"
	SQLitePath  string
	DatabaseURL string

	// Escrow
	Custody                string // "native" or "wrapped"
	RentPerByteYear        uint64
	RentExemptionThreshold uint64
	AllowAddressReuse      bool
	StartingBalance        uint64

	// Resolution authority
	AuthorityMode  string
	Authorities    []string
	AuthorityAdmin string
	AuthorityFile  string

	// Event history
	ElasticsearchURL         string
	ElasticsearchUsername    string
	ElasticsearchPassword    string
	ElasticsearchIndexPrefix string
	HistoryRetention         time.Duration

	LogLevel string

	// Environment
	Environment string // "development" or "production"
}

// AuthorityFile is the YAML shape of AUTHORITY_FILE
type AuthorityFile struct {
	Mode        string   `yaml:"mode"`
	Authorities []string `yaml:"authorities"`
	Admin       string   `yaml:"admin"`
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := fromEnv(wd)
	if err != nil {
		return nil, err
	}

	if cfg.AuthorityFile != "" {
		if err := cfg.loadAuthorityFile(cfg.AuthorityFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func fromEnv(wd string) (*Config, error) {
	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))

	cfg := &Config{
		Token:                    os.Getenv("DISCORD_TOKEN"),
		AppID:                    os.Getenv("APP_ID"),
		GuildID:                  os.Getenv("GUILD_ID"),
		HTTPAddr:                 os.Getenv("HTTP_ADDR"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		DataDir:                  dataDir,
		StorageType:              strings.ToLower(getEnvWithDefault("STORAGE_TYPE", "memory")),
		SQLitePath:               getEnvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "wagerescrow.db")),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		Custody:                  strings.ToLower(getEnvWithDefault("CUSTODY", "native")),
		AuthorityMode:            strings.ToLower(getEnvWithDefault("AUTHORITY_MODE", "allowlist")),
		Authorities:              splitList(os.Getenv("AUTHORITIES")),
		AuthorityAdmin:           os.Getenv("AUTHORITY_ADMIN"),
		AuthorityFile:            os.Getenv("AUTHORITY_FILE"),
		ElasticsearchURL:         os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername:    os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword:    os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndexPrefix: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "wagerescrow"),
		LogLevel:                 getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:              getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if cfg.RentPerByteYear, err = getUintWithDefault("RENT_PER_BYTE_YEAR", 3480); err != nil {
		return nil, err
	}
	if cfg.RentExemptionThreshold, err = getUintWithDefault("RENT_EXEMPTION_THRESHOLD", 2); err != nil {
		return nil, err
	}
	if cfg.StartingBalance, err = getUintWithDefault("STARTING_BALANCE", 0); err != nil {
		return nil, err
	}
	if cfg.AllowAddressReuse, err = getBoolWithDefault("ALLOW_ADDRESS_REUSE", false); err != nil {
		return nil, err
	}
	if cfg.HistoryRetention, err = getDurationWithDefault("HISTORY_RETENTION", 90*24*time.Hour); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAuthorityFile overrides the authority settings with the YAML file at path
func (c *Config) loadAuthorityFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read authority file: %w", err)
	}

	var file AuthorityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse authority file %s: %w", path, err)
	}

	if file.Mode != "" {
		c.AuthorityMode = strings.ToLower(file.Mode)
	}
	if len(file.Authorities) > 0 {
		c.Authorities = file.Authorities
	}
	if file.Admin != "" {
		c.AuthorityAdmin = file.Admin
	}
	return nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	switch c.StorageType {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}

	switch c.Custody {
	case "native", "wrapped":
	default:
		return fmt.Errorf("unknown CUSTODY %q", c.Custody)
	}

	switch c.AuthorityMode {
	case "allowlist":
	case "single_admin":
		if c.AuthorityAdmin == "" {
			return fmt.Errorf("AUTHORITY_ADMIN is required in single_admin mode")
		}
	default:
		return fmt.Errorf("unknown AUTHORITY_MODE %q", c.AuthorityMode)
	}

	if c.RentPerByteYear == 0 || c.RentExemptionThreshold == 0 {
		return fmt.Errorf("RENT_PER_BYTE_YEAR and RENT_EXEMPTION_THRESHOLD must be positive")
	}

	if c.HTTPAddr != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when HTTP_ADDR is set")
	}
	if c.Token != "" && c.AppID == "" {
		return fmt.Errorf("APP_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getUintWithDefault(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBoolWithDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
