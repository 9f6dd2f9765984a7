// Package config provides application configuration loaded from command-line
// flags, environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Library LibraryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig locates the on-disk stores.
type StorageConfig struct {
	// DataPath is the root directory; the stores default to children of it.
	DataPath string `env:"DATA_PATH"`
	// CatalogPath is the badger directory holding the catalog, profile and session.
	CatalogPath string `env:"CATALOG_PATH"`
	// BlobPath is the SQLite file holding PDFs and images.
	BlobPath string `env:"BLOB_PATH"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// LibraryConfig holds catalog behaviour knobs.
type LibraryConfig struct {
	// SeedDefaults populates an empty catalog with the sample books.
	SeedDefaults bool `env:"SEED_DEFAULTS" envDefault:"true"`
	// MaxUploadBytes bounds a multipart book form, PDF included.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig with explicit arguments.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "Path to .env file")
	envName := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Root directory for stored data")
	catalogPath := fs.String("catalog-path", "", "Directory of the catalog store")
	blobPath := fs.String("blob-path", "", "Path of the blob database file")
	port := fs.String("port", "", "Server port (default: 8080)")
	seed := fs.String("seed-defaults", "", "Seed sample books into an empty catalog (default: true)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	override(&cfg.App.Environment, *envName)
	override(&cfg.Logger.Level, *logLevel)
	override(&cfg.Storage.DataPath, *dataPath)
	override(&cfg.Storage.CatalogPath, *catalogPath)
	override(&cfg.Storage.BlobPath, *blobPath)
	override(&cfg.Server.Port, *port)
	if *seed != "" {
		v := strings.ToLower(*seed)
		cfg.Library.SeedDefaults = v == "true" || v == "1" || v == "yes"
	}

	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.CatalogPath == "" || c.Storage.BlobPath == "" {
		return errors.New("storage paths cannot be empty after expansion")
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}

	if c.Library.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Library.MaxUploadBytes)
	}

	return nil
}

// expandStoragePaths resolves the data root and derives the store locations from it.
func (c *Config) expandStoragePaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	root, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Bookshelf"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = root

	if c.Storage.CatalogPath, err = expandPath(c.Storage.CatalogPath, filepath.Join(root, "catalog")); err != nil {
		return err
	}
	if c.Storage.BlobPath, err = expandPath(c.Storage.BlobPath, filepath.Join(root, "blobs.db")); err != nil {
		return err
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
