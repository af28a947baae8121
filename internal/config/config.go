// Package config loads the service configuration from TOML files and
// HACCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/haccp/internal/exports"
	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/database"
	"github.com/JaimeStill/haccp/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvHaccpEnv             = "HACCP_ENV"
	EnvHaccpConfigDir       = "HACCP_CONFIG_DIR"
	EnvHaccpShutdownTimeout = "HACCP_SHUTDOWN_TIMEOUT"
	EnvHaccpVersion         = "HACCP_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "HACCP_DB_HOST",
	Port:            "HACCP_DB_PORT",
	Name:            "HACCP_DB_NAME",
	User:            "HACCP_DB_USER",
	Password:        "HACCP_DB_PASSWORD",
	SSLMode:         "HACCP_DB_SSL_MODE",
	MaxOpenConns:    "HACCP_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "HACCP_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "HACCP_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "HACCP_DB_CONN_TIMEOUT",
	ApplicationName: "HACCP_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "HACCP_STORAGE_CONTAINER_NAME",
	ConnectionString: "HACCP_STORAGE_CONNECTION_STRING",
	ServiceURL:       "HACCP_STORAGE_SERVICE_URL",
}

var authEnv = &auth.Env{
	Enabled:   "HACCP_AUTH_ENABLED",
	IssuerURL: "HACCP_AUTH_ISSUER_URL",
	ClientID:  "HACCP_AUTH_CLIENT_ID",
}

var exportEnv = &exports.Env{
	Production:          "HACCP_EXPORT_PRODUCTION",
	AllowLegacyPipeline: "HACCP_EXPORT_ALLOW_LEGACY_PIPELINE",
	DocxConversion:      "HACCP_EXPORT_DOCX_CONVERSION",
	RenderTimeout:       "HACCP_EXPORT_RENDER_TIMEOUT",
}

// Config is the root configuration for the HACCP service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Export          exports.Config  `toml:"export"`
	Logging         LoggingConfig   `toml:"logging"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the HACCP_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvHaccpEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Files are resolved against HACCP_CONFIG_DIR when
// set. If no config.toml exists, defaults and environment variables provide
// all configuration.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the database section from the same files and
// environment as Load. Tools such as the migrator use it so they do not need
// storage or auth settings to run.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	return &cfg.Database, nil
}

func read() (*Config, error) {
	cfg := &Config{}

	if base := configPath(BaseConfigFile); fileExists(base) {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Export.Merge(&overlay.Export)
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults, environment overrides, and validation to every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(serverEnv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Export.Finalize(exportEnv); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvHaccpShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvHaccpVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func configPath(name string) string {
	if dir := os.Getenv(EnvHaccpConfigDir); dir != "" {
		return filepath.Join(dir, name)
	}
	return name
}

func overlayPath() string {
	if env := os.Getenv(EnvHaccpEnv); env != "" {
		if path := configPath(fmt.Sprintf(OverlayConfigPattern, env)); fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
