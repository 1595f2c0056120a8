package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/forge/internal/i18n"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Stores          StoresConfig          `yaml:"stores"`
	Modules         ModulesConfig         `yaml:"modules"`
	Log             LogConfig             `yaml:"log"`
	Auth            AuthConfig            `yaml:"auth"`
	Locale          LocaleConfig          `yaml:"locale"`
	SnapshotStorage SnapshotStorageConfig `yaml:"snapshot_storage"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// StoresConfig contains per-module store settings.
type StoresConfig struct {
	RootPath string `yaml:"root_path"`
}

// ModulesConfig locates module definition files.
type ModulesConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig contains authentication settings. An empty key disables auth.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LocaleConfig selects the language of user-facing messages.
type LocaleConfig struct {
	Language string `yaml:"language"`
}

// SnapshotStorageConfig contains S3-compatible settings for module backups.
// An empty Bucket leaves uploads disabled.
type SnapshotStorageConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// Enabled reports whether a bucket is configured.
func (s SnapshotStorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence:
// defaults → .env → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	if err := loadDotEnv(getEnv("FORGE_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := newDefaults()

	configPath := getEnv("FORGE_CONFIG_PATH", "config/forge.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit config paths.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	useSSL := true
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Stores: StoresConfig{
			RootPath: "~/.forge/stores",
		},
		Modules: ModulesConfig{
			Dir: "modules",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Locale: LocaleConfig{
			Language: "auto",
		},
		SnapshotStorage: SnapshotStorageConfig{
			Region:    "us-east-1",
			UseSSL:    &useSSL,
			URLExpiry: Duration(15 * time.Minute),
		},
	}
}

// loadDotEnv exports variables from an optional .env file. Variables
// already present in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}
	return nil
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FORGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("FORGE_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("FORGE_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("FORGE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Stores and modules
	if v := os.Getenv("FORGE_STORES_ROOT"); v != "" {
		cfg.Stores.RootPath = v
	}
	if v := os.Getenv("FORGE_MODULES_DIR"); v != "" {
		cfg.Modules.Dir = v
	}
	if v := os.Getenv("FORGE_MODULES_WATCH"); v != "" {
		cfg.Modules.Watch = parseBool(v)
	}

	// Log
	if v := os.Getenv("FORGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FORGE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Auth
	if v := os.Getenv("FORGE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Locale
	if v := os.Getenv("FORGE_LANGUAGE"); v != "" {
		cfg.Locale.Language = v
	}

	// Snapshot storage
	s := &cfg.SnapshotStorage
	if v := os.Getenv("FORGE_SNAPSHOT_BUCKET"); v != "" {
		s.Bucket = v
	}
	if v := os.Getenv("FORGE_S3_ENDPOINT"); v != "" {
		s.Endpoint = v
	}
	if v := os.Getenv("FORGE_S3_REGION"); v != "" {
		s.Region = v
	}
	if v := os.Getenv("FORGE_S3_ACCESS_KEY"); v != "" {
		s.AccessKey = v
	}
	if v := os.Getenv("FORGE_S3_SECRET_KEY"); v != "" {
		s.SecretKey = v
	}
	if v := os.Getenv("FORGE_S3_USE_SSL"); v != "" {
		useSSL := parseBool(v)
		s.UseSSL = &useSSL
	}
	envDuration("FORGE_S3_URL_EXPIRY", &s.URLExpiry)
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// validate checks configuration values and reports every problem at once.
func (c *Config) validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	if c.Stores.RootPath == "" {
		errs = append(errs, errors.New("stores.root_path is required"))
	}
	if c.Modules.Dir == "" {
		errs = append(errs, errors.New("modules.dir is required"))
	}
	if !i18n.Supported(c.Locale.Language) {
		errs = append(errs, fmt.Errorf("locale.language %q is not supported", c.Locale.Language))
	}
	if s := c.SnapshotStorage; s.Enabled() && (s.AccessKey == "") != (s.SecretKey == "") {
		errs = append(errs, errors.New("FORGE_S3_ACCESS_KEY and FORGE_S3_SECRET_KEY must be set together"))
	}

	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
