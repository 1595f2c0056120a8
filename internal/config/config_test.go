package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// Helper to clear all config-related env vars
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"FORGE_PORT",
		"FORGE_READ_TIMEOUT",
		"FORGE_WRITE_TIMEOUT",
		"FORGE_SHUTDOWN_TIMEOUT",
		"FORGE_STORES_ROOT",
		"FORGE_MODULES_DIR",
		"FORGE_MODULES_WATCH",
		"FORGE_LOG_LEVEL",
		"FORGE_LOG_FORMAT",
		"FORGE_API_KEY",
		"FORGE_LANGUAGE",
		"FORGE_CONFIG_PATH",
		"FORGE_SNAPSHOT_BUCKET",
		"FORGE_S3_ENDPOINT",
		"FORGE_S3_REGION",
		"FORGE_S3_ACCESS_KEY",
		"FORGE_S3_SECRET_KEY",
		"FORGE_S3_USE_SSL",
		"FORGE_S3_URL_EXPIRY",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
	// Never pick up a stray .env from the package directory.
	t.Setenv("FORGE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

// writeConfig writes a YAML config into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forge.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// dur converts Duration to time.Duration for comparison
func dur(d Duration) time.Duration {
	return time.Duration(d)
}

// Test: Default values when no config file and no env vars
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if dur(cfg.Server.WriteTimeout) != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 30s", cfg.Server.WriteTimeout)
	}
	if dur(cfg.Server.ShutdownTimeout) != 15*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 15s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Stores.RootPath != "~/.forge/stores" {
		t.Errorf("Stores.RootPath = %q, want %q", cfg.Stores.RootPath, "~/.forge/stores")
	}
	if cfg.Modules.Dir != "modules" {
		t.Errorf("Modules.Dir = %q, want %q", cfg.Modules.Dir, "modules")
	}
	if cfg.Modules.Watch {
		t.Error("Modules.Watch = true, want false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Locale.Language != "auto" {
		t.Errorf("Locale.Language = %q, want %q", cfg.Locale.Language, "auto")
	}
	if cfg.Auth.APIKey != "" {
		t.Errorf("Auth.APIKey = %q, want empty", cfg.Auth.APIKey)
	}
}

// Test: Auth is optional for a local tool
func TestLoad_NoAPIKeyIsValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() without FORGE_API_KEY error = %v", err)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")
	t.Setenv("FORGE_PORT", "9090")
	t.Setenv("FORGE_READ_TIMEOUT", "45s")
	t.Setenv("FORGE_WRITE_TIMEOUT", "50s")
	t.Setenv("FORGE_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("FORGE_STORES_ROOT", "/data/stores")
	t.Setenv("FORGE_MODULES_DIR", "/data/modules")
	t.Setenv("FORGE_MODULES_WATCH", "true")
	t.Setenv("FORGE_LOG_LEVEL", "debug")
	t.Setenv("FORGE_LOG_FORMAT", "text")
	t.Setenv("FORGE_API_KEY", "secret")
	t.Setenv("FORGE_LANGUAGE", "czech")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 45s", cfg.Server.ReadTimeout)
	}
	if dur(cfg.Server.WriteTimeout) != 50*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 50s", cfg.Server.WriteTimeout)
	}
	if dur(cfg.Server.ShutdownTimeout) != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Stores.RootPath != "/data/stores" {
		t.Errorf("Stores.RootPath = %q, want %q", cfg.Stores.RootPath, "/data/stores")
	}
	if cfg.Modules.Dir != "/data/modules" {
		t.Errorf("Modules.Dir = %q, want %q", cfg.Modules.Dir, "/data/modules")
	}
	if !cfg.Modules.Watch {
		t.Error("Modules.Watch = false, want true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.Auth.APIKey != "secret" {
		t.Errorf("Auth.APIKey = %q, want %q", cfg.Auth.APIKey, "secret")
	}
	if cfg.Locale.Language != "czech" {
		t.Errorf("Locale.Language = %q, want %q", cfg.Locale.Language, "czech")
	}
}

// Test: Malformed env values leave the previous value in place
func TestLoad_MalformedEnvVarIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")
	t.Setenv("FORGE_PORT", "eighty")
	t.Setenv("FORGE_READ_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: 9999
  read_timeout: 60s
stores:
  root_path: /yaml/stores
modules:
  dir: /yaml/modules
  watch: true
log:
  level: warn
locale:
  language: cs
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 60*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 60s", cfg.Server.ReadTimeout)
	}
	if cfg.Stores.RootPath != "/yaml/stores" {
		t.Errorf("Stores.RootPath = %q, want %q", cfg.Stores.RootPath, "/yaml/stores")
	}
	if cfg.Modules.Dir != "/yaml/modules" || !cfg.Modules.Watch {
		t.Errorf("Modules = %+v, want dir /yaml/modules with watch", cfg.Modules)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Locale.Language != "cs" {
		t.Errorf("Locale.Language = %q, want %q", cfg.Locale.Language, "cs")
	}
	// Unset sections keep their defaults
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
}

// Test: Env vars override YAML values
func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: 9000
log:
  level: warn
`)
	t.Setenv("FORGE_CONFIG_PATH", path)
	t.Setenv("FORGE_PORT", "8888")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 (env override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q (from YAML)", cfg.Log.Level, "warn")
	}
}

// Test: .env values apply beneath real env vars
func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "FORGE_MODULES_DIR=/from/dotenv\nFORGE_LOG_LEVEL=error\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FORGE_ENV_FILE", envFile)
	t.Setenv("FORGE_LOG_LEVEL", "debug")
	t.Cleanup(func() { os.Unsetenv("FORGE_MODULES_DIR") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Modules.Dir != "/from/dotenv" {
		t.Errorf("Modules.Dir = %q, want %q", cfg.Modules.Dir, "/from/dotenv")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (process env wins)", cfg.Log.Level, "debug")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: not_a_number
  this is invalid yaml [
`)

	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() expected error for invalid YAML, got nil")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file, got nil")
	}
}

// Test: Missing config file is NOT an error for Load
func TestLoad_MissingConfigFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/path/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file, got: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoadFromFile_DurationParsing(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  read_timeout: 5m30s
  write_timeout: 90s
snapshot_storage:
  url_expiry: 1h
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if dur(cfg.Server.ReadTimeout) != 5*time.Minute+30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5m30s", cfg.Server.ReadTimeout)
	}
	if dur(cfg.Server.WriteTimeout) != 90*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 90s", cfg.Server.WriteTimeout)
	}
	if dur(cfg.SnapshotStorage.URLExpiry) != time.Hour {
		t.Errorf("SnapshotStorage.URLExpiry = %v, want 1h", cfg.SnapshotStorage.URLExpiry)
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  read_timeout: not_a_duration
`)

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatal("LoadFromFile() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want mention of invalid duration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty stores root", func(c *Config) { c.Stores.RootPath = "" }, "stores.root_path"},
		{"empty modules dir", func(c *Config) { c.Modules.Dir = "" }, "modules.dir"},
		{"language", func(c *Config) { c.Locale.Language = "not a language" }, "locale.language"},
		{"half credentials", func(c *Config) {
			c.SnapshotStorage.Bucket = "backups"
			c.SnapshotStorage.AccessKey = "key"
		}, "FORGE_S3_SECRET_KEY"},
		{"credentials without bucket", func(c *Config) {
			c.SnapshotStorage.AccessKey = "key"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefaults()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

// Test: Every problem is reported, not just the first
func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := newDefaults()
	cfg.Server.Port = -1
	cfg.Log.Format = "xml"

	err := cfg.validate()
	if err == nil {
		t.Fatal("validate() expected error, got nil")
	}
	for _, want := range []string{"server.port", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %v, missing %q", err, want)
		}
	}
}

// Test: Secrets are never serialized to or read from YAML
func TestConfig_SecretsNotInYAML(t *testing.T) {
	cfg := newDefaults()
	cfg.Auth.APIKey = "api-secret"
	cfg.SnapshotStorage.AccessKey = "access-secret"
	cfg.SnapshotStorage.SecretKey = "secret-secret"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	for _, secret := range []string{"api-secret", "access-secret", "secret-secret"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("marshaled YAML contains %q", secret)
		}
	}

	clearEnv(t)
	path := writeConfig(t, `
auth:
  api_key: from-yaml
snapshot_storage:
  access_key: from-yaml
  secret_key: from-yaml
`)
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Auth.APIKey != "" || loaded.SnapshotStorage.AccessKey != "" || loaded.SnapshotStorage.SecretKey != "" {
		t.Error("secrets must not be read from YAML")
	}
}

func TestConfig_SnapshotStorage_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.SnapshotStorage
	if s.Enabled() {
		t.Error("SnapshotStorage.Enabled() = true, want false without a bucket")
	}
	if s.Region != "us-east-1" {
		t.Errorf("SnapshotStorage.Region = %q, want %q", s.Region, "us-east-1")
	}
	if s.UseSSL == nil || !*s.UseSSL {
		t.Errorf("SnapshotStorage.UseSSL = %v, want true", s.UseSSL)
	}
	if dur(s.URLExpiry) != 15*time.Minute {
		t.Errorf("SnapshotStorage.URLExpiry = %v, want 15m", s.URLExpiry)
	}
}

func TestConfig_SnapshotStorage_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_CONFIG_PATH", "/nonexistent/forge.yaml")
	t.Setenv("FORGE_SNAPSHOT_BUCKET", "forge-backups")
	t.Setenv("FORGE_S3_ENDPOINT", "localhost:9000")
	t.Setenv("FORGE_S3_REGION", "eu-central-1")
	t.Setenv("FORGE_S3_ACCESS_KEY", "minio")
	t.Setenv("FORGE_S3_SECRET_KEY", "minio123")
	t.Setenv("FORGE_S3_USE_SSL", "false")
	t.Setenv("FORGE_S3_URL_EXPIRY", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.SnapshotStorage
	if !s.Enabled() {
		t.Error("SnapshotStorage.Enabled() = false, want true")
	}
	if s.Bucket != "forge-backups" {
		t.Errorf("Bucket = %q, want %q", s.Bucket, "forge-backups")
	}
	if s.Endpoint != "localhost:9000" {
		t.Errorf("Endpoint = %q, want %q", s.Endpoint, "localhost:9000")
	}
	if s.Region != "eu-central-1" {
		t.Errorf("Region = %q, want %q", s.Region, "eu-central-1")
	}
	if s.AccessKey != "minio" || s.SecretKey != "minio123" {
		t.Errorf("credentials = %q/%q, want minio/minio123", s.AccessKey, s.SecretKey)
	}
	if s.UseSSL == nil || *s.UseSSL {
		t.Errorf("UseSSL = %v, want false", s.UseSSL)
	}
	if dur(s.URLExpiry) != 30*time.Minute {
		t.Errorf("URLExpiry = %v, want 30m", s.URLExpiry)
	}
}

func TestConfig_SnapshotStorage_FromYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
snapshot_storage:
  bucket: yaml-bucket
  endpoint: s3.example.com
  use_ssl: false
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	s := cfg.SnapshotStorage
	if s.Bucket != "yaml-bucket" || s.Endpoint != "s3.example.com" {
		t.Errorf("SnapshotStorage = %+v, want yaml-bucket at s3.example.com", s)
	}
	if s.UseSSL == nil || *s.UseSSL {
		t.Errorf("UseSSL = %v, want false", s.UseSSL)
	}
	if s.Region != "us-east-1" {
		t.Errorf("Region = %q, want default us-east-1", s.Region)
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "d: 1m30s" {
		t.Errorf("marshaled = %q, want %q", got, "d: 1m30s")
	}
}
