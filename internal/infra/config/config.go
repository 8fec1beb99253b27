// Package config loads estateledger settings from an optional TOML file and
// ESTATELEDGER_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// ESTATELEDGER_STORAGE_DRIVER for storage.driver.
const EnvPrefix = "ESTATELEDGER"

// Config is the full runtime configuration.
type Config struct {
	App     AppConfig
	Storage StorageConfig
	Blob    BlobConfig
	Log     LogConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env string // development, production
}

// StorageConfig selects the snapshot persistence driver.
type StorageConfig struct {
	Driver      string // memory, sqlite, postgres, blob
	SQLitePath  string
	PostgresDSN string
}

// BlobConfig configures the blob store used by the blob storage driver and
// by snapshot backups.
type BlobConfig struct {
	Driver      string // fs, s3, memory
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

var (
	storageDrivers = []string{"memory", "sqlite", "postgres", "blob"}
	blobDrivers    = []string{"fs", "s3", "memory"}
)

// Load reads estateledger.toml from the working directory (if present) and
// applies environment overrides.
//
// Priority (highest to lowest):
// 1. Environment variables with ESTATELEDGER_ prefix
// 2. estateledger.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations; a missing explicit file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("estateledger")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/estateledger")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("app.env"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Blob: BlobConfig{
			Driver:      v.GetString("blob.driver"),
			FSRoot:      v.GetString("blob.fs_root"),
			S3Bucket:    v.GetString("blob.s3_bucket"),
			S3Region:    v.GetString("blob.s3_region"),
			S3Endpoint:  v.GetString("blob.s3_endpoint"),
			S3PathStyle: v.GetBool("blob.s3_path_style"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading file or env.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "estateledger.db"
	}
	if cfg.Blob.Driver == "" {
		cfg.Blob.Driver = "fs"
	}
	if cfg.Blob.FSRoot == "" {
		cfg.Blob.FSRoot = "./blobdata"
	}
	if cfg.Blob.S3Region == "" {
		cfg.Blob.S3Region = "us-east-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	c.Blob.Driver = strings.ToLower(c.Blob.Driver)
	if !oneOf(c.Storage.Driver, storageDrivers) {
		return fmt.Errorf("storage.driver must be one of %s, got %q", strings.Join(storageDrivers, "|"), c.Storage.Driver)
	}
	if !oneOf(c.Blob.Driver, blobDrivers) {
		return fmt.Errorf("blob.driver must be one of %s, got %q", strings.Join(blobDrivers, "|"), c.Blob.Driver)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3Bucket == "" {
		return errors.New("blob.s3_bucket is required when blob.driver is s3")
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		return errors.New("storage.postgres_dsn is required when storage.driver is postgres")
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
