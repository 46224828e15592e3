// Package config loads chistopro settings from an optional YAML file and
// CHISTOPRO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CHISTOPRO"

// PathEnv names the environment variable holding the config file path.
const PathEnv = envPrefix + "_CONFIG"

type ProgressConfig struct {
	TotalDays int `mapstructure:"total_days" yaml:"total_days"`
	Bands     int `mapstructure:"bands" yaml:"bands"`
}

type LifecycleConfig struct {
	MaxMissedDays int `mapstructure:"max_missed_days" yaml:"max_missed_days"`
}

// PushConfig holds the VAPID identity used for reminder notifications.
// Reminders are off unless both keys are set.
type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key" yaml:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key" yaml:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber" yaml:"subscriber"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

type BackupConfig struct {
	S3            S3Config `mapstructure:"s3" yaml:"s3"`
	Passphrase    string   `mapstructure:"passphrase" yaml:"passphrase"`
	IntervalHours int      `mapstructure:"interval_hours" yaml:"interval_hours"`
	RetentionDays int      `mapstructure:"retention_days" yaml:"retention_days"`
}

// Interval is the scheduled backup period, zero when scheduling is off.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 0
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

type Config struct {
	Port      string          `mapstructure:"port" yaml:"port"`
	DBPath    string          `mapstructure:"db_path" yaml:"db_path"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string          `mapstructure:"log_format" yaml:"log_format"`
	Progress  ProgressConfig  `mapstructure:"progress" yaml:"progress"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle" yaml:"lifecycle"`
	Push      PushConfig      `mapstructure:"push" yaml:"push"`
	Backup    BackupConfig    `mapstructure:"backup" yaml:"backup"`
}

// Every key needs a default so the environment can override it.
var defaults = map[string]any{
	"port":                      "8080",
	"db_path":                   "chistopro.db",
	"log_level":                 "info",
	"log_format":                "text",
	"progress.total_days":       8,
	"progress.bands":            4,
	"lifecycle.max_missed_days": 3,
	"push.vapid_public_key":     "",
	"push.vapid_private_key":    "",
	"push.subscriber":           "mailto:noreply@chistopro.app",
	"backup.s3.endpoint":        "",
	"backup.s3.bucket":          "",
	"backup.s3.region":          "us-east-1",
	"backup.s3.access_key":      "",
	"backup.s3.secret_key":      "",
	"backup.passphrase":         "",
	"backup.interval_hours":     0,
	"backup.retention_days":     30,
}

// Load reads the YAML file at path, falling back to $CHISTOPRO_CONFIG when
// path is empty. A missing file is not an error. Environment variables such
// as CHISTOPRO_PORT or CHISTOPRO_BACKUP_S3_BUCKET override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *fs.PathError
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Progress.TotalDays < 1 {
		return fmt.Errorf("progress.total_days must be at least 1, got %d", c.Progress.TotalDays)
	}
	if c.Progress.Bands < 1 {
		return fmt.Errorf("progress.bands must be at least 1, got %d", c.Progress.Bands)
	}
	if c.Lifecycle.MaxMissedDays < 1 {
		return fmt.Errorf("lifecycle.max_missed_days must be at least 1, got %d", c.Lifecycle.MaxMissedDays)
	}
	return nil
}
