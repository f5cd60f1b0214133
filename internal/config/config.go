package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileEnv names the optional YAML file loaded before the environment.
const FileEnv = "GLASSINV_CONFIG"

type Config struct {
	ListenAddr         string   `yaml:"listen_addr"`
	StorageDriver      string   `yaml:"storage_driver"`
	DBPath             string   `yaml:"db_path"`
	ImageBackend       string   `yaml:"image_backend"`
	ImageLocalPath     string   `yaml:"image_local_path"`
	S3                 S3Config `yaml:"s3"`
	LogLevel           string   `yaml:"log_level"`
	LogFile            string   `yaml:"log_file"`
	RunLegacyMigration bool     `yaml:"run_legacy_migration"`
}

// S3Config holds the bucket settings for IMAGE_BACKEND=s3. Credentials are
// only read from the environment.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:         ":8080",
		StorageDriver:      "sqlite",
		DBPath:             "/data/glassinv.db",
		ImageBackend:       "local",
		ImageLocalPath:     "/data/images",
		LogLevel:           "info",
		RunLegacyMigration: true,
	}
}

// Load starts from defaults, overlays the YAML file named by GLASSINV_CONFIG
// when set, then applies environment variables. The environment wins.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(FileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.ImageBackend = getEnv("IMAGE_BACKEND", cfg.ImageBackend)
	cfg.ImageLocalPath = getEnv("IMAGE_LOCAL_PATH", cfg.ImageLocalPath)
	cfg.S3.Bucket = getEnv("IMAGE_S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("IMAGE_S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = getEnv("IMAGE_S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKeyID = getEnv("IMAGE_S3_ACCESS_KEY_ID", "")
	cfg.S3.SecretAccessKey = getEnv("IMAGE_S3_SECRET_ACCESS_KEY", "")
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	var err error
	if cfg.S3.PathStyle, err = getEnvBool("IMAGE_S3_PATH_STYLE", cfg.S3.PathStyle); err != nil {
		return nil, err
	}
	if cfg.RunLegacyMigration, err = getEnvBool("RUN_LEGACY_MIGRATION", cfg.RunLegacyMigration); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory":
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required when STORAGE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.ImageBackend {
	case "local":
		if c.ImageLocalPath == "" {
			return fmt.Errorf("IMAGE_LOCAL_PATH is required when IMAGE_BACKEND=local")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("IMAGE_S3_BUCKET is required when IMAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q", c.ImageBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return b, nil
}
