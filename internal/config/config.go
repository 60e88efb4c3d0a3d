package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Health   HealthConfig   `mapstructure:"health"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig selects the profile record store. Driver is "mongo" or "postgres".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"` // mongo only
}

// StorageConfig selects and configures the object storage backend.
// Backend is one of "s3", "minio", "gcs" or "memory".
type StorageConfig struct {
	Backend            string `mapstructure:"backend"`
	Bucket             string `mapstructure:"bucket"`
	Endpoint           string `mapstructure:"endpoint"`
	Region             string `mapstructure:"region"`
	AccessKeyID        string `mapstructure:"access_key_id"`
	SecretAccessKey    string `mapstructure:"secret_access_key"`
	UseSSL             bool   `mapstructure:"use_ssl"`
	PublicBaseURL      string `mapstructure:"public_base_url"`
	CreateBucket       bool   `mapstructure:"create_bucket"`
	GCSProjectID       string `mapstructure:"gcs_project_id"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
}

// UploadConfig holds the photo pipeline limits.
type UploadConfig struct {
	MaxPhotos    int           `mapstructure:"max_photos"`
	MaxFileSize  int64         `mapstructure:"max_file_size"`
	AllowedTypes []string      `mapstructure:"allowed_types"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	Concurrency  int           `mapstructure:"concurrency"`
	DecodeCheck  bool          `mapstructure:"decode_check"`
	RateLimit    int           `mapstructure:"rate_limit"`  // files per owner per window, 0 disables
	RateWindow   time.Duration `mapstructure:"rate_window"`
}

// HealthConfig drives the storage health probe.
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Owner    string        `mapstructure:"owner"` // key prefix used for scheduled write checks
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory, if present, is loaded into the
// environment first.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, upload.max_photos -> UPLOAD_MAX_PHOTOS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "dating_app")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.bucket", "profile-photos")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("upload.max_photos", 6)
	v.SetDefault("upload.max_file_size", 5*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif"})
	v.SetDefault("upload.max_retries", 3)
	v.SetDefault("upload.retry_delay", "1s")
	v.SetDefault("upload.concurrency", 3)
	v.SetDefault("upload.decode_check", true)
	v.SetDefault("upload.rate_limit", 30)
	v.SetDefault("upload.rate_window", "1h")
	v.SetDefault("health.interval", "5m")
	v.SetDefault("health.owner", "_health")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Storage.Bucket == "":
		return errors.New("config: storage.bucket is required")
	case c.Upload.MaxPhotos <= 0:
		return errors.New("config: upload.max_photos must be positive")
	case c.Upload.MaxFileSize <= 0:
		return errors.New("config: upload.max_file_size must be positive")
	case c.Upload.MaxRetries <= 0:
		return errors.New("config: upload.max_retries must be positive")
	case len(c.Upload.AllowedTypes) == 0:
		return errors.New("config: upload.allowed_types must not be empty")
	case c.Health.Interval <= 0:
		return errors.New("config: health.interval must be positive")
	}
	return nil
}
