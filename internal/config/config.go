package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendFilesystem = "fs"
	BackendPostgres   = "postgres"
	BackendMinio      = "minio"
)

type Config struct {
	Env      Env
	Storage  StorageConfig
	Cleanup  CleanupConfig
	Auth     AuthConfig
	Minio    MinioConfig
	NATS     NATSConfig
	Database DatabaseConfig
	Server   ServerConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type StorageConfig struct {
	Root            string   `envconfig:"STORAGE_ROOT" default:"./data/files"`
	StagingRoot     string   `envconfig:"STORAGE_STAGING_ROOT" default:"./data/staging"`
	MetadataBackend string   `envconfig:"STORAGE_METADATA_BACKEND" default:"fs"`
	ChunkBackend    string   `envconfig:"STORAGE_CHUNK_BACKEND" default:"fs"`
	BlockSize       ByteSize `envconfig:"STORAGE_BLOCK_SIZE" default:"1MiB"`
	MaxChunkSize    ByteSize `envconfig:"STORAGE_MAX_CHUNK_SIZE" default:"64MiB"`
	MaxFileSize     ByteSize `envconfig:"STORAGE_MAX_FILE_SIZE" default:"1TiB"`
}

type CleanupConfig struct {
	Every      time.Duration `envconfig:"CLEANUP_EVERY" default:"1h"`
	StaleAfter time.Duration `envconfig:"CLEANUP_STALE_AFTER" default:"24h"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"AUTH_ISSUER"`
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

// NATSConfig is optional. Without an URL events are dropped.
type NATSConfig struct {
	URL        string `envconfig:"NATS_URL"`
	PORT       string `envconfig:"NATS_PORT" default:"4222"`
	StreamName string `envconfig:"NATS_STREAM_NAME" default:"UPLOADS"`
	Subject    string `envconfig:"NATS_SUBJECT" default:"uploads.events"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// URL returns the connection string in the form golang-migrate expects
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that depend on the selected backends
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}

	switch c.Storage.MetadataBackend {
	case BackendFilesystem:
	case BackendPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("postgres metadata backend requires DB_HOST, DB_USER and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown metadata backend %q", c.Storage.MetadataBackend)
	}

	switch c.Storage.ChunkBackend {
	case BackendFilesystem:
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			return fmt.Errorf("minio chunk backend requires MINIO_ENDPOINT and MINIO_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("unknown chunk backend %q", c.Storage.ChunkBackend)
	}

	if c.Storage.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive")
	}
	if c.Storage.MaxChunkSize <= 0 {
		return fmt.Errorf("max chunk size must be positive")
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if c.Cleanup.Every <= 0 || c.Cleanup.StaleAfter <= 0 {
		return fmt.Errorf("cleanup interval and stale timeout must be positive")
	}

	return nil
}
