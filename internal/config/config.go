package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageMySQL  = "mysql"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Storage  StorageConfig  `toml:"storage"`
	MySQL    MySQLConfig    `toml:"mysql"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
	Mongo    MongoConfig    `toml:"mongo"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	S3       S3Config       `toml:"s3"`
}

type AppConfig struct {
	Name    string `toml:"name" env:"APP_NAME"`
	Env     string `toml:"env" env:"APP_ENV"`
	Host    string `toml:"host" env:"APP_HOST"`
	Port    int    `toml:"port" env:"APP_PORT"`
	GinMode string `toml:"gin_mode" env:"GIN_MODE"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpireMinute int    `toml:"jwt_expire_minute" env:"JWT_EXPIRE_MINUTE"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

type StorageConfig struct {
	Driver string `toml:"driver" env:"STORAGE_DRIVER"`
}

type MySQLConfig struct {
	Host     string `toml:"host" env:"MYSQL_HOST"`
	Port     int    `toml:"port" env:"MYSQL_PORT"`
	User     string `toml:"user" env:"MYSQL_USER"`
	Password string `toml:"password" env:"MYSQL_PASSWORD"`
	DB       string `toml:"db" env:"MYSQL_DB"`
	Params   string `toml:"params" env:"MYSQL_PARAMS"`
}

type SQLiteConfig struct {
	Path string `toml:"path" env:"SQLITE_PATH"`
}

type MongoConfig struct {
	URI      string `toml:"uri" env:"MONGODB_URL"`
	Database string `toml:"database" env:"MONGODB_DATABASE"`
}

// RedisConfig leaves Addr empty to run without the feed cache.
type RedisConfig struct {
	Addr           string `toml:"addr" env:"REDIS_ADDR"`
	Password       string `toml:"password" env:"REDIS_PASSWORD"`
	DB             int    `toml:"db" env:"REDIS_DB"`
	FeedTTLSeconds int    `toml:"feed_ttl_seconds" env:"REDIS_FEED_TTL_SECONDS"`
}

// RabbitMQConfig leaves URL empty to run without session events.
type RabbitMQConfig struct {
	URL               string `toml:"url" env:"RABBITMQ_URL"`
	SessionEventQueue string `toml:"session_event_queue" env:"RABBITMQ_SESSION_EVENT_QUEUE"`
}

// S3Config leaves Bucket empty to disable JSON uploads.
type S3Config struct {
	Bucket          string `toml:"bucket" env:"S3_BUCKET"`
	Region          string `toml:"region" env:"S3_REGION"`
	Endpoint        string `toml:"endpoint" env:"S3_ENDPOINT"`
	AccessKeyID     string `toml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `toml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle    bool   `toml:"use_path_style" env:"S3_USE_PATH_STYLE"`
	MaxUploadBytes  int64  `toml:"max_upload_bytes" env:"S3_MAX_UPLOAD_BYTES"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	// .env is optional; values already present in the environment win.
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file failed: %w", err)
	}

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMySQL, StorageSQLite, StorageMongo:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port %d", c.App.Port)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "wellnesshub",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
		},
		Auth: AuthConfig{
			JWTSecret:       "change-me-in-production",
			JWTExpireMinute: 7 * 24 * 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Driver: StorageMySQL,
		},
		MySQL: MySQLConfig{
			Host:     "127.0.0.1",
			Port:     3306,
			User:     "root",
			Password: "",
			DB:       "wellnesshub",
			Params:   "parseTime=true&loc=UTC&charset=utf8mb4",
		},
		SQLite: SQLiteConfig{
			Path: "data/wellnesshub.db",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://127.0.0.1:27017",
			Database: "wellnesshub",
		},
		Redis: RedisConfig{
			Addr:           "",
			DB:             0,
			FeedTTLSeconds: 60,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               "",
			SessionEventQueue: "wellness.session.events",
		},
		S3: S3Config{
			Region:         "us-east-1",
			MaxUploadBytes: 5 << 20,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
