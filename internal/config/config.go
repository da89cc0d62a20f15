package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

const insecureJWTKey = "insecure-development-key-change-me"

type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	Environment    string `mapstructure:"ENVIRONMENT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	PublicURL      string `mapstructure:"PUBLIC_URL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`

	Host     string `mapstructure:"DB_HOST"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	DBPort   string `mapstructure:"DB_PORT"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	FirestoreProjectID string `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirestoreDatabase  string `mapstructure:"FIRESTORE_DATABASE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	S3Endpoint        string        `mapstructure:"S3_ENDPOINT"`
	S3Region          string        `mapstructure:"S3_REGION"`
	S3AccessKeyID     string        `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3BucketName      string        `mapstructure:"S3_BUCKET_NAME"`
	S3URLExpiry       time.Duration `mapstructure:"S3_URL_EXPIRY"`

	JWTKey string        `mapstructure:"JWT_KEY"`
	JWTTTL time.Duration `mapstructure:"JWT_TTL"`

	CaptionAPIURL  string        `mapstructure:"CAPTION_API_URL"`
	CaptionAPIKey  string        `mapstructure:"CAPTION_API_KEY"`
	CaptionTimeout time.Duration `mapstructure:"CAPTION_TIMEOUT"`

	OTELEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

var defaults = map[string]any{
	"SERVER_PORT":                 "8080",
	"ENVIRONMENT":                 "production",
	"ALLOWED_ORIGINS":             "http://localhost:3000,http://localhost:8080",
	"PUBLIC_URL":                  "http://localhost:8080",
	"STORE_DRIVER":                DriverPostgres,
	"DB_HOST":                     "",
	"DB_USER":                     "",
	"DB_PASSWORD":                 "",
	"DB_NAME":                     "",
	"DB_PORT":                     "5432",
	"DB_SSLMODE":                  "disable",
	"FIRESTORE_PROJECT_ID":        "",
	"FIRESTORE_DATABASE":          "(default)",
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"S3_ENDPOINT":                 "",
	"S3_REGION":                   "us-east-1",
	"S3_ACCESS_KEY_ID":            "",
	"S3_SECRET_ACCESS_KEY":        "",
	"S3_BUCKET_NAME":              "",
	"S3_URL_EXPIRY":               time.Hour,
	"JWT_KEY":                     "",
	"JWT_TTL":                     24 * time.Hour,
	"CAPTION_API_URL":             "https://api-inference.huggingface.co/models/Salesforce/blip-image-captioning-base",
	"CAPTION_API_KEY":             "",
	"CAPTION_TIMEOUT":             30 * time.Second,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "captionchat",
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.JWTKey == "" {
		log.Println("WARNING: JWT_KEY is not set, using insecure fallback. Set JWT_KEY in env for production!")
		cfg.JWTKey = insecureJWTKey
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.DBPort == "" {
			return fmt.Errorf("DB_PORT is required")
		}
		if c.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
	case DriverFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.StoreDriver != DriverMemory && c.S3BucketName == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}

	if c.CaptionTimeout <= 0 {
		return fmt.Errorf("CAPTION_TIMEOUT must be positive")
	}

	return nil
}

// DSN строка подключения для gorm postgres.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
