package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string     `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string     `yaml:"environment" env:"APP_ENV" env-default:"development"`
	LogLevel    string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Database    Database   `yaml:"database"`
	Redis       Redis      `yaml:"redis"`
	Cloudinary  Cloudinary `yaml:"cloudinary"`
	Upload      Upload     `yaml:"upload"`
	Kafka       Kafka      `yaml:"kafka"`
	Session     Session    `yaml:"session"`
}

type Database struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	DatabaseName string `yaml:"database_name" env:"DB_NAME" env-default:"eventease"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`

	// Connection Pool Settings
	MaxOpenConns    int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME" env-default:"30"`
}

// GetDatabaseURL constructs the PostgreSQL connection string. The session
// time zone is pinned to UTC so booking dates are stored without shifting.
func (d *Database) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&TimeZone=UTC",
		d.User, d.Password, d.Host, d.Port, d.DatabaseName, d.SSLMode)
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TLS      bool   `yaml:"tls" env:"REDIS_TLS" env-default:"false"`
}

func (r *Redis) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// TLSConfig returns nil unless TLS is switched on
func (r *Redis) TLSConfig() *tls.Config {
	if !r.TLS {
		return nil
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: r.Host,
	}
}

// Cloudinary holds the blob store credentials. Folder plays the role of the
// image container.
type Cloudinary struct {
	CloudName string `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `yaml:"api_key" env:"CLOUDINARY_API_KEY"`
	APISecret string `yaml:"api_secret" env:"CLOUDINARY_API_SECRET"`
	Folder    string `yaml:"folder" env:"CLOUDINARY_FOLDER" env-default:"venue-images"`
}

// Enabled reports whether enough credentials are present to talk to Cloudinary.
func (c *Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Upload configures the local fallback blob store and request limits.
type Upload struct {
	MaxBytes  int64  `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"10485760"`
	LocalDir  string `yaml:"local_dir" env:"UPLOAD_LOCAL_DIR" env-default:"public/uploads"`
	PublicURL string `yaml:"public_url" env:"UPLOAD_PUBLIC_URL" env-default:"/uploads"`
}

type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	EventTopic string   `yaml:"event_topic" env:"KAFKA_BOOKING_EVENTS_TOPIC" env-default:"booking-events"`

	// Managed clusters require TLS and SASL
	TLS           bool   `yaml:"tls" env:"KAFKA_TLS" env-default:"false"`
	SASLMechanism string `yaml:"sasl_mechanism" env:"KAFKA_SASL_MECHANISM"`
	Username      string `yaml:"username" env:"KAFKA_USERNAME"`
	Password      string `yaml:"password" env:"KAFKA_PASSWORD"`
}

// Enabled reports whether any broker is configured.
func (k *Kafka) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type Session struct {
	Secret       string `yaml:"secret" env:"SESSION_SECRET" env-default:"change-me-in-production"`
	CookieName   string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"eventease_session"`
	Secure       bool   `yaml:"secure" env:"SESSION_COOKIE_SECURE" env-default:"false"`
	MaxAgeHours  int    `yaml:"max_age_hours" env:"SESSION_MAX_AGE_HOURS" env-default:"12"`
	FlashTTLSecs int    `yaml:"flash_ttl_seconds" env:"FLASH_TTL_SECONDS" env-default:"300"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	cfg := &Config{}

	if useEnv {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
		return cfg, nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			return cfg, nil
		}
	}

	// Fallback to environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return cfg, nil
}
