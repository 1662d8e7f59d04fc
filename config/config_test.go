package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialiseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
database:
  driver: memory
  database_name: venues_test
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
cloudinary:
  cloud_name: demo
  api_key: key
  api_secret: secret
`), 0o600)
	require.NoError(t, err)

	cfg, err := Initialise(path, false)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "venues_test", cfg.Database.DatabaseName)
	assert.Equal(t, "venue-images", cfg.Cloudinary.Folder)
	assert.True(t, cfg.Cloudinary.Enabled())
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.EqualValues(t, 10485760, cfg.Upload.MaxBytes)
}

func TestInitialiseFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("APP_ENV", "production")

	cfg, err := Initialise("", true)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestGetDatabaseURL(t *testing.T) {
	db := Database{User: "u", Password: "p", Host: "db", Port: "5433", DatabaseName: "ease", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/ease?sslmode=disable&TimeZone=UTC", db.GetDatabaseURL())
}

func TestRedisTLSConfig(t *testing.T) {
	plain := Redis{Host: "localhost", Port: "6379"}
	assert.Nil(t, plain.TLSConfig())

	managed := Redis{Host: "valkey.internal", Port: "25061", TLS: true}
	tlsConfig := managed.TLSConfig()
	require.NotNil(t, tlsConfig)
	assert.Equal(t, "valkey.internal", tlsConfig.ServerName)
}

func TestKafkaSecurityFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("KAFKA_BROKERS", "kafka.internal:25073")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("KAFKA_SASL_MECHANISM", "scram-sha-256")
	t.Setenv("KAFKA_USERNAME", "doadmin")

	cfg, err := Initialise("", true)
	require.NoError(t, err)

	assert.True(t, cfg.Kafka.TLS)
	assert.Equal(t, "scram-sha-256", cfg.Kafka.SASLMechanism)
	assert.Equal(t, "doadmin", cfg.Kafka.Username)
}
